package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"renderbot/internal/model"
	"renderbot/internal/repository"
)

type mockGenerator struct {
	out   *model.RenderOutput
	err   error
	calls int
}

func (m *mockGenerator) Render(ctx context.Context, imageURL string) (*model.RenderOutput, error) {
	m.calls++
	return m.out, m.err
}

func TestRender_InsufficientCredit(t *testing.T) {
	ctx := context.Background()
	ledger := repository.NewMemoryLedger()
	gen := &mockGenerator{}
	msgr := &mockMessenger{}
	svc := NewRenderService(ledger, gen, msgr)

	if err := svc.HandlePhoto(ctx, "42", "https://files/elevation.jpg"); err != nil {
		t.Fatal(err)
	}

	if gen.calls != 0 {
		t.Error("vendor must not be called without credit")
	}
	if len(msgr.buttons) != 1 || msgr.buttons[0] != MsgInsufficient {
		t.Errorf("expected insufficient-credit message with buttons, got %v", msgr.buttons)
	}
	if bal, _ := ledger.GetBalance(ctx, "42"); bal != 0 {
		t.Errorf("balance = %d, want 0", bal)
	}
}

func TestRender_VendorErrorKeepsCredit(t *testing.T) {
	ctx := context.Background()
	ledger := repository.NewMemoryLedger()
	if _, err := ledger.Credit(ctx, "42", 1); err != nil {
		t.Fatal(err)
	}
	gen := &mockGenerator{err: errors.New("504 gateway timeout")}
	msgr := &mockMessenger{}
	svc := NewRenderService(ledger, gen, msgr)

	if err := svc.HandlePhoto(ctx, "42", "https://files/elevation.jpg"); err != nil {
		t.Fatal(err)
	}

	if bal, _ := ledger.GetBalance(ctx, "42"); bal != 1 {
		t.Errorf("balance = %d, want 1 (no debit on vendor error)", bal)
	}
	if len(msgr.texts) != 2 || msgr.texts[1] != MsgVendorError {
		t.Errorf("expected generating ack then vendor error, got %v", msgr.texts)
	}
	if len(msgr.photos) != 0 {
		t.Error("no photo may be delivered on vendor error")
	}
}

func TestRender_NoImageKeepsCredit(t *testing.T) {
	ctx := context.Background()
	ledger := repository.NewMemoryLedger()
	if _, err := ledger.Credit(ctx, "42", 1); err != nil {
		t.Fatal(err)
	}
	gen := &mockGenerator{err: fmt.Errorf("parse: %w", model.ErrNoImage)}
	msgr := &mockMessenger{}
	svc := NewRenderService(ledger, gen, msgr)

	if err := svc.HandlePhoto(ctx, "42", "https://files/elevation.jpg"); err != nil {
		t.Fatal(err)
	}

	if bal, _ := ledger.GetBalance(ctx, "42"); bal != 1 {
		t.Errorf("balance = %d, want 1", bal)
	}
	if len(msgr.texts) != 2 || msgr.texts[1] != MsgNoImage {
		t.Errorf("expected no-image message, got %v", msgr.texts)
	}
}

func TestRender_SuccessDebitsOnceAndDelivers(t *testing.T) {
	ctx := context.Background()
	ledger := repository.NewMemoryLedger()
	if _, err := ledger.Credit(ctx, "42", 1); err != nil {
		t.Fatal(err)
	}
	gen := &mockGenerator{out: &model.RenderOutput{
		ImageURL: "https://cdn.vendor/render.png",
		Caption:  "Your rendering is ready.",
	}}
	msgr := &mockMessenger{}
	svc := NewRenderService(ledger, gen, msgr)

	if err := svc.HandlePhoto(ctx, "42", "https://files/elevation.jpg"); err != nil {
		t.Fatal(err)
	}

	if bal, _ := ledger.GetBalance(ctx, "42"); bal != 0 {
		t.Errorf("balance = %d, want 0", bal)
	}
	if len(msgr.photos) != 1 || msgr.photos[0] != "https://cdn.vendor/render.png" {
		t.Fatalf("delivered photos = %v, want exactly the vendor output", msgr.photos)
	}
	if msgr.captions[0] != "Your rendering is ready." {
		t.Errorf("caption = %q, want the vendor caption", msgr.captions[0])
	}
}

func TestRender_FallbackCaptionIncludesBalance(t *testing.T) {
	ctx := context.Background()
	ledger := repository.NewMemoryLedger()
	if _, err := ledger.Credit(ctx, "42", 3); err != nil {
		t.Fatal(err)
	}
	gen := &mockGenerator{out: &model.RenderOutput{ImageURL: "https://cdn.vendor/render.png"}}
	msgr := &mockMessenger{}
	svc := NewRenderService(ledger, gen, msgr)

	if err := svc.HandlePhoto(ctx, "42", "https://files/elevation.jpg"); err != nil {
		t.Fatal(err)
	}

	if len(msgr.captions) != 1 || !strings.Contains(msgr.captions[0], "Credits remaining: 2") {
		t.Errorf("fallback caption = %v, want remaining balance 2", msgr.captions)
	}
}

func TestRender_VendorNotConfigured(t *testing.T) {
	ctx := context.Background()
	ledger := repository.NewMemoryLedger()
	if _, err := ledger.Credit(ctx, "42", 1); err != nil {
		t.Fatal(err)
	}
	msgr := &mockMessenger{}
	svc := NewRenderService(ledger, nil, msgr)

	if err := svc.HandlePhoto(ctx, "42", "https://files/elevation.jpg"); err != nil {
		t.Fatal(err)
	}

	if bal, _ := ledger.GetBalance(ctx, "42"); bal != 1 {
		t.Errorf("balance = %d, want 1", bal)
	}
	if len(msgr.texts) != 1 || msgr.texts[0] != MsgVendorError {
		t.Errorf("texts = %v, want only the vendor error", msgr.texts)
	}
}
