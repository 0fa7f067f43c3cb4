package imagegen

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"renderbot/internal/model"
)

func TestExtractOutput(t *testing.T) {
	out, err := extractOutput("Here you go: https://cdn.vendor/render-123.png\n✅ RenderBot Pro – ready.")
	if err != nil {
		t.Fatal(err)
	}
	if out.ImageURL != "https://cdn.vendor/render-123.png" {
		t.Errorf("image url = %q", out.ImageURL)
	}
	if out.Caption != "✅ RenderBot Pro – ready." {
		t.Errorf("caption = %q", out.Caption)
	}
}

func TestExtractOutput_JPGAndEmptyCaption(t *testing.T) {
	out, err := extractOutput("https://cdn.vendor/render.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if out.ImageURL != "https://cdn.vendor/render.jpg" || out.Caption != "" {
		t.Errorf("out = %+v", out)
	}
}

func TestExtractOutput_NoImage(t *testing.T) {
	_, err := extractOutput("Sorry, I could not generate anything today.")
	if !errors.Is(err, model.ErrNoImage) {
		t.Errorf("err = %v, want ErrNoImage", err)
	}
}

func TestRender_RoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "grok-4" || len(req.Messages) != 2 {
			t.Errorf("request = %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "https://cdn.vendor/out.png\nDone."}},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "grok-4")
	out, err := c.Render(context.Background(), "https://files/elevation.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if out.ImageURL != "https://cdn.vendor/out.png" || out.Caption != "Done." {
		t.Errorf("out = %+v", out)
	}
}

func TestRender_VendorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream overloaded", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "grok-4")
	if _, err := c.Render(context.Background(), "https://files/elevation.jpg"); err == nil {
		t.Fatal("expected an error on 502")
	}
}
