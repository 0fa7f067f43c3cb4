package telegram

import (
	"testing"

	"renderbot/internal/catalog"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		data string
		want Action
	}{
		{"buy_single", ActionBuySingle},
		{"buy_pack5", ActionBuyPack5},
		{"buy_marketing", ActionBuyMarketing},
		{"ignore", ActionIgnore},
		{"", ActionIgnore},
		{"buy_pack50", ActionIgnore},
		{"drop tables", ActionIgnore},
	}
	for _, tt := range tests {
		if got := parseAction(tt.data); got != tt.want {
			t.Errorf("parseAction(%q) = %q, want %q", tt.data, got, tt.want)
		}
	}
}

func TestEveryBuyActionHasCatalogEntry(t *testing.T) {
	cat := catalog.New()
	for action, sku := range actionSKUs {
		entry, ok := cat.Lookup(sku)
		if !ok {
			t.Errorf("action %q maps to SKU %q with no price entry", action, sku)
			continue
		}
		if entry.Credits <= 0 || entry.AmountMinorUnit <= 0 {
			t.Errorf("SKU %q has degenerate entry %+v", sku, entry)
		}
	}
}
