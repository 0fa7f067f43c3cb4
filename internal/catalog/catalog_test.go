package catalog

import "testing"

func TestLookup(t *testing.T) {
	c := New()

	cases := []struct {
		sku     SKU
		amount  int64
		credits int64
	}{
		{SKUSingle, 2900, 1},
		{SKUPack5, 9900, 5},
		{SKUMarketing, 29900, 12},
	}

	for _, tc := range cases {
		entry, ok := c.Lookup(tc.sku)
		if !ok {
			t.Fatalf("Lookup(%s): not found", tc.sku)
		}
		if entry.AmountMinorUnit != tc.amount {
			t.Errorf("Lookup(%s): amount = %d, want %d", tc.sku, entry.AmountMinorUnit, tc.amount)
		}
		if entry.Credits != tc.credits {
			t.Errorf("Lookup(%s): credits = %d, want %d", tc.sku, entry.Credits, tc.credits)
		}
		if entry.DisplayName == "" {
			t.Errorf("Lookup(%s): empty display name", tc.sku)
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	c := New()
	if _, ok := c.Lookup(SKU("pack500")); ok {
		t.Error("expected unknown SKU to miss")
	}
}
