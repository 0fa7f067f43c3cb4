package catalog

// SKU identifies a purchasable credit bundle.
type SKU string

const (
	SKUSingle    SKU = "single"
	SKUPack5     SKU = "pack5"
	SKUMarketing SKU = "marketing"
)

// PriceEntry describes one bundle. Amounts are USD cents.
type PriceEntry struct {
	SKU             SKU
	AmountMinorUnit int64
	Credits         int64
	DisplayName     string
}

// Catalog is the static price list. Immutable after New, safe for
// concurrent lookups.
type Catalog struct {
	entries map[SKU]PriceEntry
}

func New() *Catalog {
	return &Catalog{entries: map[SKU]PriceEntry{
		SKUSingle:    {SKU: SKUSingle, AmountMinorUnit: 2900, Credits: 1, DisplayName: "1 Rendering Credit"},
		SKUPack5:     {SKU: SKUPack5, AmountMinorUnit: 9900, Credits: 5, DisplayName: "5 Rendering Credits"},
		SKUMarketing: {SKU: SKUMarketing, AmountMinorUnit: 29900, Credits: 12, DisplayName: "Full Marketing Kit (12 credits)"},
	}}
}

func (c *Catalog) Lookup(sku SKU) (PriceEntry, bool) {
	e, ok := c.entries[sku]
	return e, ok
}
