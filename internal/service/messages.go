package service

// User-facing copy. Kept in one place so handlers and workers share it.
const (
	MsgGenerating   = "Generating your $5,000-quality rendering... (10–20 seconds)"
	MsgInsufficient = "You need at least 1 credit to render. Buy credits below:"
	MsgVendorError  = "Error generating rendering. Try again or contact support."
	MsgNoImage      = "Something went wrong generating the image. Please try again."

	// MsgPaymentSuccess is formatted with the new balance.
	MsgPaymentSuccess = "Payment successful! You now have %d rendering credit(s). Upload an elevation to start!"

	// FallbackCaption is used when the vendor returns an image without
	// trailing text; formatted with the remaining balance.
	FallbackCaption = "✅ RenderBot Pro – Instant Architectural Visualization\n" +
		"Your rendering is ready in seconds — not days.\n" +
		"Want revisions, additional angles, interior views, or animations? Just let me know.\n\n" +
		"Credits remaining: %d"
)

// PurchaseButtons is the short purchase menu shown on insufficient credit.
func PurchaseButtons() [][]Button {
	return [][]Button{
		{{Label: "$29 – 1 Rendering", Action: "buy_single"}},
		{{Label: "$99 – 5 Renderings", Action: "buy_pack5"}},
	}
}
