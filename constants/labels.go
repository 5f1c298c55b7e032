package constants

// TotalsLabel is the exact text of a summary row label in the receipt totals section.
type TotalsLabel string

const (
	Subtotal     TotalsLabel = "Subtotal"
	Taxes        TotalsLabel = "Taxes"
	DeliveryFee  TotalsLabel = "Delivery Fee"
	ServiceFee   TotalsLabel = "Service Fee"
	Tip          TotalsLabel = "Tip"
	Discounts    TotalsLabel = "Discounts"
	TotalCharged TotalsLabel = "Total Charged"
)

var allLabels = []TotalsLabel{
	Subtotal,
	Taxes,
	DeliveryFee,
	ServiceFee,
	Tip,
	Discounts,
	TotalCharged,
}

// AllTotalsLabels returns the labels in receipt order.
func AllTotalsLabels() []TotalsLabel {
	out := make([]TotalsLabel, len(allLabels))
	copy(out, allLabels)
	return out
}

// PaidWithAnchor is the payment-summary phrase that sits next to the restaurant name.
const PaidWithAnchor = "Paid with"

// DefaultMailQuery selects DoorDash order confirmations in a mailbox.
const DefaultMailQuery = "from:no-reply@doordash.com subject: Order Confirmation"
