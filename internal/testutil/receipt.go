// Package testutil builds receipt documents shaped like DoorDash order confirmations.
package testutil

import (
	"fmt"
	"html"
	"strings"
)

// Item is one line of the items table, as displayed text.
type Item struct {
	Quantity string
	Name     string
	Price    string
}

// Total is one summary row.
type Total struct {
	Label string
	Value string
}

// Receipt describes a document to render.
type Receipt struct {
	Restaurant string
	Payment    string
	Items      []Item
	Totals     []Total
	// Footer is free text placed in the last skeleton row; vary it to change the document
	// without touching any parsed value.
	Footer string
	// LayoutDecoy prepends an unrelated nine-row table, as wrapping newsletters do.
	LayoutDecoy bool
	// OmitItemsTable leaves the items slot of the skeleton empty.
	OmitItemsTable bool
	// OmitSkeleton renders the content without the nine-row layout table.
	OmitSkeleton bool
}

// BurgerReceipt is a two-item order with a subtotal and a tip and no other fees.
func BurgerReceipt() Receipt {
	return Receipt{
		Restaurant: "Joe's Diner",
		Payment:    "Visa ****4242",
		Items: []Item{
			{Quantity: "2x", Name: "Burger", Price: "$5.00"},
			{Quantity: "1x", Name: "Fries", Price: "$3.50"},
		},
		Totals: []Total{
			{Label: "Subtotal", Value: "$13.50"},
			{Label: "Tip", Value: "$2.00"},
		},
		Footer: "Questions? Visit help.doordash.com",
	}
}

// HTML renders the receipt.
func (r Receipt) HTML() string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><title>Order Confirmation</title></head><body>\n")
	if r.LayoutDecoy {
		b.WriteString("<table><tbody>\n")
		for i := 0; i < 9; i++ {
			fmt.Fprintf(&b, "<tr><td>layout %d</td></tr>\n", i)
		}
		b.WriteString("</tbody></table>\n")
	}

	rows := []string{
		"<td>Your order is confirmed</td>",
		fmt.Sprintf("<td>Paid with %s<br>%s</td>", html.EscapeString(r.Payment), html.EscapeString(r.Restaurant)),
		"<td>Estimated arrival 7:45 PM</td>",
		"<td>Delivery address on file</td>",
		"<td>Dasher: Sam</td>",
		"<td>Order Summary</td>",
		"<td>" + r.totalsTable() + "</td>",
		"<td>" + r.itemsTable() + "</td>",
		"<td>" + html.EscapeString(r.Footer) + "</td>",
	}
	if r.OmitSkeleton {
		rows = rows[:8]
	}

	b.WriteString("<table><tbody>\n")
	for _, row := range rows {
		b.WriteString("<tr>" + row + "</tr>\n")
	}
	b.WriteString("</tbody></table>\n</body></html>\n")
	return b.String()
}

func (r Receipt) itemsTable() string {
	if r.OmitItemsTable {
		return "No items"
	}
	var b strings.Builder
	b.WriteString("<table><tbody><tr><td>\n<table><tbody>\n")
	for _, it := range r.Items {
		fmt.Fprintf(&b, "<tr><td>%s</td><td><b>%s</b></td><td>%s</td></tr>\n",
			html.EscapeString(it.Quantity), html.EscapeString(it.Name), html.EscapeString(it.Price))
	}
	b.WriteString("</tbody></table>\n</td></tr></tbody></table>")
	return b.String()
}

func (r Receipt) totalsTable() string {
	var b strings.Builder
	b.WriteString("<table><tbody>\n")
	for _, t := range r.Totals {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td></tr>\n", html.EscapeString(t.Label), html.EscapeString(t.Value))
	}
	b.WriteString("</tbody></table>")
	return b.String()
}
