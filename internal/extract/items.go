package extract

import (
	"strings"

	"github.com/joseph-ayodele/order-extractor/internal/dom"
)

// itemRow is one parsed receipt line before identifiers are assigned.
type itemRow struct {
	Quantity     int
	Name         string
	PricePerItem float64
}

// parseItemRow reads the quantity, name and price cells of row index i.
func parseItemRow(i int, row dom.Node) (itemRow, error) {
	cells := row.ElementChildren()
	switch {
	case len(cells) < 1:
		return itemRow{}, &RowParseError{Row: i, Column: ColumnQuantity}
	case len(cells) < 2:
		return itemRow{}, &RowParseError{Row: i, Column: ColumnName}
	case len(cells) < 3:
		return itemRow{}, &RowParseError{Row: i, Column: ColumnPrice}
	}

	qtyText := cells[0].Text()
	qty, err := parseQuantity(qtyText)
	if err != nil {
		return itemRow{}, &RowParseError{Row: i, Column: ColumnQuantity, Text: strings.TrimSpace(qtyText), Err: err}
	}

	priceText := cells[2].Text()
	price, err := parseAmount(priceText)
	if err != nil {
		return itemRow{}, &RowParseError{Row: i, Column: ColumnPrice, Text: strings.TrimSpace(priceText), Err: err}
	}

	return itemRow{
		Quantity:     qty,
		Name:         itemName(cells[1]),
		PricePerItem: price,
	}, nil
}

// itemName reads the bold text of the name cell; the cell also carries option lines in
// plain text. Nested emphasis counts once. Cells without a bold element fall back to their
// whole text.
func itemName(cell dom.Node) string {
	bold := cell.Find("b, strong")
	if len(bold) == 0 {
		return strings.TrimSpace(cell.Text())
	}
	var sb strings.Builder
	for _, b := range bold {
		if nestedIn(b, bold) {
			continue
		}
		sb.WriteString(b.Text())
	}
	return strings.TrimSpace(sb.String())
}

// nestedIn reports whether n sits inside another of the matches.
func nestedIn(n dom.Node, matches []dom.Node) bool {
	for _, m := range matches {
		if m.Contains(n) {
			return true
		}
	}
	return false
}
