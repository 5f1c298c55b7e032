package extract

import (
	"strings"

	"github.com/joseph-ayodele/order-extractor/constants"
	"github.com/joseph-ayodele/order-extractor/internal/dom"
)

// Totals holds the summary amounts keyed by label. Missing labels read as 0.
type Totals map[constants.TotalsLabel]float64

// ParseTotals reads every summary label. A label cell is a td whose trimmed text equals the
// label exactly; its amount is in the next sibling cell.
func ParseTotals(doc *dom.Document) (Totals, error) {
	cells := doc.FindAll("td")
	out := make(Totals, len(constants.AllTotalsLabels()))
	for _, label := range constants.AllTotalsLabels() {
		v, err := totalsValue(cells, string(label))
		if err != nil {
			return nil, err
		}
		out[label] = v
	}
	return out, nil
}

func totalsValue(cells []dom.Node, label string) (float64, error) {
	for _, cell := range cells {
		if strings.TrimSpace(cell.Text()) != label {
			continue
		}
		next, ok := cell.NextElementSibling()
		if !ok {
			return 0, nil
		}
		text := strings.TrimSpace(next.Text())
		if text == "" {
			return 0, nil
		}
		v, err := parseAmount(text)
		if err != nil {
			return 0, &TotalParseError{Label: label, Text: text, Err: err}
		}
		return v, nil
	}
	return 0, nil
}
