package extract

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/order-extractor/constants"
	"github.com/joseph-ayodele/order-extractor/internal/dom"
)

// RestaurantNameChildIndex is the position, among the anchor cell's direct child nodes, of
// the restaurant name. In the template the cell reads "Paid with <card>", <br>, "<name>".
const RestaurantNameChildIndex = 2

// ResolveRestaurantName finds the restaurant display name next to the payment anchor text.
func ResolveRestaurantName(doc *dom.Document) (string, error) {
	for _, cell := range doc.FindAll("td") {
		children := cell.Children()
		if !hasAnchorText(children) {
			continue
		}
		if len(children) <= RestaurantNameChildIndex {
			return "", fmt.Errorf("%w: anchor cell has %d child nodes", ErrRestaurantNotFound, len(children))
		}
		name := strings.TrimSpace(children[RestaurantNameChildIndex].Text())
		if name == "" {
			return "", fmt.Errorf("%w: empty name next to %q", ErrRestaurantNotFound, constants.PaidWithAnchor)
		}
		return name, nil
	}
	return "", fmt.Errorf("%w: no cell contains %q", ErrRestaurantNotFound, constants.PaidWithAnchor)
}

func hasAnchorText(children []dom.Node) bool {
	for _, c := range children {
		if c.Kind() == dom.TextNode && strings.Contains(c.Text(), constants.PaidWithAnchor) {
			return true
		}
	}
	return false
}
