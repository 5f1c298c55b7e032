package extract

import (
	"fmt"

	"github.com/joseph-ayodele/order-extractor/internal/dom"
)

// Shape of the supported receipt template. These were read off one version of the
// confirmation e-mail and are the first thing to revisit when extraction starts failing
// with ErrStructureNotFound.
const (
	// ReceiptSkeletonRows is the row count of the table body laying out the whole receipt.
	ReceiptSkeletonRows = 9
	// ItemsRowIndex is the skeleton row holding the items sub-table.
	ItemsRowIndex = 7
	// ItemsTableDepth is how many tables, counted inside the items row, enclose the items body.
	ItemsTableDepth = 2
)

// LocateItemRows returns the purchased-item rows of the receipt, in document order.
func LocateItemRows(doc *dom.Document) ([]dom.Node, error) {
	skeleton, ok := locateSkeleton(doc)
	if !ok {
		return nil, fmt.Errorf("%w: no table body with %d rows", ErrStructureNotFound, ReceiptSkeletonRows)
	}
	row := skeleton.ElementChildren()[ItemsRowIndex]

	bodies := innermost(itemBodies(row))
	if len(bodies) == 0 {
		return nil, fmt.Errorf("%w: skeleton row %d holds no nested items table", ErrStructureNotFound, ItemsRowIndex)
	}

	var rows []dom.Node
	for _, body := range bodies {
		rows = append(rows, body.ElementChildren()...)
	}
	return rows, nil
}

// locateSkeleton picks the last table body with exactly ReceiptSkeletonRows element
// children. Layout wrappers come first in document order, so the last match is the most
// specific one.
func locateSkeleton(doc *dom.Document) (dom.Node, bool) {
	var found dom.Node
	for _, body := range doc.FindAll("tbody") {
		if len(body.ElementChildren()) == ReceiptSkeletonRows {
			found = body
		}
	}
	return found, !found.IsZero()
}

// itemBodies returns the table bodies inside row that are nested at least ItemsTableDepth
// tables deep, counting only tables inside row.
func itemBodies(row dom.Node) []dom.Node {
	var out []dom.Node
	for _, body := range row.Find("tbody") {
		parent, ok := body.Parent()
		if !ok || !parent.Is("table") {
			continue
		}
		if body.AncestorDepth("table", row) < ItemsTableDepth {
			continue
		}
		out = append(out, body)
	}
	return out
}

// innermost drops every body that contains another candidate.
func innermost(bodies []dom.Node) []dom.Node {
	var out []dom.Node
	for _, b := range bodies {
		nested := false
		for _, o := range bodies {
			if b.Contains(o) {
				nested = true
				break
			}
		}
		if !nested {
			out = append(out, b)
		}
	}
	return out
}
