package extract

import (
	"errors"
	"fmt"
)

// Failure families: a StructuralError means the document is not the supported receipt
// template; a ParseError means a located value does not match the expected grammar.
var (
	ErrStructural = errors.New("document does not match the receipt template")
	ErrParse      = errors.New("receipt value could not be parsed")
)

var (
	ErrStructureNotFound  = fmt.Errorf("%w: items table not found", ErrStructural)
	ErrRestaurantNotFound = fmt.Errorf("%w: restaurant name not found", ErrStructural)
	ErrRowParse           = fmt.Errorf("%w: item row", ErrParse)
	ErrTotalParse         = fmt.Errorf("%w: totals value", ErrParse)
)

// Item row columns.
const (
	ColumnQuantity = "quantity"
	ColumnName     = "name"
	ColumnPrice    = "price"
)

// RowParseError reports an item row whose cells are missing or malformed.
type RowParseError struct {
	Row    int    // zero-based index among the item rows
	Column string // ColumnQuantity, ColumnName or ColumnPrice
	Text   string // offending cell text, empty when the cell is missing
	Err    error
}

func (e *RowParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("item row %d: %s %q: %v", e.Row, e.Column, e.Text, e.Err)
	}
	return fmt.Sprintf("item row %d: missing %s column", e.Row, e.Column)
}

func (e *RowParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrRowParse}
	}
	return []error{ErrRowParse, e.Err}
}

// TotalParseError reports a totals label whose paired value is not an amount.
type TotalParseError struct {
	Label string
	Text  string
	Err   error
}

func (e *TotalParseError) Error() string {
	return fmt.Sprintf("total %q: %q: %v", e.Label, e.Text, e.Err)
}

func (e *TotalParseError) Unwrap() []error {
	return []error{ErrTotalParse, e.Err}
}
