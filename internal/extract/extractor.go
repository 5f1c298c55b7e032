// Package extract turns a DoorDash order confirmation e-mail body into restaurant, menu
// item, order and order item entities with content-derived identifiers.
package extract

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/order-extractor/constants"
	"github.com/joseph-ayodele/order-extractor/internal/dom"
	"github.com/joseph-ayodele/order-extractor/internal/entity"
)

// RowPolicy decides what happens to an item row that fails to parse.
type RowPolicy int

const (
	// RowPolicyFail aborts the whole document. Default.
	RowPolicyFail RowPolicy = iota
	// RowPolicySkip logs the row and leaves it out of both item slices.
	RowPolicySkip
)

// Extractor runs the extraction pipeline. It holds no per-document state and is safe for
// concurrent use.
type Extractor struct {
	hasher    *Hasher
	rowPolicy RowPolicy
	logger    *slog.Logger
}

type Option func(*Extractor)

func WithHasher(h *Hasher) Option {
	return func(e *Extractor) {
		if h != nil {
			e.hasher = h
		}
	}
}

func WithRowPolicy(p RowPolicy) Option {
	return func(e *Extractor) { e.rowPolicy = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

func New(opts ...Option) *Extractor {
	e := &Extractor{
		hasher:    NewHasher(DefaultIDKey),
		rowPolicy: RowPolicyFail,
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract parses html and builds the entity graph. timestampMillis is the message's
// delivery time in Unix milliseconds; nil leaves DatePurchased unset. It never feeds an id.
func (e *Extractor) Extract(html string, timestampMillis *int64) (*entity.ExtractorData, error) {
	doc, err := dom.ParseString(html)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	return e.ExtractDocument(doc, timestampMillis)
}

// ExtractDocument is Extract for an already parsed document.
func (e *Extractor) ExtractDocument(doc *dom.Document, timestampMillis *int64) (*entity.ExtractorData, error) {
	rows, err := LocateItemRows(doc)
	if err != nil {
		return nil, fmt.Errorf("locate items table: %w", err)
	}

	name, err := ResolveRestaurantName(doc)
	if err != nil {
		return nil, fmt.Errorf("resolve restaurant: %w", err)
	}

	parsed, err := e.parseRows(rows)
	if err != nil {
		return nil, fmt.Errorf("parse items: %w", err)
	}

	totals, err := ParseTotals(doc)
	if err != nil {
		return nil, fmt.Errorf("parse totals: %w", err)
	}

	canonical, err := doc.Canonical()
	if err != nil {
		return nil, fmt.Errorf("canonicalize document: %w", err)
	}

	restaurant := entity.Restaurant{
		ID:   e.hasher.RestaurantID(name),
		Name: name,
	}
	order := entity.Order{
		ID:            e.hasher.OrderID(canonical),
		RestaurantID:  restaurant.ID,
		DatePurchased: purchaseTime(timestampMillis),
		Subtotal:      totals[constants.Subtotal],
		Taxes:         totals[constants.Taxes],
		DeliveryFee:   totals[constants.DeliveryFee],
		ServiceFee:    totals[constants.ServiceFee],
		Tip:           totals[constants.Tip],
		Discounts:     totals[constants.Discounts],
		TotalCharged:  totals[constants.TotalCharged],
	}

	out := &entity.ExtractorData{
		Order:           order,
		OrderItems:      make([]entity.OrderItem, 0, len(parsed)),
		Restaurant:      restaurant,
		RestaurantItems: make([]entity.RestaurantItem, 0, len(parsed)),
	}
	for _, r := range parsed {
		ri, oi := e.buildItem(r, restaurant.ID, order.ID)
		out.RestaurantItems = append(out.RestaurantItems, ri)
		out.OrderItems = append(out.OrderItems, oi)
	}

	e.logger.Debug("extract.ok",
		"order_id", order.ID,
		"restaurant", restaurant.Name,
		"items", len(out.OrderItems),
		"skipped_rows", len(rows)-len(parsed),
	)
	return out, nil
}

func (e *Extractor) parseRows(rows []dom.Node) ([]itemRow, error) {
	out := make([]itemRow, 0, len(rows))
	for i, row := range rows {
		r, err := parseItemRow(i, row)
		if err != nil {
			if e.rowPolicy == RowPolicySkip {
				e.logger.Warn("extract.row.skipped", "row", i, "error", err)
				continue
			}
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// buildItem produces the menu item and the order line for one parsed row together, so the
// two slices can never drift apart.
func (e *Extractor) buildItem(r itemRow, restaurantID, orderID string) (entity.RestaurantItem, entity.OrderItem) {
	ri := entity.RestaurantItem{
		ID:           e.hasher.RestaurantItemID(r.Name),
		RestaurantID: restaurantID,
		Name:         r.Name,
	}
	oi := entity.OrderItem{
		ID:               e.hasher.OrderItemID(orderID, ri.ID),
		OrderID:          orderID,
		RestaurantItemID: ri.ID,
		PricePerItem:     r.PricePerItem,
		Quantity:         r.Quantity,
		TotalCharged:     float64(r.Quantity) * r.PricePerItem,
	}
	return ri, oi
}

func purchaseTime(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := time.UnixMilli(*ms).UTC()
	return &t
}
