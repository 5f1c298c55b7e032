package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/order-extractor/internal/entity"
	"github.com/joseph-ayodele/order-extractor/internal/repository"
)

const (
	OrdersSheet = "Orders"
	ItemsSheet  = "Items"
	dateLayout  = "2006-01-02 15:04"
)

var (
	orderHeaders = []string{
		"Order ID", "Date Purchased", "Restaurant", "Subtotal", "Taxes", "Delivery Fee",
		"Service Fee", "Tip", "Discounts", "Total Charged", "Other Fees",
	}
	itemHeaders = []string{
		"Order ID", "Date Purchased", "Restaurant", "Item", "Quantity", "Price Per Item", "Total Charged",
	}
)

// Service produces XLSX reports from stored orders.
type Service struct {
	orders repository.OrderStore
	logger *slog.Logger
}

func NewService(orders repository.OrderStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{orders: orders, logger: logger}
}

// ExportOrdersXLSX returns a workbook (as bytes) with one Orders row per order and one
// Items row per purchased line, for the given date window.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> all orders.
func (s *Service) ExportOrdersXLSX(ctx context.Context, from, to *time.Time) ([]byte, error) {
	start := time.Now()
	fromDate, toDate := window(from, to, time.Now())

	orders, err := s.orders.ListOrders(ctx, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", OrdersSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(ItemsSheet); err != nil {
		return nil, err
	}
	writeHeaders(f, OrdersSheet, orderHeaders)
	writeHeaders(f, ItemsSheet, itemHeaders)

	itemRow := 2
	for i, o := range orders {
		writeRow(f, OrdersSheet, i+2, orderRow(o))
		for j := range o.OrderItems {
			writeRow(f, ItemsSheet, itemRow, lineRow(o, j))
			itemRow++
		}
	}

	_ = f.SetColWidth(OrdersSheet, "A", "A", 24) // id
	_ = f.SetColWidth(OrdersSheet, "B", "B", 18) // date
	_ = f.SetColWidth(OrdersSheet, "C", "C", 28) // restaurant
	_ = f.SetColWidth(OrdersSheet, "D", "K", 13) // amounts
	_ = f.SetColWidth(ItemsSheet, "A", "A", 24)
	_ = f.SetColWidth(ItemsSheet, "B", "B", 18)
	_ = f.SetColWidth(ItemsSheet, "C", "D", 28)
	_ = f.SetColWidth(ItemsSheet, "E", "G", 14)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"orders", len(orders),
		"items", itemRow-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// window normalizes the bounds to whole UTC days; the upper bound covers its entire day.
func window(from, to *time.Time, now time.Time) (*time.Time, *time.Time) {
	day := func(t time.Time) time.Time {
		t = t.UTC()
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	var fromDate, toDate *time.Time
	if from != nil {
		f := day(*from)
		fromDate = &f
	}
	if to == nil && from != nil {
		to = &now
	}
	if to != nil {
		t := day(*to).Add(24*time.Hour - time.Nanosecond)
		toDate = &t
	}
	return fromDate, toDate
}

func orderRow(d *entity.ExtractorData) []any {
	o := d.Order
	var other any = ""
	if o.OtherFees != nil {
		other = *o.OtherFees
	}
	return []any{
		o.ID, formatDate(o.DatePurchased), d.Restaurant.Name, o.Subtotal, o.Taxes,
		o.DeliveryFee, o.ServiceFee, o.Tip, o.Discounts, o.TotalCharged, other,
	}
}

func lineRow(d *entity.ExtractorData, i int) []any {
	oi := d.OrderItems[i]
	name := ""
	if i < len(d.RestaurantItems) {
		name = d.RestaurantItems[i].Name
	}
	return []any{
		d.Order.ID, formatDate(d.Order.DatePurchased), d.Restaurant.Name, name,
		oi.Quantity, oi.PricePerItem, oi.TotalCharged,
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

func writeHeaders(f *excelize.File, sheet string, headers []string) {
	row := make([]any, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	writeRow(f, sheet, 1, row)
}

func writeRow(f *excelize.File, sheet string, row int, values []any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}
