package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/order-extractor/internal/common"
	"github.com/joseph-ayodele/order-extractor/internal/entity"
)

// OrderStore persists extraction results. Saving is idempotent: identifiers are
// content-derived, so re-saving the same document rewrites the same rows.
type OrderStore interface {
	SaveExtraction(ctx context.Context, data *entity.ExtractorData) error
	GetOrder(ctx context.Context, orderID string) (*entity.ExtractorData, error)
	ListOrders(ctx context.Context, fromDate, toDate *time.Time) ([]*entity.ExtractorData, error)
}

type orderStore struct {
	db     *DB
	logger *slog.Logger
}

func NewOrderStore(db *DB, logger *slog.Logger) OrderStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &orderStore{db: db, logger: logger}
}

func (s *orderStore) builder() *entsql.DialectBuilder {
	return entsql.Dialect(s.db.Dialect)
}

// SaveExtraction writes all four entity kinds in one transaction. Restaurants and menu
// items are only inserted when absent, which keeps ratings and favorites set by other
// tools; orders and order lines are overwritten with the extracted values.
func (s *orderStore) SaveExtraction(ctx context.Context, data *entity.ExtractorData) error {
	if err := common.ValidateStruct(data); err != nil {
		return err
	}
	if len(data.OrderItems) != len(data.RestaurantItems) {
		return fmt.Errorf("%w: %d order items for %d restaurant items", common.ErrValidation, len(data.OrderItems), len(data.RestaurantItems))
	}

	if dups := duplicateLines(data.OrderItems); len(dups) > 0 {
		s.logger.Warn("receipt repeats a menu item; repeated lines share one stored row",
			"order_id", data.Order.ID, "order_item_ids", dups)
	}

	tx, err := s.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", common.ErrDatabase, err)
	}
	if err := s.save(ctx, tx, data); err != nil {
		_ = tx.Rollback()
		s.logger.Error("failed to save extraction", "order_id", data.Order.ID, "error", err)
		return fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", common.ErrDatabase, err)
	}
	s.logger.Debug("extraction saved", "order_id", data.Order.ID, "items", len(data.OrderItems))
	return nil
}

// duplicateLines returns the order item ids that occur more than once, in first-seen order.
func duplicateLines(items []entity.OrderItem) []string {
	seen := make(map[string]int, len(items))
	var dups []string
	for _, it := range items {
		seen[it.ID]++
		if seen[it.ID] == 2 {
			dups = append(dups, it.ID)
		}
	}
	return dups
}

func (s *orderStore) save(ctx context.Context, tx *sql.Tx, data *entity.ExtractorData) error {
	b := s.builder()
	exec := func(q entsql.Querier) error {
		query, args := q.Query()
		_, err := tx.ExecContext(ctx, query, args...)
		return err
	}

	r := data.Restaurant
	if err := exec(b.Insert(TableRestaurants).
		Columns("id", "name").
		Values(r.ID, r.Name).
		OnConflict(entsql.ConflictColumns("id"), entsql.DoNothing())); err != nil {
		return fmt.Errorf("upsert restaurant: %w", err)
	}

	for _, ri := range data.RestaurantItems {
		if err := exec(b.Insert(TableRestaurantItems).
			Columns("id", "restaurant_id", "name", "rating", "is_favorite").
			Values(ri.ID, ri.RestaurantID, ri.Name, ri.Rating, ri.IsFavorite).
			OnConflict(entsql.ConflictColumns("id"), entsql.DoNothing())); err != nil {
			return fmt.Errorf("upsert restaurant item: %w", err)
		}
	}

	o := data.Order
	var date, other any
	if o.DatePurchased != nil {
		date = o.DatePurchased.UTC()
	}
	if o.OtherFees != nil {
		other = *o.OtherFees
	}
	if err := exec(b.Insert(TableOrders).
		Columns("id", "restaurant_id", "date_purchased", "subtotal", "taxes", "delivery_fee",
			"service_fee", "tip", "discounts", "total_charged", "other_fees").
		Values(o.ID, o.RestaurantID, date, o.Subtotal, o.Taxes, o.DeliveryFee,
			o.ServiceFee, o.Tip, o.Discounts, o.TotalCharged, other).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues())); err != nil {
		return fmt.Errorf("upsert order: %w", err)
	}

	for i, oi := range data.OrderItems {
		if err := exec(b.Insert(TableOrderItems).
			Columns("id", "order_id", "restaurant_item_id", "position", "price_per_item",
				"quantity", "total_charged", "special_request").
			Values(oi.ID, oi.OrderID, oi.RestaurantItemID, i, oi.PricePerItem,
				oi.Quantity, oi.TotalCharged, oi.SpecialRequest).
			OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues())); err != nil {
			return fmt.Errorf("upsert order item %d: %w", i, err)
		}
	}
	return nil
}

func (s *orderStore) GetOrder(ctx context.Context, orderID string) (*entity.ExtractorData, error) {
	b := s.builder()
	orders := b.Table(TableOrders)
	query, args := b.Select(
		orders.C("id"), orders.C("restaurant_id"), orders.C("date_purchased"),
		orders.C("subtotal"), orders.C("taxes"), orders.C("delivery_fee"), orders.C("service_fee"),
		orders.C("tip"), orders.C("discounts"), orders.C("total_charged"), orders.C("other_fees"),
	).From(orders).Where(entsql.EQ(orders.C("id"), orderID)).Query()

	var (
		o     entity.Order
		date  sql.NullTime
		other sql.NullFloat64
	)
	err := s.db.SQL.QueryRowContext(ctx, query, args...).Scan(
		&o.ID, &o.RestaurantID, &date,
		&o.Subtotal, &o.Taxes, &o.DeliveryFee, &o.ServiceFee,
		&o.Tip, &o.Discounts, &o.TotalCharged, &other,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.OrderNotFound(orderID)
	}
	if err != nil {
		s.logger.Error("failed to load order", "order_id", orderID, "error", err)
		return nil, fmt.Errorf("%w: load order: %v", common.ErrDatabase, err)
	}
	if date.Valid {
		t := date.Time.UTC()
		o.DatePurchased = &t
	}
	if other.Valid {
		v := other.Float64
		o.OtherFees = &v
	}

	out := &entity.ExtractorData{Order: o}
	if out.Restaurant, err = s.getRestaurant(ctx, o.RestaurantID); err != nil {
		return nil, err
	}
	if out.OrderItems, out.RestaurantItems, err = s.listItems(ctx, o.ID); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *orderStore) getRestaurant(ctx context.Context, id string) (entity.Restaurant, error) {
	b := s.builder()
	t := b.Table(TableRestaurants)
	query, args := b.Select(t.C("id"), t.C("name")).From(t).Where(entsql.EQ(t.C("id"), id)).Query()

	var r entity.Restaurant
	if err := s.db.SQL.QueryRowContext(ctx, query, args...).Scan(&r.ID, &r.Name); err != nil {
		return r, fmt.Errorf("%w: load restaurant: %v", common.ErrDatabase, err)
	}
	return r, nil
}

// listItems returns the order lines and their menu items, paired in receipt order.
func (s *orderStore) listItems(ctx context.Context, orderID string) ([]entity.OrderItem, []entity.RestaurantItem, error) {
	b := s.builder()
	// Joined tables are aliased by the builder; name both so the select list matches.
	oi := b.Table(TableOrderItems).As("oi")
	ri := b.Table(TableRestaurantItems).As("ri")
	query, args := b.Select(
		oi.C("id"), oi.C("order_id"), oi.C("restaurant_item_id"), oi.C("price_per_item"),
		oi.C("quantity"), oi.C("total_charged"), oi.C("special_request"),
		ri.C("id"), ri.C("restaurant_id"), ri.C("name"), ri.C("rating"), ri.C("is_favorite"),
	).From(oi).
		Join(ri).On(oi.C("restaurant_item_id"), ri.C("id")).
		Where(entsql.EQ(oi.C("order_id"), orderID)).
		OrderBy(oi.C("position")).
		Query()

	rows, err := s.db.SQL.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: list items: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	orderItems := []entity.OrderItem{}
	restaurantItems := []entity.RestaurantItem{}
	for rows.Next() {
		var (
			o entity.OrderItem
			r entity.RestaurantItem
		)
		if err := rows.Scan(
			&o.ID, &o.OrderID, &o.RestaurantItemID, &o.PricePerItem,
			&o.Quantity, &o.TotalCharged, &o.SpecialRequest,
			&r.ID, &r.RestaurantID, &r.Name, &r.Rating, &r.IsFavorite,
		); err != nil {
			return nil, nil, fmt.Errorf("%w: scan item: %v", common.ErrDatabase, err)
		}
		orderItems = append(orderItems, o)
		restaurantItems = append(restaurantItems, r)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: list items: %v", common.ErrDatabase, err)
	}
	return orderItems, restaurantItems, nil
}

// ListOrders returns stored orders purchased inside the optional date window, oldest
// first. Orders without a purchase date are only listed when no window is given.
func (s *orderStore) ListOrders(ctx context.Context, fromDate, toDate *time.Time) ([]*entity.ExtractorData, error) {
	b := s.builder()
	t := b.Table(TableOrders)
	sel := b.Select(t.C("id")).From(t)
	if fromDate != nil {
		sel = sel.Where(entsql.GTE(t.C("date_purchased"), fromDate.UTC()))
	}
	if toDate != nil {
		sel = sel.Where(entsql.LTE(t.C("date_purchased"), toDate.UTC()))
	}
	query, args := sel.OrderBy(t.C("date_purchased"), t.C("id")).Query()

	rows, err := s.db.SQL.QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Error("failed to list orders", "error", err)
		return nil, fmt.Errorf("%w: list orders: %v", common.ErrDatabase, err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("%w: scan order id: %v", common.ErrDatabase, err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list orders: %v", common.ErrDatabase, err)
	}

	out := make([]*entity.ExtractorData, 0, len(ids))
	for _, id := range ids {
		data, err := s.GetOrder(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}
