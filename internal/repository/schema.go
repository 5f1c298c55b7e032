package repository

import (
	"context"
	"fmt"
	"strings"

	"entgo.io/ent/dialect"
)

// Table names.
const (
	TableRestaurants     = "restaurants"
	TableRestaurantItems = "restaurant_items"
	TableOrders          = "orders"
	TableOrderItems      = "order_items"
)

type columnKind int

const (
	kindID columnKind = iota
	kindText
	kindMoney
	kindInteger
	kindBoolean
	kindTimestamp
)

type column struct {
	name     string
	kind     columnKind
	nullable bool
	def      string
}

type foreignKey struct {
	column, refTable, onDelete string
}

type tableDef struct {
	name    string
	columns []column
	fks     []foreignKey
}

// tables lists the entity tables in creation order; referenced tables come first.
var tables = []tableDef{
	{
		name: TableRestaurants,
		columns: []column{
			{name: "id", kind: kindID},
			{name: "name", kind: kindText},
		},
	},
	{
		name: TableRestaurantItems,
		columns: []column{
			{name: "id", kind: kindID},
			{name: "restaurant_id", kind: kindID},
			{name: "name", kind: kindText},
			{name: "rating", kind: kindMoney, def: "0"},
			{name: "is_favorite", kind: kindBoolean, def: "FALSE"},
		},
		fks: []foreignKey{{column: "restaurant_id", refTable: TableRestaurants}},
	},
	{
		name: TableOrders,
		columns: []column{
			{name: "id", kind: kindID},
			{name: "restaurant_id", kind: kindID},
			{name: "date_purchased", kind: kindTimestamp, nullable: true},
			{name: "subtotal", kind: kindMoney},
			{name: "taxes", kind: kindMoney},
			{name: "delivery_fee", kind: kindMoney},
			{name: "service_fee", kind: kindMoney},
			{name: "tip", kind: kindMoney},
			{name: "discounts", kind: kindMoney},
			{name: "total_charged", kind: kindMoney},
			{name: "other_fees", kind: kindMoney, nullable: true},
		},
		fks: []foreignKey{{column: "restaurant_id", refTable: TableRestaurants}},
	},
	{
		name: TableOrderItems,
		columns: []column{
			{name: "id", kind: kindID},
			{name: "order_id", kind: kindID},
			{name: "restaurant_item_id", kind: kindID},
			{name: "position", kind: kindInteger},
			{name: "price_per_item", kind: kindMoney},
			{name: "quantity", kind: kindInteger},
			{name: "total_charged", kind: kindMoney},
			{name: "special_request", kind: kindText, def: "''"},
		},
		fks: []foreignKey{
			{column: "order_id", refTable: TableOrders, onDelete: "CASCADE"},
			{column: "restaurant_item_id", refTable: TableRestaurantItems},
		},
	},
}

func columnType(d string, k columnKind) string {
	switch k {
	case kindID:
		return "varchar(64)"
	case kindText:
		return "text"
	case kindMoney:
		return "double precision"
	case kindInteger:
		return "integer"
	case kindBoolean:
		return "boolean"
	case kindTimestamp:
		if d == dialect.SQLite {
			// modernc decodes time values only for DATE/DATETIME/TIMESTAMP declared columns.
			return "datetime"
		}
		return "timestamp with time zone"
	}
	return "text"
}

func quote(ident string) string {
	return `"` + ident + `"`
}

// createTableSQL renders an idempotent CREATE TABLE statement. Double-quoted identifiers
// and the column types above are accepted by both Postgres and SQLite.
func createTableSQL(d string, t tableDef) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (", quote(t.name))
	for i, c := range t.columns {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s %s", quote(c.name), columnType(d, c.kind))
		if !c.nullable {
			b.WriteString(" NOT NULL")
		}
		if c.def != "" {
			b.WriteString(" DEFAULT " + c.def)
		}
	}
	b.WriteString(", PRIMARY KEY (" + quote("id") + ")")
	for _, fk := range t.fks {
		fmt.Fprintf(&b, ", FOREIGN KEY (%s) REFERENCES %s (%s)", quote(fk.column), quote(fk.refTable), quote("id"))
		if fk.onDelete != "" {
			b.WriteString(" ON DELETE " + fk.onDelete)
		}
	}
	b.WriteString(")")
	return b.String()
}

// Migrate creates the four entity tables when they do not exist yet.
func (db *DB) Migrate(ctx context.Context) error {
	tx, err := db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	for _, t := range tables {
		if _, err := tx.ExecContext(ctx, createTableSQL(db.Dialect, t)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("create table %s: %w", t.name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}
