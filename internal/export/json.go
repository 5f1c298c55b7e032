package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/order-extractor/constants"
	"github.com/joseph-ayodele/order-extractor/internal/entity"
)

var hexID = map[string]any{"type": "string", "pattern": "^[0-9a-f]{64}$"}

func object(required []string, props map[string]any) map[string]any {
	return map[string]any{"type": "object", "required": required, "properties": props}
}

func money() map[string]any { return map[string]any{"type": "number"} }

// ExtractionSchema describes the JSON encoding of entity.ExtractorData.
func ExtractionSchema() map[string]any {
	order := object(
		[]string{"id", "restaurant_id", "subtotal", "taxes", "delivery_fee", "service_fee", "tip", "discounts", "total_charged"},
		map[string]any{
			"id":             hexID,
			"restaurant_id":  hexID,
			"date_purchased": map[string]any{"type": []any{"string", "null"}, "format": "date-time"},
			"subtotal":       money(),
			"taxes":          money(),
			"delivery_fee":   money(),
			"service_fee":    money(),
			"tip":            money(),
			"discounts":      money(),
			"total_charged":  money(),
			"other_fees":     money(),
		},
	)
	orderItem := object(
		[]string{"id", "order_id", "restaurant_item_id", "price_per_item", "quantity", "total_charged", "special_request"},
		map[string]any{
			"id":                 hexID,
			"order_id":           hexID,
			"restaurant_item_id": hexID,
			"price_per_item":     money(),
			"quantity":           map[string]any{"type": "integer"},
			"total_charged":      money(),
			"special_request":    map[string]any{"type": "string"},
		},
	)
	restaurant := object([]string{"id", "name"}, map[string]any{
		"id":   hexID,
		"name": map[string]any{"type": "string", "minLength": 1},
	})
	restaurantItem := object(
		[]string{"id", "restaurant_id", "name", "rating", "is_favorite"},
		map[string]any{
			"id":            hexID,
			"restaurant_id": hexID,
			"name":          map[string]any{"type": "string"},
			"rating":        money(),
			"is_favorite":   map[string]any{"type": "boolean"},
		},
	)
	return object(
		[]string{"order", "orderItems", "restaurant", "restaurantItems"},
		map[string]any{
			"order":           order,
			"orderItems":      map[string]any{"type": "array", "items": orderItem},
			"restaurant":      restaurant,
			"restaurantItems": map[string]any{"type": "array", "items": restaurantItem},
		},
	)
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// JSONWriter dumps extraction results as indented JSON files, one per message.
type JSONWriter struct {
	dir    string
	schema map[string]any
	logger *slog.Logger
}

func NewJSONWriter(dir string, logger *slog.Logger) *JSONWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONWriter{dir: dir, schema: ExtractionSchema(), logger: logger}
}

// Encode marshals data and checks it against ExtractionSchema.
func (w *JSONWriter) Encode(data *entity.ExtractorData) ([]byte, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal extraction: %w", err)
	}
	if err := ValidateJSONAgainstSchema(w.schema, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Write stores data as message-<id>.json in the writer's directory and returns the path.
func (w *JSONWriter) Write(messageID string, data *entity.ExtractorData) (string, error) {
	b, err := w.Encode(data)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(w.dir, constants.JSONDumpName(messageID))
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	w.logger.Debug("extraction dumped", "path", path)
	return path, nil
}
