package utils

import (
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/order-extractor/internal/entity"
)

// ToPBExtraction converts an extraction to a protobuf Struct using its JSON field names.
func ToPBExtraction(d *entity.ExtractorData) (*structpb.Struct, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal extraction: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("unmarshal extraction: %w", err)
	}
	return structpb.NewStruct(m)
}

// FromPBExtraction is the inverse of ToPBExtraction.
func FromPBExtraction(s *structpb.Struct) (*entity.ExtractorData, error) {
	b, err := s.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal struct: %w", err)
	}
	var d entity.ExtractorData
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("unmarshal extraction: %w", err)
	}
	return &d, nil
}

// StringField returns the string at key, or "" when absent or not a string.
func StringField(s *structpb.Struct, key string) string {
	v, ok := s.GetFields()[key]
	if !ok {
		return ""
	}
	return v.GetStringValue()
}

// BoolField returns the bool at key, or false when absent.
func BoolField(s *structpb.Struct, key string) bool {
	v, ok := s.GetFields()[key]
	if !ok {
		return false
	}
	return v.GetBoolValue()
}

// Int64Field returns the number at key truncated to int64, or nil when absent or null.
func Int64Field(s *structpb.Struct, key string) (*int64, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return nil, nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return nil, nil
	case *structpb.Value_NumberValue:
		n := int64(k.NumberValue)
		return &n, nil
	default:
		return nil, fmt.Errorf("%s must be a number", key)
	}
}

func ParseYMD(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	// strip time to midnight UTC to match DATE semantics
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}
