package extract

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// DefaultIDKey namespaces every content-derived identifier. It is not a secret: anyone
// holding the content can recompute the ids. Changing it changes every id ever produced,
// so rows stored under the old key will no longer match re-extracted documents.
const DefaultIDKey = "this is the password luls"

// Hasher derives identifiers as hex HMAC-SHA256 digests of entity content.
type Hasher struct {
	key []byte
}

// NewHasher returns a Hasher keyed with key; an empty key selects DefaultIDKey.
func NewHasher(key string) *Hasher {
	if key == "" {
		key = DefaultIDKey
	}
	return &Hasher{key: []byte(key)}
}

// Sum hashes the concatenation of parts.
func (h *Hasher) Sum(parts ...string) string {
	mac := hmac.New(sha256.New, h.key)
	for _, p := range parts {
		mac.Write([]byte(p))
	}
	return hex.EncodeToString(mac.Sum(nil))
}

func (h *Hasher) RestaurantID(name string) string {
	return h.Sum(name)
}

// RestaurantItemID depends on the display name only, so the same dish ordered again maps
// to the same item.
func (h *Hasher) RestaurantItemID(name string) string {
	return h.Sum(name)
}

// OrderID hashes the canonical rendering of the whole document.
func (h *Hasher) OrderID(canonicalHTML string) string {
	return h.Sum(canonicalHTML)
}

func (h *Hasher) OrderItemID(orderID, restaurantItemID string) string {
	return h.Sum(orderID, restaurantItemID)
}
