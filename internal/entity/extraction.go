package entity

// ExtractorData is the full entity graph produced from one receipt document.
// RestaurantItems[i] and OrderItems[i] come from the same receipt row.
type ExtractorData struct {
	Order           Order            `json:"order"`
	OrderItems      []OrderItem      `json:"orderItems" validate:"dive"`
	Restaurant      Restaurant       `json:"restaurant"`
	RestaurantItems []RestaurantItem `json:"restaurantItems" validate:"dive"`
}
