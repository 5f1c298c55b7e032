package entity

// Restaurant is the merchant a receipt was issued by.
type Restaurant struct {
	ID   string `json:"id" validate:"required,len=64,hexadecimal"`
	Name string `json:"name" validate:"required"`
}

// RestaurantItem is a menu item seen on a receipt. Rating and IsFavorite are owned by
// downstream consumers; extraction always emits the zero values.
type RestaurantItem struct {
	ID           string  `json:"id" validate:"required,len=64,hexadecimal"`
	RestaurantID string  `json:"restaurant_id" validate:"required,len=64,hexadecimal"`
	Name         string  `json:"name"`
	Rating       float64 `json:"rating"`
	IsFavorite   bool    `json:"is_favorite"`
}
