package entity

import "time"

// Order represents one receipt's summary for data transfer between layers.
type Order struct {
	ID            string     `json:"id" validate:"required,len=64,hexadecimal"`
	RestaurantID  string     `json:"restaurant_id" validate:"required,len=64,hexadecimal"`
	DatePurchased *time.Time `json:"date_purchased"`
	Subtotal      float64    `json:"subtotal"`
	Taxes         float64    `json:"taxes"`
	DeliveryFee   float64    `json:"delivery_fee"`
	ServiceFee    float64    `json:"service_fee"`
	Tip           float64    `json:"tip"`
	Discounts     float64    `json:"discounts"`
	TotalCharged  float64    `json:"total_charged"`
	OtherFees     *float64   `json:"other_fees,omitempty"`
}

// OrderItem is one purchased line of an Order.
type OrderItem struct {
	ID               string  `json:"id" validate:"required,len=64,hexadecimal"`
	OrderID          string  `json:"order_id" validate:"required,len=64,hexadecimal"`
	RestaurantItemID string  `json:"restaurant_item_id" validate:"required,len=64,hexadecimal"`
	PricePerItem     float64 `json:"price_per_item"`
	Quantity         int     `json:"quantity"`
	TotalCharged     float64 `json:"total_charged"`
	SpecialRequest   string  `json:"special_request"`
}
