package readmodel

import "time"

// Category is a catalog category
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// Product is a catalog entry
type Product struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Image       string  `json:"image,omitempty"`
	CategoryID  string  `json:"categoryId,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
}

// OrderItem is one line of a placed order
type OrderItem struct {
	ProductID string  `json:"productId"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image,omitempty"`
}

// Order is stored under orders/<localUserId>/<generatedId>
type Order struct {
	ID            string      `json:"id,omitempty"`
	Reference     string      `json:"reference"`
	Items         []OrderItem `json:"items"`
	TotalAmount   float64     `json:"totalAmount"`
	TotalQuantity int         `json:"totalQuantity"`
	Status        string      `json:"status"`
	CreatedAt     time.Time   `json:"createdAt"`
}

const OrderStatusPlaced = "placed"

// Profile holds the free-form personal fields kept under users/<localUserId>
type Profile struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Address     string `json:"address,omitempty"`
	Bio         string `json:"bio,omitempty"`
	Occupation  string `json:"occupation,omitempty"`
	Website     string `json:"website,omitempty"`
}

// Store is a physical shop returned by the store locator
type Store struct {
	PlaceID   string  `json:"place_id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Rating    float32 `json:"rating,omitempty"`
	OpenNow   *bool   `json:"open_now,omitempty"`
}
