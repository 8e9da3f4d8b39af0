package domain

import "time"

type OrderStatus string

const (
	OrderStatusNotProcessed OrderStatus = "Not Processed"
	OrderStatusProcessing   OrderStatus = "Processing"
	OrderStatusShipped      OrderStatus = "Shipped"
	OrderStatusDelivered    OrderStatus = "Delivered"
	OrderStatusCancelled    OrderStatus = "Cancelled"
)

// Valid reports whether s is one of the statuses an admin may assign.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusNotProcessed, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// PaymentResult is what the payment gateway reported for a sale. It is stored
// on the order as-is.
type PaymentResult struct {
	Success       bool   `json:"success" bson:"success"`
	Provider      string `json:"provider" bson:"provider"`
	TransactionID string `json:"transactionId" bson:"transactionId"`
	Status        string `json:"status" bson:"status"`
	Amount        string `json:"amount" bson:"amount"`
	Currency      string `json:"currency,omitempty" bson:"currency,omitempty"`
}

type Order struct {
	ID        string        `json:"_id"`
	Products  []CartItem    `json:"products"`
	Buyer     string        `json:"buyer"`
	Payment   PaymentResult `json:"payment"`
	Status    OrderStatus   `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}
