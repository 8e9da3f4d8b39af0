package domain

import "time"

type OrderCreatedEvent struct {
	OrderID      string    `json:"order_id"`
	BuyerID      string    `json:"buyer_id"`
	Amount       string    `json:"amount"`
	ProductCount int       `json:"product_count"`
	Timestamp    time.Time `json:"timestamp"`
}
