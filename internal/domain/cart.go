package domain

// CartItem is a product line in a cart. Quantity is a pointer so that a
// missing quantity survives a serialization round trip distinct from zero.
type CartItem struct {
	ID          string  `json:"_id" bson:"_id"`
	Name        string  `json:"name" bson:"name"`
	Description string  `json:"description,omitempty" bson:"description,omitempty"`
	Slug        string  `json:"slug,omitempty" bson:"slug,omitempty"`
	Price       float64 `json:"price" bson:"price"`
	Quantity    *int    `json:"quantity,omitempty" bson:"quantity,omitempty"`
}

// Units is the quantity used for pricing: an absent quantity counts as one.
func (i CartItem) Units() int {
	if i.Quantity == nil {
		return 1
	}
	return *i.Quantity
}

func Quantity(n int) *int {
	return &n
}
