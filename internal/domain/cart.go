package domain

import "time"

// CartLine is a menu item snapshot plus a quantity. Every line in a cart
// belongs to the same canteen; the cart service enforces that on add.
type CartLine struct {
	ItemID    string    `bson:"item_id" json:"item_id"`
	Name      string    `bson:"name" json:"name"`
	Price     float64   `bson:"price" json:"price"`
	CanteenID string    `bson:"canteen_id" json:"canteen_id"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	AddedAt   time.Time `bson:"added_at" json:"added_at"`
}

// Cart is keyed by the client session, not the user identity. It survives
// restarts but is cleared on sign-out or when the customer switches canteens.
type Cart struct {
	ID        string     `bson:"_id,omitempty" json:"-"`
	SessionID string     `bson:"session_id" json:"session_id"`
	Lines     []CartLine `bson:"lines" json:"lines"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}

// CanteenID returns the canteen all lines belong to, or "" for an empty cart.
func (c *Cart) CanteenID() string {
	if len(c.Lines) == 0 {
		return ""
	}
	return c.Lines[0].CanteenID
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Total is the sum of price x quantity across all lines.
func (c *Cart) Total() float64 {
	var total float64
	for _, l := range c.Lines {
		total += l.Price * float64(l.Quantity)
	}
	return total
}
