package domain

import "time"

type Canteen struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MenuItem is read-only from the storefront's perspective; canteen admins
// mutate the catalog elsewhere.
type MenuItem struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	Description string    `json:"description,omitempty"`
	IsAvailable bool      `json:"is_available"`
	CanteenID   string    `json:"canteen_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type Profile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	FullName string `json:"full_name,omitempty"`
}
