package listings

import (
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("listing not found")
	ErrForbidden = errors.New("listing belongs to another user")
)

type Listing struct {
	ID             string    `json:"id"`
	Slug           string    `json:"slug"`
	OwnerID        string    `json:"owner_id"`
	Kind           string    `json:"kind"`
	Status         string    `json:"status"`
	ISBN           string    `json:"isbn"`
	Title          string    `json:"title"`
	Author         string    `json:"author"`
	Price          float64   `json:"price"`
	Condition      string    `json:"condition"`
	Category       string    `json:"category"`
	Description    string    `json:"description,omitempty"`
	PublishedYear  *int      `json:"published_year,omitempty"`
	Language       string    `json:"language,omitempty"`
	PageCount      *int      `json:"page_count,omitempty"`
	Images         []string  `json:"images"`
	DeliveryMethod string    `json:"delivery_method"`
	City           string    `json:"city"`
	State          string    `json:"state"`
	ZipCode        string    `json:"zip_code"`
	Address        string    `json:"-"`
	Latitude       *float64  `json:"latitude,omitempty"`
	Longitude      *float64  `json:"longitude,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	URL            string    `json:"url"`
}

// ListFilter drives List. Zero values mean "no filter".
type ListFilter struct {
	Query     string
	Kind      string
	Category  string
	Condition string
	MinPrice  *float64
	MaxPrice  *float64
	OwnerID   string
	Limit     int
	Offset    int
}
