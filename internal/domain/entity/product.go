package entity

import (
	"math"
	"time"
)

const (
	ProductStatusActive   = "active"
	ProductStatusSold     = "sold"
	ProductStatusPending  = "pending"
	ProductStatusInactive = "inactive"
)

const (
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortPopular   = "popular"
)

var ProductCategories = []string{
	"Electronics", "Fashion", "Home & Garden", "Sports", "Books", "Vehicles", "Other",
}

var ProductConditions = []string{
	"New", "Like New", "Excellent", "Good", "Fair", "Poor",
}

var DeliveryOptions = []string{"pickup", "delivery", "shipping"}

type Product struct {
	ID              string            `json:"id" firestore:"id"`
	SellerID        string            `json:"seller_id" firestore:"sellerId"`
	Title           string            `json:"title" firestore:"title"`
	Description     string            `json:"description" firestore:"description"`
	Price           float64           `json:"price" firestore:"price"`
	OriginalPrice   *float64          `json:"original_price,omitempty" firestore:"originalPrice,omitempty"`
	Category        string            `json:"category" firestore:"category"`
	Condition       string            `json:"condition" firestore:"condition"`
	Images          []string          `json:"images" firestore:"images"`
	Location        string            `json:"location" firestore:"location"`
	Status          string            `json:"status" firestore:"status"`
	Views           int               `json:"views" firestore:"views"`
	Favorites       []string          `json:"favorites" firestore:"favorites"`
	Tags            []string          `json:"tags" firestore:"tags"`
	Specifications  map[string]string `json:"specifications,omitempty" firestore:"specifications,omitempty"`
	Negotiable      bool              `json:"negotiable" firestore:"negotiable"`
	DeliveryOptions []string          `json:"delivery_options" firestore:"deliveryOptions"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

// DiscountPercentage is derived from the original price and never stored.
func (p *Product) DiscountPercentage() int {
	if p.OriginalPrice == nil || *p.OriginalPrice <= 0 || *p.OriginalPrice <= p.Price {
		return 0
	}
	return int(math.Round((*p.OriginalPrice - p.Price) / *p.OriginalPrice * 100))
}

func (p *Product) IsFavoritedBy(userID string) bool {
	for _, id := range p.Favorites {
		if id == userID {
			return true
		}
	}
	return false
}

func (p *Product) MainImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

type ProductSummary struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Image  string  `json:"image,omitempty"`
	Price  float64 `json:"price"`
	Status string  `json:"status"`
}

func (p *Product) Summary() *ProductSummary {
	if p == nil {
		return nil
	}
	return &ProductSummary{
		ID:     p.ID,
		Title:  p.Title,
		Image:  p.MainImage(),
		Price:  p.Price,
		Status: p.Status,
	}
}

// ProductFilter narrows product listings. Zero values mean "no constraint".
type ProductFilter struct {
	Search    string
	Category  string
	Condition string
	MinPrice  *float64
	MaxPrice  *float64
	Status    string
	SortBy    string
	Limit     int
	Offset    int
}

// ProductView is a product as returned to clients: the stored listing plus
// derived fields and the seller's public summary.
type ProductView struct {
	*Product
	DiscountPercentage int          `json:"discount_percentage"`
	FavoritesCount     int          `json:"favorites_count"`
	Seller             *UserSummary `json:"seller,omitempty"`
}

func NewProductView(p *Product, seller *User) *ProductView {
	return &ProductView{
		Product:            p,
		DiscountPercentage: p.DiscountPercentage(),
		FavoritesCount:     len(p.Favorites),
		Seller:             seller.Summary(),
	}
}
