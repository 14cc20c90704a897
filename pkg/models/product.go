package models

import "time"

// Product is the persisted catalog entity. Children are owned exclusively by
// their parent and are fully replaced (never diffed) on import or edit.
type Product struct {
	ID           string                 `json:"id"`
	ASIN         string                 `json:"asin"`
	Title        string                 `json:"title"`
	Slug         string                 `json:"slug"`
	Brand        string                 `json:"brand"`
	Manufacturer string                 `json:"manufacturer,omitempty"`
	AmazonURL    string                 `json:"amazon_url"`
	Features     []string               `json:"features"`
	SourceData   map[string]interface{} `json:"source_data,omitempty"`
	IsActive     bool                   `json:"is_active"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`

	Images   []ProductImage   `json:"images"`
	Prices   []ProductPrice   `json:"prices"`
	Rankings []ProductRanking `json:"rankings"`
}

// ProductImage is one stored product image row.
type ProductImage struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	URL       string    `json:"url"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Type      string    `json:"type"`
	IsPrimary bool      `json:"is_primary"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// ProductPrice is one stored offer listing row.
type ProductPrice struct {
	ID                string    `json:"id"`
	ProductID         string    `json:"product_id"`
	ListingID         string    `json:"listing_id"`
	Amount            float64   `json:"amount"`
	Currency          string    `json:"currency"`
	DisplayAmount     string    `json:"display_amount"`
	SavingsAmount     float64   `json:"savings_amount,omitempty"`
	SavingsDisplay    string    `json:"savings_display,omitempty"`
	SavingsPercentage int       `json:"savings_percentage,omitempty"`
	IsFreeShipping    bool      `json:"is_free_shipping"`
	ViolatesMAP       bool      `json:"violates_map"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
}

// ProductRanking is one stored browse node rank row.
type ProductRanking struct {
	ID              string    `json:"id"`
	ProductID       string    `json:"product_id"`
	CategoryID      string    `json:"category_id"`
	CategoryName    string    `json:"category_name"`
	ContextFreeName string    `json:"context_free_name,omitempty"`
	SalesRank       int       `json:"sales_rank"`
	IsRoot          bool      `json:"is_root"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}

// ActiveImages returns the active image rows in stored order.
func (p *Product) ActiveImages() []ProductImage {
	out := make([]ProductImage, 0, len(p.Images))
	for _, img := range p.Images {
		if img.IsActive {
			out = append(out, img)
		}
	}
	return out
}

// ActivePrices returns the active price rows in stored order.
func (p *Product) ActivePrices() []ProductPrice {
	out := make([]ProductPrice, 0, len(p.Prices))
	for _, pr := range p.Prices {
		if pr.IsActive {
			out = append(out, pr)
		}
	}
	return out
}

// ActiveRankings returns the active ranking rows in stored order.
func (p *Product) ActiveRankings() []ProductRanking {
	out := make([]ProductRanking, 0, len(p.Rankings))
	for _, r := range p.Rankings {
		if r.IsActive {
			out = append(out, r)
		}
	}
	return out
}
