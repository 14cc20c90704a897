package models

import (
	"fmt"
	"net/url"
)

// ImageRecord is one normalized product image. Only the primary large image
// is modeled; thumbnails and variant sets are not extracted.
type ImageRecord struct {
	URL       string `json:"url"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Type      string `json:"type"`
	IsPrimary bool   `json:"is_primary"`
}

// PriceRecord is one normalized offer listing price.
type PriceRecord struct {
	ListingID         string  `json:"listing_id"`
	Amount            float64 `json:"amount"`
	Currency          string  `json:"currency"`
	DisplayAmount     string  `json:"display_amount"`
	SavingsAmount     float64 `json:"savings_amount,omitempty"`
	SavingsDisplay    string  `json:"savings_display,omitempty"`
	SavingsPercentage int     `json:"savings_percentage,omitempty"`
	IsFreeShipping    bool    `json:"is_free_shipping"`
	ViolatesMAP       bool    `json:"violates_map"`
}

// RankingRecord is one normalized browse node sales rank.
type RankingRecord struct {
	CategoryID      string `json:"category_id"`
	CategoryName    string `json:"category_name"`
	ContextFreeName string `json:"context_free_name,omitempty"`
	SalesRank       int    `json:"sales_rank"`
	IsRoot          bool   `json:"is_root"`
}

// ProductRecord is the normalized, validated form of one Amazon catalog item.
// Treat instances as immutable once built; RawDocument keeps the original
// source item verbatim so unmodeled fields survive a round trip.
type ProductRecord struct {
	ASIN          string                 `json:"asin"`
	Title         string                 `json:"title"`
	Brand         string                 `json:"brand"`
	Manufacturer  string                 `json:"manufacturer,omitempty"`
	DetailPageURL string                 `json:"detail_page_url"`
	Features      []string               `json:"features"`
	Images        []ImageRecord          `json:"images"`
	Prices        []PriceRecord          `json:"prices"`
	Rankings      []RankingRecord        `json:"rankings"`
	RawDocument   map[string]interface{} `json:"-"`
}

// NewProductRecord builds a ProductRecord, enforcing the required-field
// invariants. This is the only validation gate before persistence.
func NewProductRecord(r ProductRecord) (ProductRecord, error) {
	if r.ASIN == "" {
		return ProductRecord{}, fmt.Errorf("asin must not be empty")
	}
	if r.Title == "" {
		return ProductRecord{}, fmt.Errorf("title must not be empty")
	}
	if r.Brand == "" {
		return ProductRecord{}, fmt.Errorf("brand must not be empty")
	}
	if r.DetailPageURL == "" {
		return ProductRecord{}, fmt.Errorf("detail page url must not be empty")
	}
	if u, err := url.Parse(r.DetailPageURL); err != nil || u.Scheme == "" || u.Host == "" {
		return ProductRecord{}, fmt.Errorf("detail page url is not a valid URL: %q", r.DetailPageURL)
	}

	if r.Features == nil {
		r.Features = []string{}
	}
	return r, nil
}

// PrimaryImage returns the image marked primary, falling back to the first
// image by convention. The second return is false when there are no images.
func (r ProductRecord) PrimaryImage() (ImageRecord, bool) {
	if len(r.Images) == 0 {
		return ImageRecord{}, false
	}
	for _, img := range r.Images {
		if img.IsPrimary {
			return img, true
		}
	}
	return r.Images[0], true
}
