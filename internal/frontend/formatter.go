package frontend

import (
	"fmt"
	"strings"

	"github.com/barradesonido/bsops/internal/logging"
	"github.com/barradesonido/bsops/pkg/models"
)

const (
	defaultImageURL = "/assets/images/no-product-image.jpg"
	defaultImageAlt = "Imagen no disponible"

	// Affiliate tracking appended to Amazon URLs that carry none.
	trackingParams = "tag=defaulttag-21&linkCode=osi"

	maxTitleLength     = 80
	maxVisibleFeatures = 3
)

// PriceInfo is the storefront view of a product's price.
type PriceInfo struct {
	CurrentPrice       float64 `json:"current_price,omitempty"`
	DisplayPrice       string  `json:"display_price"`
	OriginalPrice      float64 `json:"original_price,omitempty"`
	DiscountAmount     float64 `json:"discount_amount,omitempty"`
	DiscountPercentage int     `json:"discount_percentage,omitempty"`
	DiscountDisplay    string  `json:"discount_display,omitempty"`
	FreeShipping       bool    `json:"free_shipping"`
	Currency           string  `json:"currency"`
}

// FeatureSplit divides features into the part shown up front and the rest
// behind a "see more" toggle.
type FeatureSplit struct {
	Visible    []string `json:"visible"`
	Hidden     []string `json:"hidden"`
	TotalCount int      `json:"total_count"`
	HasMore    bool     `json:"has_more"`
}

// ImageInfo is the storefront view of a product image.
type ImageInfo struct {
	URL    string `json:"url"`
	Alt    string `json:"alt"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// RankingInfo is the storefront view of a product's category ranking.
type RankingInfo struct {
	Category        string `json:"category"`
	SalesRank       int    `json:"sales_rank,omitempty"`
	CategoryDisplay string `json:"category_display"`
}

// DisplayProduct is a fully formatted ranking entry ready for rendering.
type DisplayProduct struct {
	Position     int          `json:"position"`
	ASIN         string       `json:"asin"`
	Title        string       `json:"title"`
	FullTitle    string       `json:"full_title"`
	Slug         string       `json:"slug"`
	Brand        string       `json:"brand"`
	AmazonURL    string       `json:"amazon_url"`
	Image        ImageInfo    `json:"image"`
	Price        PriceInfo    `json:"price"`
	Features     FeatureSplit `json:"features"`
	Rating       Rating       `json:"rating"`
	RankingInfo  RankingInfo  `json:"ranking_info"`
}

// Formatter turns catalog entities into storefront display structures.
type Formatter struct {
	log logging.Logger
}

// NewFormatter creates a Formatter. A nil logger is replaced with a Nop.
func NewFormatter(log logging.Logger) *Formatter {
	if log == nil {
		log = logging.Nop()
	}
	return &Formatter{log: log}
}

// FormatProduct builds the complete display entry for a product at a given
// ranking position.
func (f *Formatter) FormatProduct(p *models.Product, position int, rating Rating) DisplayProduct {
	return DisplayProduct{
		Position:    position,
		ASIN:        p.ASIN,
		Title:       f.FormatTitle(p.Title, maxTitleLength),
		FullTitle:   p.Title,
		Slug:        p.Slug,
		Brand:       p.Brand,
		AmazonURL:   f.FormatAmazonURL(p.AmazonURL),
		Image:       f.PrimaryImage(p),
		Price:       f.PriceInfo(p),
		Features:    f.FormatFeatures(p.Features, maxVisibleFeatures),
		Rating:      rating,
		RankingInfo: f.RankingInfo(p),
	}
}

// PriceInfo extracts the first active positive price, including discount
// details when a saving is recorded.
func (f *Formatter) PriceInfo(p *models.Product) PriceInfo {
	info := PriceInfo{
		DisplayPrice: "Precio no disponible",
		Currency:     "EUR",
	}

	for _, price := range p.ActivePrices() {
		if price.Amount <= 0 {
			continue
		}

		info.CurrentPrice = price.Amount
		info.Currency = price.Currency
		info.FreeShipping = price.IsFreeShipping
		info.DisplayPrice = price.DisplayAmount
		if info.DisplayPrice == "" {
			info.DisplayPrice = formatAmount(price.Amount, price.Currency)
		}

		if price.SavingsAmount > 0 {
			info.DiscountAmount = price.SavingsAmount
			info.DiscountPercentage = price.SavingsPercentage
			info.DiscountDisplay = price.SavingsDisplay
			info.OriginalPrice = price.Amount + price.SavingsAmount
		}
		break
	}

	return info
}

// FormatFeatures drops blank entries and splits the rest into visible and
// hidden halves at maxVisible.
func (f *Formatter) FormatFeatures(features []string, maxVisible int) FeatureSplit {
	clean := make([]string, 0, len(features))
	for _, feat := range features {
		if strings.TrimSpace(feat) != "" {
			clean = append(clean, feat)
		}
	}

	split := FeatureSplit{
		Visible:    clean,
		Hidden:     []string{},
		TotalCount: len(clean),
	}
	if len(clean) > maxVisible {
		split.Visible = clean[:maxVisible]
		split.Hidden = clean[maxVisible:]
		split.HasMore = true
	}
	return split
}

// PrimaryImage picks the active primary image, falls back to the first
// active one, and finally to the placeholder asset.
func (f *Formatter) PrimaryImage(p *models.Product) ImageInfo {
	active := p.ActiveImages()

	for _, img := range active {
		if img.IsPrimary && img.URL != "" {
			return imageInfo(img, p.Title)
		}
	}
	for _, img := range active {
		if img.URL != "" {
			return imageInfo(img, p.Title)
		}
	}

	return ImageInfo{
		URL:    defaultImageURL,
		Alt:    defaultImageAlt,
		Width:  500,
		Height: 500,
	}
}

// FormatTitle trims the title and truncates it to maxLength with an ellipsis.
func (f *Formatter) FormatTitle(title string, maxLength int) string {
	clean := strings.TrimSpace(title)
	runes := []rune(clean)
	if len(runes) <= maxLength {
		return clean
	}
	return string(runes[:maxLength-3]) + "..."
}

// FormatAmazonURL appends the default affiliate tracking when the URL has no
// tag parameter yet.
func (f *Formatter) FormatAmazonURL(amazonURL string) string {
	if strings.Contains(amazonURL, "tag=") {
		return amazonURL
	}

	separator := "?"
	if strings.Contains(amazonURL, "?") {
		separator = "&"
	}
	return amazonURL + separator + trackingParams
}

// RankingInfo extracts the first active ranking, defaulting to "General".
func (f *Formatter) RankingInfo(p *models.Product) RankingInfo {
	for _, rk := range p.ActiveRankings() {
		display := rk.ContextFreeName
		if display == "" {
			display = rk.CategoryName
		}
		return RankingInfo{
			Category:        rk.CategoryName,
			SalesRank:       rk.SalesRank,
			CategoryDisplay: display,
		}
	}
	return RankingInfo{Category: "General", CategoryDisplay: "General"}
}

func imageInfo(img models.ProductImage, alt string) ImageInfo {
	return ImageInfo{URL: img.URL, Alt: alt, Width: img.Width, Height: img.Height}
}

// formatAmount renders a price the Spanish way for EUR, the American way for
// USD.
func formatAmount(amount float64, currency string) string {
	switch currency {
	case "EUR":
		return spanishNumber(amount) + " €"
	case "USD":
		return "$" + fmt.Sprintf("%.2f", amount)
	default:
		return spanishNumber(amount) + " " + currency
	}
}

// spanishNumber formats with comma decimals and dot thousand separators.
func spanishNumber(amount float64) string {
	s := fmt.Sprintf("%.2f", amount)
	parts := strings.SplitN(s, ".", 2)

	intPart := parts[0]
	var grouped strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 && r != '-' {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(r)
	}
	return grouped.String() + "," + parts[1]
}
