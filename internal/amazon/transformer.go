package amazon

import (
	"github.com/barradesonido/bsops/internal/logging"
	"github.com/barradesonido/bsops/pkg/models"
)

// Fallbacks used when a synthesized skeleton document lacks browse node data.
const (
	FallbackCategoryID   = "1384102031"
	FallbackCategoryName = "Barras de sonido"
	fallbackSalesRank    = 1
)

const localeES = "es_ES"

// requiredItemPaths are the fields every incoming item must carry. Anything
// else is optional and defaults during extraction.
var requiredItemPaths = []string{
	"ASIN",
	"ItemInfo.Title.DisplayValue",
	"ItemInfo.ByLineInfo.Brand.DisplayValue",
	"DetailPageURL",
}

// Transformer converts single Amazon-shaped items to normalized product
// records and back. The reverse direction overlays current field values onto
// the preserved original document so unmodeled fields survive the round trip.
type Transformer struct {
	log logging.Logger
}

// NewTransformer creates a Transformer. A nil logger is replaced with a Nop.
func NewTransformer(log logging.Logger) *Transformer {
	if log == nil {
		log = logging.Nop()
	}
	return &Transformer{log: log}
}

// Transform validates and converts one raw item into a ProductRecord.
func (t *Transformer) Transform(item Document) (models.ProductRecord, error) {
	if err := t.validateItem(item); err != nil {
		return models.ProductRecord{}, err
	}

	rec, err := models.NewProductRecord(models.ProductRecord{
		ASIN:          GetString(item, "ASIN"),
		Title:         GetString(item, "ItemInfo.Title.DisplayValue"),
		Brand:         GetString(item, "ItemInfo.ByLineInfo.Brand.DisplayValue"),
		Manufacturer:  GetString(item, "ItemInfo.ByLineInfo.Manufacturer.DisplayValue"),
		DetailPageURL: GetString(item, "DetailPageURL"),
		Features:      extractFeatures(item),
		Images:        extractImages(item),
		Prices:        extractPrices(item),
		Rankings:      extractRankings(item),
		RawDocument:   item,
	})
	if err != nil {
		return models.ProductRecord{}, NewValidationError(GetString(item, "ASIN"), "%v", err)
	}

	return rec, nil
}

func (t *Transformer) validateItem(item Document) error {
	for _, path := range requiredItemPaths {
		if !Has(item, path) {
			return NewValidationError(GetString(item, "ASIN"), "required field missing: %s", path)
		}
	}
	return nil
}

// ReverseTransform rebuilds an Amazon-shaped item from a record. It starts
// from the preserved original document (or a synthesized skeleton) and
// overlays the current field values.
func (t *Transformer) ReverseTransform(rec models.ProductRecord) (Document, error) {
	if err := validateForExport(rec); err != nil {
		return nil, err
	}

	out := Clone(rec.RawDocument)

	SetPath(out, "ASIN", rec.ASIN)
	SetPath(out, "DetailPageURL", rec.DetailPageURL)
	t.overlayItemInfo(out, rec)

	if len(rec.Prices) > 0 {
		SetPath(out, "Offers.Listings.0", buildListing(out, rec.Prices[0]))
	}

	if img, ok := rec.PrimaryImage(); ok {
		SetPath(out, "Images.Primary.Large", Document{
			"URL":    img.URL,
			"Width":  img.Width,
			"Height": img.Height,
		})
	}

	if len(rec.Rankings) > 0 {
		SetPath(out, "BrowseNodeInfo.BrowseNodes.0", buildBrowseNode(rec.Rankings[0]))
	}

	ensureRequiredPaths(out)

	return out, nil
}

// overlayItemInfo writes title, brand, manufacturer and features into the
// nested ItemInfo blocks, tagging each with its display label and locale.
// Manufacturer and features only overwrite blocks the original document had.
func (t *Transformer) overlayItemInfo(out Document, rec models.ProductRecord) {
	SetPath(out, "ItemInfo.Title.DisplayValue", rec.Title)
	SetPath(out, "ItemInfo.Title.Label", "Title")
	SetPath(out, "ItemInfo.Title.Locale", localeES)

	SetPath(out, "ItemInfo.ByLineInfo.Brand.DisplayValue", rec.Brand)
	SetPath(out, "ItemInfo.ByLineInfo.Brand.Label", "Brand")
	SetPath(out, "ItemInfo.ByLineInfo.Brand.Locale", localeES)

	if _, ok := GetPath(out, "ItemInfo.ByLineInfo.Manufacturer"); ok {
		SetPath(out, "ItemInfo.ByLineInfo.Manufacturer.DisplayValue", rec.Manufacturer)
		SetPath(out, "ItemInfo.ByLineInfo.Manufacturer.Label", "Manufacturer")
		SetPath(out, "ItemInfo.ByLineInfo.Manufacturer.Locale", localeES)
	}

	if _, ok := GetPath(out, "ItemInfo.Features"); ok {
		values := make([]interface{}, len(rec.Features))
		for i, f := range rec.Features {
			values[i] = f
		}
		SetPath(out, "ItemInfo.Features.DisplayValues", values)
		SetPath(out, "ItemInfo.Features.Label", "Features")
		SetPath(out, "ItemInfo.Features.Locale", localeES)
	}
}

func validateForExport(rec models.ProductRecord) error {
	required := map[string]string{
		"asin":          rec.ASIN,
		"title":         rec.Title,
		"brand":         rec.Brand,
		"detailPageUrl": rec.DetailPageURL,
	}
	for _, field := range []string{"asin", "title", "brand", "detailPageUrl"} {
		if required[field] == "" {
			return NewValidationError(rec.ASIN, "required field missing for export: %s", field)
		}
	}
	if len(rec.RawDocument) == 0 {
		return NewValidationError(rec.ASIN, "original source document not available for export")
	}
	return nil
}

// buildListing replaces the first offer listing wholesale, keeping the
// original listing Id when the source document had one.
func buildListing(original Document, price models.PriceRecord) Document {
	id := GetString(original, "Offers.Listings.0.Id")
	if id == "" {
		id = price.ListingID
	}

	priceBlock := Document{
		"Amount":        price.Amount,
		"Currency":      price.Currency,
		"DisplayAmount": price.DisplayAmount,
	}
	if price.SavingsAmount > 0 {
		priceBlock["Savings"] = Document{
			"Amount":        price.SavingsAmount,
			"Currency":      price.Currency,
			"DisplayAmount": price.SavingsDisplay,
			"Percentage":    price.SavingsPercentage,
		}
	}

	return Document{
		"Id":    id,
		"Price": priceBlock,
		"DeliveryInfo": Document{
			"IsFreeShippingEligible": price.IsFreeShipping,
		},
		"ViolatesMAP": price.ViolatesMAP,
	}
}

// buildBrowseNode replaces the first browse node wholesale. Skeleton
// documents have no node data, so missing sub-fields fall back to the
// soundbar category defaults.
func buildBrowseNode(ranking models.RankingRecord) Document {
	categoryID := ranking.CategoryID
	if categoryID == "" {
		categoryID = FallbackCategoryID
	}
	categoryName := ranking.CategoryName
	if categoryName == "" {
		categoryName = FallbackCategoryName
	}
	contextFree := ranking.ContextFreeName
	if contextFree == "" {
		contextFree = FallbackCategoryName
	}
	salesRank := ranking.SalesRank
	if salesRank <= 0 {
		salesRank = fallbackSalesRank
	}

	return Document{
		"ContextFreeName": contextFree,
		"DisplayName":     categoryName,
		"Id":              categoryID,
		"IsRoot":          ranking.IsRoot,
		"SalesRank":       salesRank,
	}
}

// ensureRequiredPaths inserts empty defaults for the paths the importer
// itself requires, so every emitted document satisfies the same shape.
func ensureRequiredPaths(doc Document) {
	defaults := []struct {
		path  string
		value interface{}
	}{
		{"ASIN", ""},
		{"DetailPageURL", ""},
		{"ItemInfo.Title.DisplayValue", ""},
		{"ItemInfo.ByLineInfo.Brand.DisplayValue", ""},
		{"Offers.Listings.0.Price.Amount", 0.0},
	}

	for _, d := range defaults {
		if _, ok := GetPath(doc, d.path); !ok {
			SetPath(doc, d.path, d.value)
		}
	}
}

func extractFeatures(item Document) []string {
	v, ok := GetPath(item, "ItemInfo.Features.DisplayValues")
	if !ok {
		return []string{}
	}
	raw, ok := v.([]interface{})
	if !ok {
		return []string{}
	}

	features := make([]string, 0, len(raw))
	for _, f := range raw {
		if s, ok := f.(string); ok {
			features = append(features, s)
		}
	}
	return features
}

func extractImages(item Document) []models.ImageRecord {
	if _, ok := GetPath(item, "Images.Primary.Large"); !ok {
		return nil
	}
	return []models.ImageRecord{{
		URL:       GetString(item, "Images.Primary.Large.URL"),
		Width:     GetInt(item, "Images.Primary.Large.Width"),
		Height:    GetInt(item, "Images.Primary.Large.Height"),
		Type:      "large",
		IsPrimary: true,
	}}
}

func extractPrices(item Document) []models.PriceRecord {
	if _, ok := GetPath(item, "Offers.Listings.0"); !ok {
		return nil
	}
	return []models.PriceRecord{{
		ListingID:         GetString(item, "Offers.Listings.0.Id"),
		Amount:            GetFloat(item, "Offers.Listings.0.Price.Amount"),
		Currency:          GetString(item, "Offers.Listings.0.Price.Currency"),
		DisplayAmount:     GetString(item, "Offers.Listings.0.Price.DisplayAmount"),
		SavingsAmount:     GetFloat(item, "Offers.Listings.0.Price.Savings.Amount"),
		SavingsDisplay:    GetString(item, "Offers.Listings.0.Price.Savings.DisplayAmount"),
		SavingsPercentage: GetInt(item, "Offers.Listings.0.Price.Savings.Percentage"),
		IsFreeShipping:    GetBool(item, "Offers.Listings.0.DeliveryInfo.IsFreeShippingEligible"),
		ViolatesMAP:       GetBool(item, "Offers.Listings.0.ViolatesMAP"),
	}}
}

func extractRankings(item Document) []models.RankingRecord {
	if _, ok := GetPath(item, "BrowseNodeInfo.BrowseNodes.0"); !ok {
		return nil
	}
	return []models.RankingRecord{{
		CategoryID:      GetString(item, "BrowseNodeInfo.BrowseNodes.0.Id"),
		CategoryName:    GetString(item, "BrowseNodeInfo.BrowseNodes.0.DisplayName"),
		ContextFreeName: GetString(item, "BrowseNodeInfo.BrowseNodes.0.ContextFreeName"),
		SalesRank:       GetInt(item, "BrowseNodeInfo.BrowseNodes.0.SalesRank"),
		IsRoot:          GetBool(item, "BrowseNodeInfo.BrowseNodes.0.IsRoot"),
	}}
}
