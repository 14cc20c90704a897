package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/barradesonido/bsops/internal/amazon"
	"github.com/barradesonido/bsops/internal/database"
	"github.com/barradesonido/bsops/internal/logging"
	"github.com/barradesonido/bsops/pkg/models"
)

// Error is a structural import failure: malformed JSON, a broken envelope or
// a storage failure. Per-item validation problems never surface as Error;
// they are collected in the ImportResult instead.
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Importer consumes a full Amazon search-result document and persists its
// items as catalog products.
type Importer struct {
	repo      database.ProductRepository
	processor *amazon.Processor
	log       logging.Logger

	// Progress, when set, is called after each processed item.
	Progress func(done, total int)
}

// New creates an Importer. A nil logger is replaced with a Nop.
func New(repo database.ProductRepository, processor *amazon.Processor, log logging.Logger) *Importer {
	if log == nil {
		log = logging.Nop()
	}
	return &Importer{repo: repo, processor: processor, log: log}
}

// ImportProducts parses jsonData, validates the envelope and imports every
// item. Existing products are only overwritten when forceUpdate is set; a
// limit > 0 keeps the first limit items in document order. All writes commit
// in one transaction after the loop, so a storage failure rolls back the
// whole run.
func (i *Importer) ImportProducts(ctx context.Context, jsonData []byte, forceUpdate bool, limit int) (models.ImportResult, error) {
	items, err := parseEnvelope(jsonData)
	if err != nil {
		return models.ImportResult{}, err
	}

	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}

	i.log.Info("starting product import", logging.Fields{
		"total_items":  len(items),
		"force_update": forceUpdate,
		"limit":        limit,
	})

	result := models.ImportResult{}
	var pending []*models.Product

	for n, raw := range items {
		result = result.IncrementProcessed()

		item, ok := raw.(map[string]interface{})
		if !ok {
			result = result.AddError("unknown", fmt.Sprintf("item %d is not an object", n))
			i.reportProgress(n+1, len(items))
			continue
		}
		asin := amazon.GetString(item, "ASIN")
		if asin == "" {
			asin = "unknown"
		}

		rec, err := i.processor.ProcessItem(item)
		if err != nil {
			result = result.AddError(asin, err.Error())
			i.reportProgress(n+1, len(items))
			continue
		}

		existing, err := i.repo.GetByASIN(ctx, rec.ASIN)
		if err != nil {
			return result, &Error{Message: "looking up product " + rec.ASIN, Cause: err}
		}

		switch {
		case existing != nil && !forceUpdate:
			result = result.IncrementSkipped()
			i.log.Debug("product exists, skipping", logging.Fields{"asin": rec.ASIN})
		case existing != nil:
			pending = append(pending, applyRecord(existing, rec))
			result = result.IncrementUpdated()
		default:
			pending = append(pending, applyRecord(nil, rec))
			result = result.IncrementImported()
		}

		i.reportProgress(n+1, len(items))
	}

	// Single end-of-batch flush: either the whole run commits or none of it.
	if err := i.repo.SaveAll(ctx, pending); err != nil {
		return result, &Error{Message: "persisting imported products", Cause: err}
	}

	i.log.Info("import completed", logging.Fields{
		"total_processed": result.TotalProcessed,
		"imported":        result.SuccessfullyImported,
		"updated":         result.Updated,
		"skipped":         result.Skipped,
		"errors":          result.Failed,
	})

	return result, nil
}

func (i *Importer) reportProgress(done, total int) {
	if i.Progress != nil {
		i.Progress(done, total)
	}
}

// parseEnvelope decodes the document and validates the SearchResult.Items
// wrapper. Envelope problems are fatal to the whole operation.
func parseEnvelope(jsonData []byte) ([]interface{}, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return nil, &Error{Message: "invalid JSON", Cause: err}
	}

	raw, ok := amazon.GetPath(doc, "SearchResult.Items")
	if !ok {
		return nil, &Error{Message: "invalid document structure: missing SearchResult.Items"}
	}

	items, ok := raw.([]interface{})
	if !ok {
		return nil, &Error{Message: "invalid document structure: SearchResult.Items must be a list"}
	}

	return items, nil
}

// applyRecord overlays record fields onto an existing entity, or builds a
// fresh one. Child collections are replaced wholesale.
func applyRecord(existing *models.Product, rec models.ProductRecord) *models.Product {
	p := existing
	if p == nil {
		p = &models.Product{ASIN: rec.ASIN, IsActive: true}
	}

	p.Title = rec.Title
	p.Brand = rec.Brand
	p.Manufacturer = rec.Manufacturer
	p.AmazonURL = rec.DetailPageURL
	p.Features = rec.Features
	p.SourceData = rec.RawDocument

	// Slugs are only generated once; admin-assigned slugs survive re-imports.
	if p.Slug == "" {
		p.Slug = GenerateSlug(rec.Title)
	}

	p.Images = make([]models.ProductImage, 0, len(rec.Images))
	for _, img := range rec.Images {
		p.Images = append(p.Images, models.ProductImage{
			URL:       img.URL,
			Width:     img.Width,
			Height:    img.Height,
			Type:      img.Type,
			IsPrimary: img.IsPrimary,
			IsActive:  true,
		})
	}

	p.Prices = make([]models.ProductPrice, 0, len(rec.Prices))
	for _, pr := range rec.Prices {
		p.Prices = append(p.Prices, models.ProductPrice{
			ListingID:         pr.ListingID,
			Amount:            pr.Amount,
			Currency:          pr.Currency,
			DisplayAmount:     pr.DisplayAmount,
			SavingsAmount:     pr.SavingsAmount,
			SavingsDisplay:    pr.SavingsDisplay,
			SavingsPercentage: pr.SavingsPercentage,
			IsFreeShipping:    pr.IsFreeShipping,
			ViolatesMAP:       pr.ViolatesMAP,
			IsActive:          true,
		})
	}

	p.Rankings = make([]models.ProductRanking, 0, len(rec.Rankings))
	for _, rk := range rec.Rankings {
		p.Rankings = append(p.Rankings, models.ProductRanking{
			CategoryID:      rk.CategoryID,
			CategoryName:    rk.CategoryName,
			ContextFreeName: rk.ContextFreeName,
			SalesRank:       rk.SalesRank,
			IsRoot:          rk.IsRoot,
			IsActive:        true,
		})
	}

	return p
}

var slugStrip = regexp.MustCompile(`[^a-z0-9áéíóúüñ]+`)
var slugCollapse = regexp.MustCompile(`-+`)

const slugMaxLen = 255

// GenerateSlug derives a URL-safe slug from a product title: lowercase,
// accented Spanish vowels and ñ preserved, everything else collapsed to
// single hyphens, capped at 255 characters. Titles that normalize to the
// same slug are not deduplicated; the unique index reports the collision.
func GenerateSlug(title string) string {
	slug := strings.ToLower(title)
	slug = slugStrip.ReplaceAllString(slug, "-")
	slug = slugCollapse.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	if runes := []rune(slug); len(runes) > slugMaxLen {
		slug = strings.Trim(string(runes[:slugMaxLen]), "-")
	}
	return slug
}
