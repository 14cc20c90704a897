package exporter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/barradesonido/bsops/internal/amazon"
	"github.com/barradesonido/bsops/internal/database"
	"github.com/barradesonido/bsops/internal/logging"
	"github.com/barradesonido/bsops/pkg/models"
)

// SearchURL is the placeholder written into every exported envelope.
const SearchURL = "https://www.amazon.es/s?k=productos+exportados"

// Skeleton document placeholders for products that were never imported and
// therefore have no stored source document.
const (
	skeletonCategoryID   = "1000000000"
	skeletonCategoryName = "Electrónica"
	skeletonListingID    = "default_listing"
)

// Error is a fatal export failure: unwritable destination or serialization
// problems. Per-item conversion failures land in the ExportResult instead.
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

// Exporter reads catalog products and writes them back out as an
// Amazon-shaped search-result document.
type Exporter struct {
	repo      database.ProductRepository
	processor *amazon.Processor
	log       logging.Logger
}

// New creates an Exporter. A nil logger is replaced with a Nop.
func New(repo database.ProductRepository, processor *amazon.Processor, log logging.Logger) *Exporter {
	if log == nil {
		log = logging.Nop()
	}
	return &Exporter{repo: repo, processor: processor, log: log}
}

// ExportProducts writes the catalog (all products, or only active ones) to
// filePath as pretty-printed UTF-8 JSON and returns counters plus content
// statistics.
func (e *Exporter) ExportProducts(ctx context.Context, filePath string, onlyActive bool) (models.ExportResult, error) {
	if err := validateExportPath(filePath); err != nil {
		return models.ExportResult{}, err
	}

	e.log.Info("starting product export", logging.Fields{
		"file_path":   filePath,
		"only_active": onlyActive,
	})

	products, err := e.repo.GetAll(ctx, database.QueryOptions{
		OnlyActive: onlyActive,
		OrderDir:   "ASC",
	})
	if err != nil {
		return models.ExportResult{}, &Error{Message: "querying products", Cause: err}
	}
	if len(products) == 0 {
		e.log.Warn("no products found to export", logging.Fields{"only_active": onlyActive})
	}

	result := models.ExportResult{}
	records := make([]models.ProductRecord, 0, len(products))
	for _, p := range products {
		result = result.IncrementProcessed()
		rec, err := recordFromProduct(p)
		if err != nil {
			result = result.AddError(p.ASIN, err.Error())
			e.log.Error("failed to convert product", logging.Fields{"asin": p.ASIN, "error": err.Error()})
			continue
		}
		records = append(records, rec)
	}

	docs, batchErrs := e.processor.ReverseProcessItems(records)
	for _, berr := range batchErrs {
		result = result.AddError(berr.ASIN, berr.Err.Error())
	}
	for range docs {
		result = result.IncrementExported()
	}

	payload, err := encodeEnvelope(docs)
	if err != nil {
		return result, &Error{Message: "encoding export document", Cause: err}
	}

	if err := os.WriteFile(filePath, payload, 0644); err != nil {
		return result, &Error{Message: "writing export file", Cause: err}
	}

	withImages, withPrices, withRankings := statistics(docs)
	result = result.WithStatistics(withImages, withPrices, withRankings).WithFilePath(filePath)

	e.log.Info("export completed", logging.Fields{
		"total_exported": result.TotalExported,
		"failed":         result.Failed,
		"file_path":      filePath,
	})

	return result, nil
}

// validateExportPath ensures the destination directory exists and is
// writable before any processing begins.
func validateExportPath(filePath string) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &Error{Message: "creating export directory " + dir, Cause: err}
	}

	probe := filepath.Join(dir, ".write-test")
	f, err := os.Create(probe)
	if err != nil {
		return &Error{Message: "export directory not writable: " + dir, Cause: err}
	}
	f.Close()
	os.Remove(probe)
	return nil
}

// recordFromProduct rebuilds a ProductRecord from the stored entity using
// only active child rows. Products without a stored source document get a
// synthesized skeleton so the round-trip merge always has a base.
func recordFromProduct(p *models.Product) (models.ProductRecord, error) {
	images := make([]models.ImageRecord, 0, len(p.Images))
	for _, img := range p.ActiveImages() {
		images = append(images, models.ImageRecord{
			URL:       img.URL,
			Width:     img.Width,
			Height:    img.Height,
			Type:      img.Type,
			IsPrimary: img.IsPrimary,
		})
	}

	prices := make([]models.PriceRecord, 0, len(p.Prices))
	for _, pr := range p.ActivePrices() {
		prices = append(prices, models.PriceRecord{
			ListingID:         pr.ListingID,
			Amount:            pr.Amount,
			Currency:          pr.Currency,
			DisplayAmount:     pr.DisplayAmount,
			SavingsAmount:     pr.SavingsAmount,
			SavingsDisplay:    pr.SavingsDisplay,
			SavingsPercentage: pr.SavingsPercentage,
			IsFreeShipping:    pr.IsFreeShipping,
			ViolatesMAP:       pr.ViolatesMAP,
		})
	}

	rankings := make([]models.RankingRecord, 0, len(p.Rankings))
	for _, rk := range p.ActiveRankings() {
		rankings = append(rankings, models.RankingRecord{
			CategoryID:      rk.CategoryID,
			CategoryName:    rk.CategoryName,
			ContextFreeName: rk.ContextFreeName,
			SalesRank:       rk.SalesRank,
			IsRoot:          rk.IsRoot,
		})
	}

	raw := p.SourceData
	manufacturer := p.Manufacturer
	if len(raw) == 0 {
		raw = skeletonDocument(p)
		// The skeleton writes the brand as manufacturer; the record must
		// carry the same value or the overlay blanks it again.
		if manufacturer == "" {
			manufacturer = p.Brand
		}
	}

	return models.NewProductRecord(models.ProductRecord{
		ASIN:          p.ASIN,
		Title:         p.Title,
		Brand:         p.Brand,
		Manufacturer:  manufacturer,
		DetailPageURL: p.AmazonURL,
		Features:      p.Features,
		Images:        images,
		Prices:        prices,
		Rankings:      rankings,
		RawDocument:   raw,
	})
}

// skeletonDocument synthesizes a minimal source document for
// manually-created products, with documented placeholder structure.
func skeletonDocument(p *models.Product) amazon.Document {
	manufacturer := p.Manufacturer
	if manufacturer == "" {
		manufacturer = p.Brand
	}

	features := make([]interface{}, len(p.Features))
	for i, f := range p.Features {
		features[i] = f
	}

	return amazon.Document{
		"ASIN":          p.ASIN,
		"DetailPageURL": p.AmazonURL,
		"ItemInfo": amazon.Document{
			"Title": amazon.Document{
				"DisplayValue": p.Title,
				"Label":        "Title",
				"Locale":       "es_ES",
			},
			"ByLineInfo": amazon.Document{
				"Brand": amazon.Document{
					"DisplayValue": p.Brand,
					"Label":        "Brand",
					"Locale":       "es_ES",
				},
				"Manufacturer": amazon.Document{
					"DisplayValue": manufacturer,
					"Label":        "Manufacturer",
					"Locale":       "es_ES",
				},
			},
			"Features": amazon.Document{
				"DisplayValues": features,
				"Label":         "Features",
				"Locale":        "es_ES",
			},
		},
		"Images": amazon.Document{
			"Primary": amazon.Document{
				"Large": amazon.Document{
					"URL":    "",
					"Width":  500,
					"Height": 500,
				},
			},
		},
		"Offers": amazon.Document{
			"Listings": []interface{}{
				amazon.Document{
					"Id": skeletonListingID,
					"DeliveryInfo": amazon.Document{
						"IsFreeShippingEligible": true,
					},
					"Price": amazon.Document{
						"Amount":        0.0,
						"Currency":      "EUR",
						"DisplayAmount": "0,00 €",
					},
					"ViolatesMAP": false,
				},
			},
		},
		"BrowseNodeInfo": amazon.Document{
			"BrowseNodes": []interface{}{
				amazon.Document{
					"ContextFreeName": skeletonCategoryName,
					"DisplayName":     skeletonCategoryName,
					"Id":              skeletonCategoryID,
					"IsRoot":          false,
					"SalesRank":       1,
				},
			},
		},
	}
}

// encodeEnvelope wraps items in the SearchResult envelope and pretty-prints
// without HTML escaping, keeping the output byte-comparable with the source
// documents.
func encodeEnvelope(docs []amazon.Document) ([]byte, error) {
	items := make([]interface{}, len(docs))
	for i, d := range docs {
		items[i] = d
	}

	envelope := map[string]interface{}{
		"SearchResult": map[string]interface{}{
			"Items":            items,
			"SearchURL":        SearchURL,
			"TotalResultCount": len(items),
		},
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(envelope); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// statistics counts exported items with a usable image, a positive price and
// a sales rank.
func statistics(docs []amazon.Document) (withImages, withPrices, withRankings int) {
	for _, d := range docs {
		if amazon.GetString(d, "Images.Primary.Large.URL") != "" {
			withImages++
		}
		if amazon.GetFloat(d, "Offers.Listings.0.Price.Amount") > 0 {
			withPrices++
		}
		if _, ok := amazon.GetPath(d, "BrowseNodeInfo.BrowseNodes.0.SalesRank"); ok {
			withRankings++
		}
	}
	return
}
