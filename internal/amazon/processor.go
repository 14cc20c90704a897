package amazon

import (
	"errors"

	"github.com/barradesonido/bsops/internal/logging"
	"github.com/barradesonido/bsops/pkg/models"
)

// Processor batches Transformer calls with per-item fault isolation: one
// malformed item never aborts a batch, failures come back as data.
type Processor struct {
	transformer *Transformer
	log         logging.Logger
}

// NewProcessor creates a Processor. A nil logger is replaced with a Nop.
func NewProcessor(transformer *Transformer, log logging.Logger) *Processor {
	if log == nil {
		log = logging.Nop()
	}
	return &Processor{transformer: transformer, log: log}
}

// ProcessItem converts one raw item. Validation errors pass through
// unchanged; anything unexpected is wrapped so callers only ever see
// ValidationError for per-item failures.
func (p *Processor) ProcessItem(item Document) (models.ProductRecord, error) {
	asin := GetString(item, "ASIN")
	p.log.Debug("processing item", logging.Fields{"asin": asin})

	rec, err := p.transformer.Transform(item)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			p.log.Warn("item validation failed", logging.Fields{"asin": asin, "error": err.Error()})
			return models.ProductRecord{}, err
		}
		p.log.Error("item processing failed", logging.Fields{"asin": asin, "error": err.Error()})
		return models.ProductRecord{}, NewValidationError(asin, "processing item: %v", err)
	}

	return rec, nil
}

// ProcessItems converts a batch, returning the successful records and the
// per-item errors side by side.
func (p *Processor) ProcessItems(items []Document) ([]models.ProductRecord, []BatchError) {
	records := make([]models.ProductRecord, 0, len(items))
	var errs []BatchError

	for i, item := range items {
		rec, err := p.ProcessItem(item)
		if err != nil {
			errs = append(errs, BatchError{Index: i, ASIN: asinOrUnknown(item), Err: err})
			continue
		}
		records = append(records, rec)
	}

	if len(errs) > 0 {
		p.log.Warn("batch processed with errors", logging.Fields{
			"total_items":  len(items),
			"total_errors": len(errs),
		})
	}

	return records, errs
}

// ReverseProcessItem merges a record back into its original document shape.
// Empty image/price/ranking lists leave the corresponding original
// sub-documents untouched rather than zeroing them out.
func (p *Processor) ReverseProcessItem(rec models.ProductRecord) (Document, error) {
	p.log.Debug("reverse processing record", logging.Fields{"asin": rec.ASIN})

	doc, err := p.transformer.ReverseTransform(rec)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return nil, err
		}
		return nil, NewValidationError(rec.ASIN, "reverse processing item: %v", err)
	}

	return doc, nil
}

// ReverseProcessItems merges a batch of records with the same fault
// isolation as ProcessItems.
func (p *Processor) ReverseProcessItems(records []models.ProductRecord) ([]Document, []BatchError) {
	docs := make([]Document, 0, len(records))
	var errs []BatchError

	for i, rec := range records {
		doc, err := p.ReverseProcessItem(rec)
		if err != nil {
			errs = append(errs, BatchError{Index: i, ASIN: rec.ASIN, Err: err})
			continue
		}
		docs = append(docs, doc)
	}

	if len(errs) > 0 {
		p.log.Warn("reverse batch processed with errors", logging.Fields{
			"total_items":  len(records),
			"total_errors": len(errs),
		})
	}

	return docs, errs
}

func asinOrUnknown(item Document) string {
	if asin := GetString(item, "ASIN"); asin != "" {
		return asin
	}
	return "unknown"
}
