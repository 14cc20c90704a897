package frontend

import (
	"context"
	"time"

	"github.com/barradesonido/bsops/internal/logging"
)

// DefaultCategory is the storefront's home ranking category.
const DefaultCategory = "Barras de sonido"

// Stats records what the last ranking build did.
type Stats struct {
	ProductsQueried   int     `json:"products_queried"`
	ProductsProcessed int     `json:"products_processed"`
	ProcessingTimeMS  float64 `json:"processing_time_ms"`
}

// Ranking orchestrates querying, scoring and formatting into the final
// storefront ranking.
type Ranking struct {
	querier   *Querier
	scores    *ScoreGenerator
	formatter *Formatter
	log       logging.Logger

	stats Stats
}

// NewRanking creates the facade. A nil logger is replaced with a Nop.
func NewRanking(querier *Querier, scores *ScoreGenerator, formatter *Formatter, log logging.Logger) *Ranking {
	if log == nil {
		log = logging.Nop()
	}
	return &Ranking{querier: querier, scores: scores, formatter: formatter, log: log}
}

// TopProducts builds the display ranking: category filters the candidates
// when non-empty, limit caps the result when positive.
func (r *Ranking) TopProducts(ctx context.Context, category string, limit int) ([]DisplayProduct, error) {
	start := time.Now()

	products, err := r.querier.ByCategory(ctx, category, limit)
	if err != nil {
		r.log.Error("ranking query failed", logging.Fields{"category": category, "error": err.Error()})
		return nil, err
	}

	r.stats = Stats{ProductsQueried: len(products)}

	entries := make([]DisplayProduct, 0, len(products))
	for i, p := range products {
		position := i + 1
		rating := r.scores.Rating(position)
		entries = append(entries, r.formatter.FormatProduct(p, position, rating))
	}

	r.stats.ProductsProcessed = len(entries)
	r.stats.ProcessingTimeMS = float64(time.Since(start).Microseconds()) / 1000

	r.log.Info("ranking generated", logging.Fields{
		"category": category,
		"count":    len(entries),
	})
	return entries, nil
}

// SoundbarRanking is TopProducts for the default category.
func (r *Ranking) SoundbarRanking(ctx context.Context, limit int) ([]DisplayProduct, error) {
	return r.TopProducts(ctx, DefaultCategory, limit)
}

// HasAvailableProducts reports whether at least one displayable product
// exists, optionally within a category.
func (r *Ranking) HasAvailableProducts(ctx context.Context, category string) (bool, error) {
	products, err := r.querier.ByCategory(ctx, category, 1)
	if err != nil {
		return false, err
	}
	return len(products) > 0, nil
}

// ProductCount counts displayable products, optionally within a category.
func (r *Ranking) ProductCount(ctx context.Context, category string) (int, error) {
	products, err := r.querier.ByCategory(ctx, category, 0)
	if err != nil {
		return 0, err
	}
	return len(products), nil
}

// LastStats returns the counters from the most recent TopProducts call.
func (r *Ranking) LastStats() Stats {
	return r.stats
}
