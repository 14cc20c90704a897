package frontend

import (
	"context"

	"github.com/barradesonido/bsops/internal/database"
	"github.com/barradesonido/bsops/internal/logging"
	"github.com/barradesonido/bsops/pkg/models"
)

// Querier selects ranking candidates from the catalog: active products with
// complete display data, ordered by best sales rank.
type Querier struct {
	repo database.ProductRepository
	log  logging.Logger
}

// NewQuerier creates a Querier. A nil logger is replaced with a Nop.
func NewQuerier(repo database.ProductRepository, log logging.Logger) *Querier {
	if log == nil {
		log = logging.Nop()
	}
	return &Querier{repo: repo, log: log}
}

// TopRanked returns up to limit products ordered by best sales rank, keeping
// only products with complete display data and deduplicating by ASIN. A
// limit <= 0 returns all matches.
func (q *Querier) TopRanked(ctx context.Context, limit int) ([]*models.Product, error) {
	return q.query(ctx, "", limit)
}

// ByCategory restricts TopRanked to products ranked in a category whose name
// contains categoryName.
func (q *Querier) ByCategory(ctx context.Context, categoryName string, limit int) ([]*models.Product, error) {
	return q.query(ctx, categoryName, limit)
}

func (q *Querier) query(ctx context.Context, category string, limit int) ([]*models.Product, error) {
	opts := database.QueryOptions{
		OnlyActive: true,
		Category:   category,
		OrderBy:    "sales_rank",
		OrderDir:   "ASC",
	}
	// Over-fetch so the completeness filter can drop rows without starving
	// the requested limit.
	if limit > 0 {
		opts.Limit = limit * 3
	}

	products, err := q.repo.GetAll(ctx, opts)
	if err != nil {
		return nil, err
	}

	complete := make([]*models.Product, 0, len(products))
	seen := make(map[string]bool, len(products))
	for _, p := range products {
		if !HasCompleteData(p) || seen[p.ASIN] {
			continue
		}
		seen[p.ASIN] = true
		complete = append(complete, p)
	}

	q.log.Debug("ranking candidates selected", logging.Fields{
		"category":      category,
		"total_found":   len(products),
		"complete_data": len(complete),
	})

	if limit > 0 && limit < len(complete) {
		complete = complete[:limit]
	}
	return complete, nil
}

// HasCompleteData reports whether a product can be displayed on the
// storefront: an active image with a URL, an active positive price, an
// active ranking, and the basic identity fields.
func HasCompleteData(p *models.Product) bool {
	hasImage := false
	for _, img := range p.ActiveImages() {
		if img.URL != "" {
			hasImage = true
			break
		}
	}

	hasPrice := false
	for _, pr := range p.ActivePrices() {
		if pr.Amount > 0 {
			hasPrice = true
			break
		}
	}

	hasRanking := len(p.ActiveRankings()) > 0

	hasBasics := p.Title != "" && p.Brand != "" && p.AmazonURL != ""

	return hasImage && hasPrice && hasRanking && hasBasics
}
