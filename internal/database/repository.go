package database

import (
	"context"
	"time"

	"github.com/barradesonido/bsops/pkg/models"
)

// ProductRepository defines the interface for catalog data access
type ProductRepository interface {
	// Lookups
	GetByASIN(ctx context.Context, asin string) (*models.Product, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	GetAll(ctx context.Context, opts QueryOptions) ([]*models.Product, error)

	// SaveAll persists a batch of products in a single transaction:
	// create-or-update by ASIN with full child replacement. Either the whole
	// batch commits or none of it does.
	SaveAll(ctx context.Context, products []*models.Product) error

	// Counts and stats
	Count(ctx context.Context) (int64, error)
	CountByBrand(ctx context.Context) (map[string]int64, error)
}

// HistoryRepository defines the interface for the operation history log
type HistoryRepository interface {
	Add(ctx context.Context, entry *OperationHistory) error
	GetRecent(ctx context.Context, limit int) ([]*OperationHistory, error)
}

// QueryOptions represents options for list queries
type QueryOptions struct {
	Limit      int
	Offset     int
	OrderBy    string
	OrderDir   string // "ASC" or "DESC"
	Brand      string
	Category   string // match against ranking category names
	OnlyActive bool
}

// OperationHistory represents an operation in the history log
type OperationHistory struct {
	ID          int64      `json:"id,omitempty"`
	Action      string     `json:"action"` // import, export, sync
	Count       int        `json:"count"`
	Details     string     `json:"details,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
