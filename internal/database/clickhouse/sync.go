package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/barradesonido/bsops/internal/database"
	"github.com/barradesonido/bsops/pkg/models"
)

// SyncResult contains the results of a snapshot run
type SyncResult struct {
	RecordsSynced int
	StartTime     time.Time
	EndTime       time.Time
	Errors        []string
}

// Syncer captures the current catalog state from PostgreSQL into ClickHouse
type Syncer struct {
	repo     database.ProductRepository
	chClient *Client
}

// NewSyncer creates a new syncer
func NewSyncer(repo database.ProductRepository, chClient *Client) *Syncer {
	return &Syncer{repo: repo, chClient: chClient}
}

// Snapshot reads every catalog product and appends one snapshot row per
// product to ClickHouse, all stamped with the same capture time.
func (s *Syncer) Snapshot(ctx context.Context) (*SyncResult, error) {
	result := &SyncResult{StartTime: time.Now()}

	products, err := s.repo.GetAll(ctx, database.QueryOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	capturedAt := time.Now().UTC()
	records := make([]SnapshotRecord, 0, len(products))
	for _, p := range products {
		records = append(records, snapshotFromProduct(p, capturedAt))
	}

	if len(records) == 0 {
		result.EndTime = time.Now()
		return result, nil
	}

	// Insert in batches to keep memory bounded on large catalogs
	batchSize := 10000
	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}

		batch := records[i:end]
		if err := s.chClient.InsertSnapshots(ctx, batch); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("batch insert error: %v", err))
			continue
		}

		result.RecordsSynced += len(batch)
	}

	result.EndTime = time.Now()
	return result, nil
}

// GetLastSnapshotTime returns the timestamp of the most recent snapshot row
func (s *Syncer) GetLastSnapshotTime(ctx context.Context) (time.Time, error) {
	var lastTime time.Time
	query := "SELECT max(captured_at) FROM catalog_snapshots"
	if err := s.chClient.conn.QueryRow(ctx, query).Scan(&lastTime); err != nil {
		// Empty or missing table reads as never snapshotted
		return time.Time{}, nil
	}
	return lastTime, nil
}

// SyncStats summarizes the state on both sides
type SyncStats struct {
	TotalPGProducts int64
	TotalCHRecords  uint64
	LastSnapshot    time.Time
}

// GetSyncStats returns snapshot statistics
func (s *Syncer) GetSyncStats(ctx context.Context) (*SyncStats, error) {
	stats := &SyncStats{}

	pgCount, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count PG products: %w", err)
	}
	stats.TotalPGProducts = pgCount

	chCount, err := s.chClient.GetSnapshotCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count CH records: %w", err)
	}
	stats.TotalCHRecords = chCount

	last, err := s.GetLastSnapshotTime(ctx)
	if err == nil {
		stats.LastSnapshot = last
	}

	return stats, nil
}

// snapshotFromProduct flattens a product into a snapshot row: the first
// active price and the best active sales rank win.
func snapshotFromProduct(p *models.Product, capturedAt time.Time) SnapshotRecord {
	r := SnapshotRecord{
		ASIN:       p.ASIN,
		Title:      p.Title,
		Brand:      p.Brand,
		Currency:   "EUR",
		IsActive:   p.IsActive,
		CapturedAt: capturedAt,
	}

	for _, price := range p.ActivePrices() {
		if price.Amount > 0 {
			amount := price.Amount
			r.Price = &amount
			r.Currency = price.Currency
			break
		}
	}

	for _, rank := range p.ActiveRankings() {
		if r.SalesRank == nil || int32(rank.SalesRank) < *r.SalesRank {
			sr := int32(rank.SalesRank)
			r.SalesRank = &sr
			name := rank.CategoryName
			r.CategoryName = &name
		}
	}

	return r
}
