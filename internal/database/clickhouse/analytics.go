package clickhouse

import (
	"context"
	"fmt"
	"time"
)

// PriceTrend represents daily price aggregates for a product
type PriceTrend struct {
	ASIN     string
	Date     time.Time
	MinPrice float64
	MaxPrice float64
	AvgPrice float64
	Count    int64
}

// RankTrend represents the best observed sales rank per day
type RankTrend struct {
	ASIN     string
	Date     time.Time
	BestRank int32
}

// GetPriceTrends returns daily price aggregates for a product over the last
// days days.
func (c *Client) GetPriceTrends(ctx context.Context, asin string, days int) ([]PriceTrend, error) {
	since := time.Now().AddDate(0, 0, -days)

	query := `
		SELECT
			asin,
			toDate(captured_at) as date,
			min(price) as min_price,
			max(price) as max_price,
			avg(price) as avg_price,
			count() as count
		FROM catalog_snapshots
		WHERE asin = ?
		  AND captured_at >= ?
		  AND price IS NOT NULL
		GROUP BY asin, date
		ORDER BY date
	`

	rows, err := c.conn.Query(ctx, query, asin, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query price trends: %w", err)
	}
	defer rows.Close()

	var trends []PriceTrend
	for rows.Next() {
		var t PriceTrend
		if err := rows.Scan(&t.ASIN, &t.Date, &t.MinPrice, &t.MaxPrice, &t.AvgPrice, &t.Count); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		trends = append(trends, t)
	}

	return trends, rows.Err()
}

// GetRankTrends returns the best daily sales rank for a product over the
// last days days.
func (c *Client) GetRankTrends(ctx context.Context, asin string, days int) ([]RankTrend, error) {
	since := time.Now().AddDate(0, 0, -days)

	query := `
		SELECT
			asin,
			toDate(captured_at) as date,
			min(sales_rank) as best_rank
		FROM catalog_snapshots
		WHERE asin = ?
		  AND captured_at >= ?
		  AND sales_rank IS NOT NULL
		GROUP BY asin, date
		ORDER BY date
	`

	rows, err := c.conn.Query(ctx, query, asin, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query rank trends: %w", err)
	}
	defer rows.Close()

	var trends []RankTrend
	for rows.Next() {
		var t RankTrend
		if err := rows.Scan(&t.ASIN, &t.Date, &t.BestRank); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		trends = append(trends, t)
	}

	return trends, rows.Err()
}

// BrandSummary aggregates the latest snapshot per brand
type BrandSummary struct {
	Brand        string
	ProductCount uint64
	AvgPrice     float64
	BestRank     int32
}

// GetBrandSummaries aggregates the most recent snapshot day by brand.
func (c *Client) GetBrandSummaries(ctx context.Context) ([]BrandSummary, error) {
	query := `
		SELECT
			brand,
			count(DISTINCT asin) as product_count,
			avg(price) as avg_price,
			min(sales_rank) as best_rank
		FROM catalog_snapshots
		WHERE captured_date = (SELECT max(captured_date) FROM catalog_snapshots)
		GROUP BY brand
		ORDER BY product_count DESC
	`

	rows, err := c.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query brand summaries: %w", err)
	}
	defer rows.Close()

	var summaries []BrandSummary
	for rows.Next() {
		var s BrandSummary
		var avgPrice *float64
		var bestRank *int32
		if err := rows.Scan(&s.Brand, &s.ProductCount, &avgPrice, &bestRank); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if avgPrice != nil {
			s.AvgPrice = *avgPrice
		}
		if bestRank != nil {
			s.BestRank = *bestRank
		}
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}
