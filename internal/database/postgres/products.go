package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/barradesonido/bsops/internal/database"
	"github.com/barradesonido/bsops/pkg/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductRepo implements the ProductRepository interface for PostgreSQL
type ProductRepo struct {
	client *Client
}

// NewProductRepo creates a new PostgreSQL product repository
func NewProductRepo(client *Client) *ProductRepo {
	return &ProductRepo{client: client}
}

const productColumns = `
	id, asin, title, slug, brand, manufacturer, amazon_url,
	features, source_data, is_active, created_at, updated_at
`

// GetByASIN retrieves a product with its children, or nil when absent
func (r *ProductRepo) GetByASIN(ctx context.Context, asin string) (*models.Product, error) {
	return r.getByField(ctx, "asin", asin)
}

// GetBySlug retrieves a product with its children, or nil when absent
func (r *ProductRepo) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return r.getByField(ctx, "slug", slug)
}

func (r *ProductRepo) getByField(ctx context.Context, field, value string) (*models.Product, error) {
	query := fmt.Sprintf("SELECT %s FROM products WHERE %s = $1", productColumns, field)

	p, err := scanProduct(r.client.pool.QueryRow(ctx, query, value))
	if err != nil || p == nil {
		return nil, err
	}

	if err := r.loadChildren(ctx, []*models.Product{p}); err != nil {
		return nil, err
	}
	return p, nil
}

// GetAll retrieves products with optional filtering, children included
func (r *ProductRepo) GetAll(ctx context.Context, opts database.QueryOptions) ([]*models.Product, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if opts.OnlyActive {
		conditions = append(conditions, "p.is_active = TRUE")
	}
	if opts.Brand != "" {
		conditions = append(conditions, fmt.Sprintf("p.brand = $%d", argNum))
		args = append(args, opts.Brand)
		argNum++
	}
	if opts.Category != "" {
		conditions = append(conditions, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM product_rankings r
				WHERE r.product_id = p.id AND r.is_active AND r.category_name ILIKE $%d)`, argNum))
		args = append(args, "%"+opts.Category+"%")
		argNum++
	}

	query := `
		SELECT
			p.id, p.asin, p.title, p.slug, p.brand, p.manufacturer, p.amazon_url,
			p.features, p.source_data, p.is_active, p.created_at, p.updated_at
		FROM products p`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY " + orderClause(opts)

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", opts.Offset)
	}

	rows, err := r.client.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadChildren(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

func orderClause(opts database.QueryOptions) string {
	dir := "ASC"
	if strings.EqualFold(opts.OrderDir, "DESC") {
		dir = "DESC"
	}

	switch opts.OrderBy {
	case "sales_rank":
		// Best active rank per product; products without rankings sort last.
		return fmt.Sprintf(`(SELECT MIN(r.sales_rank) FROM product_rankings r
			WHERE r.product_id = p.id AND r.is_active) %s NULLS LAST, p.created_at DESC`, dir)
	case "", "id":
		return "p.created_at " + dir
	default:
		return fmt.Sprintf("p.%s %s", opts.OrderBy, dir)
	}
}

// SaveAll persists the batch in one transaction: upsert each product by ASIN,
// then delete and re-insert its child rows. A failure rolls back everything.
func (r *ProductRepo) SaveAll(ctx context.Context, products []*models.Product) error {
	if len(products) == 0 {
		return nil
	}

	tx, err := r.client.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, p := range products {
		if err := saveProduct(ctx, tx, p); err != nil {
			return fmt.Errorf("failed to save product %s: %w", p.ASIN, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func saveProduct(ctx context.Context, tx pgx.Tx, p *models.Product) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	featuresJSON, _ := json.Marshal(p.Features)
	var sourceJSON []byte
	if p.SourceData != nil {
		sourceJSON, _ = json.Marshal(p.SourceData)
	}

	query := `
		INSERT INTO products (
			id, asin, title, slug, brand, manufacturer, amazon_url,
			features, source_data, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (asin) DO UPDATE SET
			title = EXCLUDED.title,
			slug = EXCLUDED.slug,
			brand = EXCLUDED.brand,
			manufacturer = EXCLUDED.manufacturer,
			amazon_url = EXCLUDED.amazon_url,
			features = EXCLUDED.features,
			source_data = EXCLUDED.source_data,
			is_active = EXCLUDED.is_active,
			updated_at = NOW()
		RETURNING id
	`

	err := tx.QueryRow(ctx, query,
		p.ID, p.ASIN, p.Title, p.Slug, p.Brand, nullable(p.Manufacturer), p.AmazonURL,
		featuresJSON, sourceJSON, p.IsActive, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("upsert: %w", err)
	}

	// Child collections are replaced wholesale, never diffed.
	for _, table := range []string{"product_images", "product_prices", "product_rankings"} {
		if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE product_id = $1", table), p.ID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i := range p.Images {
		img := &p.Images[i]
		if img.ID == "" {
			img.ID = uuid.New().String()
		}
		img.ProductID = p.ID
		_, err := tx.Exec(ctx, `
			INSERT INTO product_images (id, product_id, url, width, height, type, is_primary, is_active, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			img.ID, img.ProductID, img.URL, img.Width, img.Height, img.Type, img.IsPrimary, img.IsActive, now,
		)
		if err != nil {
			return fmt.Errorf("insert image: %w", err)
		}
	}

	for i := range p.Prices {
		pr := &p.Prices[i]
		if pr.ID == "" {
			pr.ID = uuid.New().String()
		}
		pr.ProductID = p.ID
		_, err := tx.Exec(ctx, `
			INSERT INTO product_prices (
				id, product_id, listing_id, amount, currency, display_amount,
				savings_amount, savings_display, savings_percentage,
				is_free_shipping, violates_map, is_active, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			pr.ID, pr.ProductID, pr.ListingID, pr.Amount, pr.Currency, pr.DisplayAmount,
			nullableFloat(pr.SavingsAmount), nullable(pr.SavingsDisplay), nullableInt(pr.SavingsPercentage),
			pr.IsFreeShipping, pr.ViolatesMAP, pr.IsActive, now,
		)
		if err != nil {
			return fmt.Errorf("insert price: %w", err)
		}
	}

	for i := range p.Rankings {
		rk := &p.Rankings[i]
		if rk.ID == "" {
			rk.ID = uuid.New().String()
		}
		rk.ProductID = p.ID
		_, err := tx.Exec(ctx, `
			INSERT INTO product_rankings (
				id, product_id, category_id, category_name, context_free_name,
				sales_rank, is_root, is_active, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			rk.ID, rk.ProductID, rk.CategoryID, rk.CategoryName, nullable(rk.ContextFreeName),
			rk.SalesRank, rk.IsRoot, rk.IsActive, now,
		)
		if err != nil {
			return fmt.Errorf("insert ranking: %w", err)
		}
	}

	return nil
}

// Count returns the total number of products
func (r *ProductRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.client.pool.QueryRow(ctx, "SELECT COUNT(*) FROM products").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// CountByBrand returns product counts grouped by brand
func (r *ProductRepo) CountByBrand(ctx context.Context) (map[string]int64, error) {
	rows, err := r.client.pool.Query(ctx,
		"SELECT brand, COUNT(*) FROM products GROUP BY brand ORDER BY COUNT(*) DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to count by brand: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var brand string
		var count int64
		if err := rows.Scan(&brand, &count); err != nil {
			return nil, err
		}
		counts[brand] = count
	}
	return counts, rows.Err()
}

func scanProduct(row pgx.Row) (*models.Product, error) {
	var p models.Product
	var manufacturer *string
	var features, source []byte

	err := row.Scan(
		&p.ID, &p.ASIN, &p.Title, &p.Slug, &p.Brand, &manufacturer, &p.AmazonURL,
		&features, &source, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	if manufacturer != nil {
		p.Manufacturer = *manufacturer
	}
	if len(features) > 0 {
		json.Unmarshal(features, &p.Features)
	}
	if len(source) > 0 {
		json.Unmarshal(source, &p.SourceData)
	}

	return &p, nil
}

// loadChildren fetches all child rows for the given products in three queries.
func (r *ProductRepo) loadChildren(ctx context.Context, products []*models.Product) error {
	if len(products) == 0 {
		return nil
	}

	byID := make(map[string]*models.Product, len(products))
	ids := make([]string, 0, len(products))
	for _, p := range products {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	rows, err := r.client.pool.Query(ctx, `
		SELECT id, product_id, url, width, height, type, is_primary, is_active, created_at
		FROM product_images WHERE product_id = ANY($1) ORDER BY created_at`, ids)
	if err != nil {
		return fmt.Errorf("failed to query images: %w", err)
	}
	for rows.Next() {
		var img models.ProductImage
		if err := rows.Scan(&img.ID, &img.ProductID, &img.URL, &img.Width, &img.Height,
			&img.Type, &img.IsPrimary, &img.IsActive, &img.CreatedAt); err != nil {
			rows.Close()
			return err
		}
		if p, ok := byID[img.ProductID]; ok {
			p.Images = append(p.Images, img)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.client.pool.Query(ctx, `
		SELECT id, product_id, listing_id, amount, currency, display_amount,
			savings_amount, savings_display, savings_percentage,
			is_free_shipping, violates_map, is_active, created_at
		FROM product_prices WHERE product_id = ANY($1) ORDER BY created_at`, ids)
	if err != nil {
		return fmt.Errorf("failed to query prices: %w", err)
	}
	for rows.Next() {
		var pr models.ProductPrice
		var savingsAmount *float64
		var savingsDisplay *string
		var savingsPercentage *int
		if err := rows.Scan(&pr.ID, &pr.ProductID, &pr.ListingID, &pr.Amount, &pr.Currency,
			&pr.DisplayAmount, &savingsAmount, &savingsDisplay, &savingsPercentage,
			&pr.IsFreeShipping, &pr.ViolatesMAP, &pr.IsActive, &pr.CreatedAt); err != nil {
			rows.Close()
			return err
		}
		if savingsAmount != nil {
			pr.SavingsAmount = *savingsAmount
		}
		if savingsDisplay != nil {
			pr.SavingsDisplay = *savingsDisplay
		}
		if savingsPercentage != nil {
			pr.SavingsPercentage = *savingsPercentage
		}
		if p, ok := byID[pr.ProductID]; ok {
			p.Prices = append(p.Prices, pr)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.client.pool.Query(ctx, `
		SELECT id, product_id, category_id, category_name, context_free_name,
			sales_rank, is_root, is_active, created_at
		FROM product_rankings WHERE product_id = ANY($1) ORDER BY created_at`, ids)
	if err != nil {
		return fmt.Errorf("failed to query rankings: %w", err)
	}
	for rows.Next() {
		var rk models.ProductRanking
		var contextFree *string
		if err := rows.Scan(&rk.ID, &rk.ProductID, &rk.CategoryID, &rk.CategoryName,
			&contextFree, &rk.SalesRank, &rk.IsRoot, &rk.IsActive, &rk.CreatedAt); err != nil {
			rows.Close()
			return err
		}
		if contextFree != nil {
			rk.ContextFreeName = *contextFree
		}
		if p, ok := byID[rk.ProductID]; ok {
			p.Rankings = append(p.Rankings, rk)
		}
	}
	rows.Close()
	return rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullableFloat(f float64) *float64 {
	if f == 0 {
		return nil
	}
	return &f
}

func nullableInt(i int) *int {
	if i == 0 {
		return nil
	}
	return &i
}
