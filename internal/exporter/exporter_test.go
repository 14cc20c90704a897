package exporter_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/barradesonido/bsops/internal/amazon"
	"github.com/barradesonido/bsops/internal/database"
	"github.com/barradesonido/bsops/internal/exporter"
	"github.com/barradesonido/bsops/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRepository implements database.ProductRepository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetByASIN(ctx context.Context, asin string) (*models.Product, error) {
	args := m.Called(ctx, asin)
	if p := args.Get(0); p != nil {
		return p.(*models.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	args := m.Called(ctx, slug)
	if p := args.Get(0); p != nil {
		return p.(*models.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) GetAll(ctx context.Context, opts database.QueryOptions) ([]*models.Product, error) {
	args := m.Called(ctx, opts)
	if p := args.Get(0); p != nil {
		return p.([]*models.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) SaveAll(ctx context.Context, products []*models.Product) error {
	args := m.Called(ctx, products)
	return args.Error(0)
}

func (m *MockRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) CountByBrand(ctx context.Context) (map[string]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[string]int64), args.Error(1)
}

func importedProduct() *models.Product {
	return &models.Product{
		ASIN:      "B01IMPORT0",
		Title:     "Barra de sonido Sony HT-S40R",
		Brand:     "Sony",
		AmazonURL: "https://www.amazon.es/dp/B01IMPORT0",
		IsActive:  true,
		SourceData: amazon.Document{
			"ASIN":          "B01IMPORT0",
			"DetailPageURL": "https://www.amazon.es/dp/B01IMPORT0",
			"ItemInfo": map[string]interface{}{
				"Title":      map[string]interface{}{"DisplayValue": "Barra de sonido Sony HT-S40R"},
				"ByLineInfo": map[string]interface{}{"Brand": map[string]interface{}{"DisplayValue": "Sony"}},
			},
		},
		Images: []models.ProductImage{
			{URL: "https://m.media-amazon.com/images/I/sony.jpg", Width: 500, Height: 500, IsPrimary: true, IsActive: true},
		},
		Prices: []models.ProductPrice{
			{ListingID: "listing-1", Amount: 299.0, Currency: "EUR", DisplayAmount: "299,00 €", IsActive: true},
		},
		Rankings: []models.ProductRanking{
			{CategoryID: "1384102031", CategoryName: "Barras de sonido", SalesRank: 2, IsActive: true},
		},
	}
}

func manualProduct() *models.Product {
	return &models.Product{
		ASIN:      "B01MANUAL0",
		Title:     "Producto creado a mano",
		Brand:     "Marca",
		AmazonURL: "https://www.amazon.es/dp/B01MANUAL0",
		IsActive:  true,
	}
}

func exportPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "amazon.json")
}

func decodeFile(t *testing.T, path string) map[string]interface{} {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func TestExportProducts_WritesEnvelope(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetAll", mock.Anything, database.QueryOptions{OnlyActive: true, OrderDir: "ASC"}).
		Return([]*models.Product{importedProduct()}, nil)

	exp := exporter.New(repo, amazon.NewProcessor(amazon.NewTransformer(nil), nil), nil)
	path := exportPath(t)

	result, err := exp.ExportProducts(context.Background(), path, true)
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalProcessed)
	assert.Equal(t, 1, result.TotalExported)
	assert.Equal(t, path, result.FilePath)

	doc := decodeFile(t, path)
	sr, ok := doc["SearchResult"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, exporter.SearchURL, sr["SearchURL"])
	assert.Equal(t, float64(1), sr["TotalResultCount"])

	items, ok := sr["Items"].([]interface{})
	require.True(t, ok)
	require.Len(t, items, 1)
	item := items[0].(map[string]interface{})
	assert.Equal(t, "B01IMPORT0", amazon.GetString(item, "ASIN"))
	assert.Equal(t, 299.0, amazon.GetFloat(item, "Offers.Listings.0.Price.Amount"))
}

func TestExportProducts_SkeletonForManualProduct(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetAll", mock.Anything, mock.Anything).
		Return([]*models.Product{manualProduct()}, nil)

	exp := exporter.New(repo, amazon.NewProcessor(amazon.NewTransformer(nil), nil), nil)
	path := exportPath(t)

	result, err := exp.ExportProducts(context.Background(), path, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalExported)

	doc := decodeFile(t, path)
	item := doc["SearchResult"].(map[string]interface{})["Items"].([]interface{})[0].(map[string]interface{})

	assert.Equal(t, "1000000000", amazon.GetString(item, "BrowseNodeInfo.BrowseNodes.0.Id"))
	assert.Equal(t, "Electrónica", amazon.GetString(item, "BrowseNodeInfo.BrowseNodes.0.DisplayName"))
	assert.Equal(t, "default_listing", amazon.GetString(item, "Offers.Listings.0.Id"))
	assert.Equal(t, "0,00 €", amazon.GetString(item, "Offers.Listings.0.Price.DisplayAmount"))
	// The brand doubles as manufacturer when none was ever recorded
	assert.Equal(t, "Marca", amazon.GetString(item, "ItemInfo.ByLineInfo.Manufacturer.DisplayValue"))
}

func TestExportProducts_ManualProductKeepsOwnManufacturer(t *testing.T) {
	p := manualProduct()
	p.Manufacturer = "Fabricante SA"

	repo := new(MockRepository)
	repo.On("GetAll", mock.Anything, mock.Anything).Return([]*models.Product{p}, nil)

	exp := exporter.New(repo, amazon.NewProcessor(amazon.NewTransformer(nil), nil), nil)
	path := exportPath(t)

	_, err := exp.ExportProducts(context.Background(), path, false)
	require.NoError(t, err)

	doc := decodeFile(t, path)
	item := doc["SearchResult"].(map[string]interface{})["Items"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "Fabricante SA", amazon.GetString(item, "ItemInfo.ByLineInfo.Manufacturer.DisplayValue"))
}

func TestExportProducts_Statistics(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetAll", mock.Anything, mock.Anything).
		Return([]*models.Product{importedProduct(), manualProduct()}, nil)

	exp := exporter.New(repo, amazon.NewProcessor(amazon.NewTransformer(nil), nil), nil)

	result, err := exp.ExportProducts(context.Background(), exportPath(t), false)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalExported)
	// The manual product exports a skeleton: empty image URL, zero price,
	// placeholder sales rank.
	assert.Equal(t, 1, result.WithImages)
	assert.Equal(t, 1, result.WithPrices)
	assert.Equal(t, 2, result.WithRankings)
}

func TestExportProducts_SkipsInactiveChildren(t *testing.T) {
	p := importedProduct()
	p.Prices = append(p.Prices, models.ProductPrice{ListingID: "stale", Amount: 999.0, IsActive: false})

	repo := new(MockRepository)
	repo.On("GetAll", mock.Anything, mock.Anything).Return([]*models.Product{p}, nil)

	exp := exporter.New(repo, amazon.NewProcessor(amazon.NewTransformer(nil), nil), nil)
	path := exportPath(t)

	_, err := exp.ExportProducts(context.Background(), path, false)
	require.NoError(t, err)

	doc := decodeFile(t, path)
	item := doc["SearchResult"].(map[string]interface{})["Items"].([]interface{})[0].(map[string]interface{})
	listings, _ := amazon.GetPath(item, "Offers.Listings")
	assert.Len(t, listings, 1)
}

func TestExportProducts_ConversionFailureCollected(t *testing.T) {
	broken := manualProduct()
	broken.Title = ""

	repo := new(MockRepository)
	repo.On("GetAll", mock.Anything, mock.Anything).
		Return([]*models.Product{broken, importedProduct()}, nil)

	exp := exporter.New(repo, amazon.NewProcessor(amazon.NewTransformer(nil), nil), nil)

	result, err := exp.ExportProducts(context.Background(), exportPath(t), false)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalProcessed)
	assert.Equal(t, 1, result.TotalExported)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "B01MANUAL0", result.Errors[0].ASIN)
}

func TestExportProducts_QueryFailure(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetAll", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	exp := exporter.New(repo, amazon.NewProcessor(amazon.NewTransformer(nil), nil), nil)

	_, err := exp.ExportProducts(context.Background(), exportPath(t), false)

	var eerr *exporter.Error
	require.ErrorAs(t, err, &eerr)
}

func TestExportProducts_CreatesMissingDirectory(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetAll", mock.Anything, mock.Anything).Return([]*models.Product{}, nil)

	exp := exporter.New(repo, amazon.NewProcessor(amazon.NewTransformer(nil), nil), nil)
	path := filepath.Join(t.TempDir(), "nested", "dir", "amazon.json")

	result, err := exp.ExportProducts(context.Background(), path, false)
	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalExported)

	doc := decodeFile(t, path)
	sr := doc["SearchResult"].(map[string]interface{})
	assert.Equal(t, float64(0), sr["TotalResultCount"])
}
