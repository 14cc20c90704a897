package frontend_test

import (
	"context"
	"errors"
	"testing"

	"github.com/barradesonido/bsops/internal/database"
	"github.com/barradesonido/bsops/internal/frontend"
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

// displayable builds a product that passes the completeness filter.
func displayable(asin string, rank int) *models.Product {
	return &models.Product{
		ASIN:      asin,
		Title:     "Barra de sonido " + asin,
		Slug:      "barra-de-sonido-" + asin,
		Brand:     "Marca",
		AmazonURL: "https://www.amazon.es/dp/" + asin,
		IsActive:  true,
		Images: []models.ProductImage{
			{URL: "https://example.com/" + asin + ".jpg", IsPrimary: true, IsActive: true},
		},
		Prices: []models.ProductPrice{
			{Amount: 199.0, Currency: "EUR", DisplayAmount: "199,00 €", IsActive: true},
		},
		Rankings: []models.ProductRanking{
			{CategoryName: "Barras de sonido", SalesRank: rank, IsActive: true},
		},
	}
}

func TestHasCompleteData(t *testing.T) {
	assert.True(t, frontend.HasCompleteData(displayable("B01AAAAAA1", 1)))

	cases := map[string]func(*models.Product){
		"no image":        func(p *models.Product) { p.Images = nil },
		"inactive image":  func(p *models.Product) { p.Images[0].IsActive = false },
		"empty image url": func(p *models.Product) { p.Images[0].URL = "" },
		"no price":        func(p *models.Product) { p.Prices = nil },
		"zero price":      func(p *models.Product) { p.Prices[0].Amount = 0 },
		"inactive price":  func(p *models.Product) { p.Prices[0].IsActive = false },
		"no ranking":      func(p *models.Product) { p.Rankings = nil },
		"no title":        func(p *models.Product) { p.Title = "" },
		"no brand":        func(p *models.Product) { p.Brand = "" },
		"no url":          func(p *models.Product) { p.AmazonURL = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := displayable("B01AAAAAA1", 1)
			mutate(p)
			assert.False(t, frontend.HasCompleteData(p))
		})
	}
}

func TestTopRanked_OverFetchesAndFilters(t *testing.T) {
	incomplete := displayable("B01BROKEN0", 2)
	incomplete.Prices = nil

	repo := new(MockRepository)
	repo.On("GetAll", mock.Anything, database.QueryOptions{
		OnlyActive: true,
		OrderBy:    "sales_rank",
		OrderDir:   "ASC",
		Limit:      6,
	}).Return([]*models.Product{
		displayable("B01AAAAAA1", 1),
		incomplete,
		displayable("B01AAAAAA3", 3),
		displayable("B01AAAAAA4", 4),
	}, nil)

	q := frontend.NewQuerier(repo, nil)
	products, err := q.TopRanked(context.Background(), 2)

	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "B01AAAAAA1", products[0].ASIN)
	assert.Equal(t, "B01AAAAAA3", products[1].ASIN)
	repo.AssertExpectations(t)
}

func TestTopRanked_DeduplicatesByASIN(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetAll", mock.Anything, mock.Anything).Return([]*models.Product{
		displayable("B01AAAAAA1", 1),
		displayable("B01AAAAAA1", 5),
		displayable("B01AAAAAA2", 2),
	}, nil)

	q := frontend.NewQuerier(repo, nil)
	products, err := q.TopRanked(context.Background(), 0)

	require.NoError(t, err)
	require.Len(t, products, 2)
}

func TestByCategory_PassesFilter(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetAll", mock.Anything, mock.MatchedBy(func(opts database.QueryOptions) bool {
		return opts.Category == "Barras de sonido" && opts.Limit == 15
	})).Return([]*models.Product{}, nil)

	q := frontend.NewQuerier(repo, nil)
	_, err := q.ByCategory(context.Background(), "Barras de sonido", 5)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestTopRanked_RepositoryError(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetAll", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	q := frontend.NewQuerier(repo, nil)
	_, err := q.TopRanked(context.Background(), 10)
	assert.Error(t, err)
}
