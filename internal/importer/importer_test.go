package importer_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/barradesonido/bsops/internal/amazon"
	"github.com/barradesonido/bsops/internal/database"
	"github.com/barradesonido/bsops/internal/importer"
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

func itemJSON(asin, title string) string {
	return `{
		"ASIN": "` + asin + `",
		"DetailPageURL": "https://www.amazon.es/dp/` + asin + `",
		"ItemInfo": {
			"Title": {"DisplayValue": "` + title + `"},
			"ByLineInfo": {"Brand": {"DisplayValue": "Sonos"}}
		}
	}`
}

func envelope(items ...string) []byte {
	return []byte(`{"SearchResult":{"Items":[` + strings.Join(items, ",") + `],"TotalResultCount":` +
		jsonInt(len(items)) + `}}`)
}

func jsonInt(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func newImporter(repo database.ProductRepository) *importer.Importer {
	processor := amazon.NewProcessor(amazon.NewTransformer(nil), nil)
	return importer.New(repo, processor, nil)
}

func TestImportProducts_NewProduct(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetByASIN", mock.Anything, "B01AAAAAA1").Return(nil, nil)
	repo.On("SaveAll", mock.Anything, mock.MatchedBy(func(ps []*models.Product) bool {
		return len(ps) == 1 && ps[0].ASIN == "B01AAAAAA1" && ps[0].Slug != ""
	})).Return(nil)

	imp := newImporter(repo)
	result, err := imp.ImportProducts(context.Background(), envelope(itemJSON("B01AAAAAA1", "Barra de sonido Sonos Arc")), false, 0)

	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalProcessed)
	assert.Equal(t, 1, result.SuccessfullyImported)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 0, result.Skipped)
	repo.AssertExpectations(t)
}

func TestImportProducts_ExistingSkippedWithoutForce(t *testing.T) {
	repo := new(MockRepository)
	existing := &models.Product{ASIN: "B01AAAAAA1", Title: "Old title", Slug: "old-title"}
	repo.On("GetByASIN", mock.Anything, "B01AAAAAA1").Return(existing, nil)
	repo.On("SaveAll", mock.Anything, mock.MatchedBy(func(ps []*models.Product) bool {
		return len(ps) == 0
	})).Return(nil)

	imp := newImporter(repo)
	result, err := imp.ImportProducts(context.Background(), envelope(itemJSON("B01AAAAAA1", "Nuevo título")), false, 0)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.SuccessfullyImported)
	assert.Equal(t, 0, result.Updated)
}

func TestImportProducts_ExistingUpdatedWithForce(t *testing.T) {
	repo := new(MockRepository)
	existing := &models.Product{ASIN: "B01AAAAAA1", Title: "Old title", Slug: "admin-slug"}
	repo.On("GetByASIN", mock.Anything, "B01AAAAAA1").Return(existing, nil)
	repo.On("SaveAll", mock.Anything, mock.MatchedBy(func(ps []*models.Product) bool {
		return len(ps) == 1 && ps[0].Title == "Nuevo título" && ps[0].Slug == "admin-slug"
	})).Return(nil)

	imp := newImporter(repo)
	result, err := imp.ImportProducts(context.Background(), envelope(itemJSON("B01AAAAAA1", "Nuevo título")), true, 0)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 0, result.Skipped)
	repo.AssertExpectations(t)
}

func TestImportProducts_InvalidJSON(t *testing.T) {
	imp := newImporter(new(MockRepository))

	_, err := imp.ImportProducts(context.Background(), []byte("{not json"), false, 0)

	var ierr *importer.Error
	require.ErrorAs(t, err, &ierr)
}

func TestImportProducts_MissingEnvelope(t *testing.T) {
	imp := newImporter(new(MockRepository))

	_, err := imp.ImportProducts(context.Background(), []byte(`{"Items":[]}`), false, 0)

	var ierr *importer.Error
	require.ErrorAs(t, err, &ierr)
	assert.Contains(t, err.Error(), "SearchResult.Items")
}

func TestImportProducts_ItemsNotAList(t *testing.T) {
	imp := newImporter(new(MockRepository))

	_, err := imp.ImportProducts(context.Background(), []byte(`{"SearchResult":{"Items":"nope"}}`), false, 0)

	var ierr *importer.Error
	require.ErrorAs(t, err, &ierr)
}

func TestImportProducts_PerItemFaultIsolation(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetByASIN", mock.Anything, "B01AAAAAA2").Return(nil, nil)
	repo.On("SaveAll", mock.Anything, mock.Anything).Return(nil)

	broken := `{"ASIN": "B01BROKEN1"}`
	imp := newImporter(repo)
	result, err := imp.ImportProducts(context.Background(), envelope(broken, itemJSON("B01AAAAAA2", "Barra válida")), false, 0)

	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalProcessed)
	assert.Equal(t, 1, result.SuccessfullyImported)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "B01BROKEN1", result.Errors[0].ASIN)
}

func TestImportProducts_LimitTruncates(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetByASIN", mock.Anything, "B01AAAAAA1").Return(nil, nil)
	repo.On("SaveAll", mock.Anything, mock.Anything).Return(nil)

	imp := newImporter(repo)
	result, err := imp.ImportProducts(context.Background(),
		envelope(itemJSON("B01AAAAAA1", "Primera"), itemJSON("B01AAAAAA2", "Segunda")), false, 1)

	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalProcessed)
	repo.AssertNotCalled(t, "GetByASIN", mock.Anything, "B01AAAAAA2")
}

func TestImportProducts_LookupFailureIsFatal(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetByASIN", mock.Anything, "B01AAAAAA1").Return(nil, errors.New("connection reset"))

	imp := newImporter(repo)
	_, err := imp.ImportProducts(context.Background(), envelope(itemJSON("B01AAAAAA1", "Barra")), false, 0)

	var ierr *importer.Error
	require.ErrorAs(t, err, &ierr)
	repo.AssertNotCalled(t, "SaveAll", mock.Anything, mock.Anything)
}

func TestImportProducts_SaveFailureIsFatal(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetByASIN", mock.Anything, "B01AAAAAA1").Return(nil, nil)
	repo.On("SaveAll", mock.Anything, mock.Anything).Return(errors.New("deadlock detected"))

	imp := newImporter(repo)
	_, err := imp.ImportProducts(context.Background(), envelope(itemJSON("B01AAAAAA1", "Barra")), false, 0)

	var ierr *importer.Error
	require.ErrorAs(t, err, &ierr)
}

func TestImportProducts_ProgressReported(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetByASIN", mock.Anything, mock.Anything).Return(nil, nil)
	repo.On("SaveAll", mock.Anything, mock.Anything).Return(nil)

	imp := newImporter(repo)
	var calls []int
	imp.Progress = func(done, total int) {
		calls = append(calls, done)
		assert.Equal(t, 2, total)
	}

	_, err := imp.ImportProducts(context.Background(),
		envelope(itemJSON("B01AAAAAA1", "Primera"), itemJSON("B01AAAAAA2", "Segunda")), false, 0)

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, calls)
}

func TestGenerateSlug(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Barra de sonido Sonos Arc", "barra-de-sonido-sonos-arc"},
		{"  ¡Increíble! Barra (2024)  ", "increíble-barra-2024"},
		{"Ñandú & Cía", "ñandú-cía"},
		{"---", ""},
		{"UPPER Case TITLE", "upper-case-title"},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, importer.GenerateSlug(c.title), "title %q", c.title)
	}
}

func TestGenerateSlug_CapsAt255Runes(t *testing.T) {
	long := strings.Repeat("título-", 100)
	slug := importer.GenerateSlug(long)

	assert.LessOrEqual(t, len([]rune(slug)), 255)
	assert.False(t, strings.HasSuffix(slug, "-"))
}

func TestGenerateSlug_Deterministic(t *testing.T) {
	a := importer.GenerateSlug("Barra de sonido LG SP8YA")
	b := importer.GenerateSlug("Barra de sonido LG SP8YA")
	assert.Equal(t, a, b)
}
