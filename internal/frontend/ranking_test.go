package frontend_test

import (
	"context"
	"testing"

	"github.com/barradesonido/bsops/internal/database"
	"github.com/barradesonido/bsops/internal/frontend"
	"github.com/barradesonido/bsops/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newRanking(repo *MockRepository) *frontend.Ranking {
	return frontend.NewRanking(
		frontend.NewQuerier(repo, nil),
		frontend.NewScoreGenerator(1, nil),
		frontend.NewFormatter(nil),
		nil,
	)
}

func TestTopProducts_AssignsPositions(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetAll", mock.Anything, mock.Anything).Return([]*models.Product{
		displayable("B01AAAAAA1", 1),
		displayable("B01AAAAAA2", 2),
		displayable("B01AAAAAA3", 3),
	}, nil)

	r := newRanking(repo)
	entries, err := r.TopProducts(context.Background(), "", 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	for i, entry := range entries {
		assert.Equal(t, i+1, entry.Position)
	}
	assert.Equal(t, "#1 MEJOR OPCIÓN 2024", entries[0].Rating.SpecialBadge)
	assert.Empty(t, entries[1].Rating.SpecialBadge)
	assert.Equal(t, "#3 MEJOR VALOR 2024", entries[2].Rating.SpecialBadge)
}

func TestTopProducts_RecordsStats(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetAll", mock.Anything, mock.Anything).Return([]*models.Product{
		displayable("B01AAAAAA1", 1),
		displayable("B01AAAAAA2", 2),
	}, nil)

	r := newRanking(repo)
	_, err := r.TopProducts(context.Background(), "", 0)
	require.NoError(t, err)

	stats := r.LastStats()
	assert.Equal(t, 2, stats.ProductsQueried)
	assert.Equal(t, 2, stats.ProductsProcessed)
	assert.GreaterOrEqual(t, stats.ProcessingTimeMS, 0.0)
}

func TestSoundbarRanking_UsesDefaultCategory(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetAll", mock.Anything, mock.MatchedBy(func(opts database.QueryOptions) bool {
		return opts.Category == frontend.DefaultCategory
	})).Return([]*models.Product{}, nil)

	r := newRanking(repo)
	entries, err := r.SoundbarRanking(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHasAvailableProducts(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetAll", mock.Anything, mock.Anything).Return([]*models.Product{
		displayable("B01AAAAAA1", 1),
	}, nil)

	r := newRanking(repo)
	ok, err := r.HasAvailableProducts(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHasAvailableProducts_Empty(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetAll", mock.Anything, mock.Anything).Return([]*models.Product{}, nil)

	r := newRanking(repo)
	ok, err := r.HasAvailableProducts(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProductCount(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetAll", mock.Anything, mock.Anything).Return([]*models.Product{
		displayable("B01AAAAAA1", 1),
		displayable("B01AAAAAA2", 2),
		displayable("B01AAAAAA3", 3),
	}, nil)

	r := newRanking(repo)
	count, err := r.ProductCount(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
