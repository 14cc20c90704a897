package models_test

import (
	"testing"

	"github.com/barradesonido/bsops/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportResult_ValueSemantics(t *testing.T) {
	base := models.ImportResult{}

	bumped := base.IncrementProcessed().IncrementImported()

	assert.Equal(t, 0, base.TotalProcessed)
	assert.Equal(t, 1, bumped.TotalProcessed)
	assert.Equal(t, 1, bumped.SuccessfullyImported)
}

func TestImportResult_AddErrorDoesNotAliasSlices(t *testing.T) {
	base := models.ImportResult{}.AddError("B01AAAAAA1", "first")

	a := base.AddError("B01AAAAAA2", "second")
	b := base.AddError("B01AAAAAA3", "third")

	require.Len(t, base.Errors, 1)
	require.Len(t, a.Errors, 2)
	require.Len(t, b.Errors, 2)
	assert.Equal(t, "second", a.Errors[1].Error)
	assert.Equal(t, "third", b.Errors[1].Error)
	assert.Equal(t, 2, a.Failed)
}

func TestImportResult_Counters(t *testing.T) {
	r := models.ImportResult{}
	r = r.IncrementProcessed()
	r = r.IncrementProcessed()
	r = r.IncrementProcessed()
	r = r.IncrementImported()
	r = r.IncrementUpdated()
	r = r.IncrementSkipped()

	assert.Equal(t, 3, r.TotalProcessed)
	assert.Equal(t, 1, r.SuccessfullyImported)
	assert.Equal(t, 1, r.Updated)
	assert.Equal(t, 1, r.Skipped)
	assert.Equal(t, 0, r.Failed)
}

func TestExportResult_Statistics(t *testing.T) {
	r := models.ExportResult{}.
		IncrementProcessed().
		IncrementExported().
		WithStatistics(5, 4, 3).
		WithFilePath("/tmp/amazon.json")

	assert.Equal(t, 1, r.TotalProcessed)
	assert.Equal(t, 1, r.TotalExported)
	assert.Equal(t, 5, r.WithImages)
	assert.Equal(t, 4, r.WithPrices)
	assert.Equal(t, 3, r.WithRankings)
	assert.Equal(t, "/tmp/amazon.json", r.FilePath)
}
