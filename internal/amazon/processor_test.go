package amazon_test

import (
	"testing"

	"github.com/barradesonido/bsops/internal/amazon"
	"github.com/barradesonido/bsops/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProcessor() *amazon.Processor {
	return amazon.NewProcessor(amazon.NewTransformer(nil), nil)
}

func TestProcessItems_FaultIsolation(t *testing.T) {
	p := newProcessor()

	good := sampleItem()
	broken := sampleItem()
	amazon.SetPath(broken, "ItemInfo.Title.DisplayValue", "")
	broken["ASIN"] = "B0BROKEN00"

	records, errs := p.ProcessItems([]amazon.Document{good, broken, sampleItem()})

	assert.Len(t, records, 2)
	require.Len(t, errs, 1)
	assert.Equal(t, 1, errs[0].Index)
	assert.Equal(t, "B0BROKEN00", errs[0].ASIN)

	var verr *amazon.ValidationError
	assert.ErrorAs(t, errs[0].Err, &verr)
}

func TestProcessItems_UnknownASINOnError(t *testing.T) {
	p := newProcessor()

	records, errs := p.ProcessItems([]amazon.Document{{}})

	assert.Empty(t, records)
	require.Len(t, errs, 1)
	assert.Equal(t, "unknown", errs[0].ASIN)
}

func TestProcessItems_AllGood(t *testing.T) {
	p := newProcessor()

	records, errs := p.ProcessItems([]amazon.Document{sampleItem(), sampleItem()})

	assert.Len(t, records, 2)
	assert.Empty(t, errs)
}

func TestReverseProcessItems_FaultIsolation(t *testing.T) {
	p := newProcessor()

	good, err := p.ProcessItem(sampleItem())
	require.NoError(t, err)

	// No source document makes the record unexportable
	bad, err := models.NewProductRecord(models.ProductRecord{
		ASIN:          "B0NODOC000",
		Title:         "Producto",
		Brand:         "Marca",
		DetailPageURL: "https://www.amazon.es/dp/B0NODOC000",
	})
	require.NoError(t, err)

	docs, errs := p.ReverseProcessItems([]models.ProductRecord{good, bad})

	assert.Len(t, docs, 1)
	require.Len(t, errs, 1)
	assert.Equal(t, 1, errs[0].Index)
	assert.Equal(t, "B0NODOC000", errs[0].ASIN)
}
