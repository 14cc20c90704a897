package amazon_test

import (
	"testing"

	"github.com/barradesonido/bsops/internal/amazon"
	"github.com/barradesonido/bsops/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleItem() amazon.Document {
	return amazon.Document{
		"ASIN":          "B01ABCDEFG",
		"DetailPageURL": "https://www.amazon.es/dp/B01ABCDEFG",
		"ItemInfo": map[string]interface{}{
			"Title": map[string]interface{}{
				"DisplayValue": "Barra de sonido Bose Smart Soundbar 600",
				"Label":        "Title",
				"Locale":       "es_ES",
			},
			"ByLineInfo": map[string]interface{}{
				"Brand": map[string]interface{}{
					"DisplayValue": "Bose",
					"Label":        "Brand",
					"Locale":       "es_ES",
				},
				"Manufacturer": map[string]interface{}{
					"DisplayValue": "Bose Corporation",
					"Label":        "Manufacturer",
					"Locale":       "es_ES",
				},
			},
			"Features": map[string]interface{}{
				"DisplayValues": []interface{}{"Dolby Atmos", "Bluetooth 5.0"},
				"Label":         "Features",
				"Locale":        "es_ES",
			},
		},
		"Images": map[string]interface{}{
			"Primary": map[string]interface{}{
				"Large": map[string]interface{}{
					"URL":    "https://m.media-amazon.com/images/I/soundbar.jpg",
					"Width":  500,
					"Height": 500,
				},
			},
		},
		"Offers": map[string]interface{}{
			"Listings": []interface{}{
				map[string]interface{}{
					"Id": "listing-original",
					"Price": map[string]interface{}{
						"Amount":        499.95,
						"Currency":      "EUR",
						"DisplayAmount": "499,95 €",
						"Savings": map[string]interface{}{
							"Amount":        50.0,
							"Currency":      "EUR",
							"DisplayAmount": "50,00 €",
							"Percentage":    9,
						},
					},
					"DeliveryInfo": map[string]interface{}{
						"IsFreeShippingEligible": true,
					},
					"ViolatesMAP": false,
				},
			},
		},
		"BrowseNodeInfo": map[string]interface{}{
			"BrowseNodes": []interface{}{
				map[string]interface{}{
					"Id":              "1384102031",
					"DisplayName":     "Barras de sonido",
					"ContextFreeName": "Barras de sonido",
					"SalesRank":       3,
					"IsRoot":          false,
				},
			},
		},
	}
}

func TestTransform_ExtractsAllFields(t *testing.T) {
	tr := amazon.NewTransformer(nil)

	rec, err := tr.Transform(sampleItem())
	require.NoError(t, err)

	assert.Equal(t, "B01ABCDEFG", rec.ASIN)
	assert.Equal(t, "Barra de sonido Bose Smart Soundbar 600", rec.Title)
	assert.Equal(t, "Bose", rec.Brand)
	assert.Equal(t, "Bose Corporation", rec.Manufacturer)
	assert.Equal(t, "https://www.amazon.es/dp/B01ABCDEFG", rec.DetailPageURL)
	assert.Equal(t, []string{"Dolby Atmos", "Bluetooth 5.0"}, rec.Features)

	require.Len(t, rec.Images, 1)
	assert.Equal(t, "https://m.media-amazon.com/images/I/soundbar.jpg", rec.Images[0].URL)
	assert.True(t, rec.Images[0].IsPrimary)
	assert.Equal(t, 500, rec.Images[0].Width)

	require.Len(t, rec.Prices, 1)
	assert.Equal(t, "listing-original", rec.Prices[0].ListingID)
	assert.Equal(t, 499.95, rec.Prices[0].Amount)
	assert.Equal(t, 50.0, rec.Prices[0].SavingsAmount)
	assert.Equal(t, 9, rec.Prices[0].SavingsPercentage)
	assert.True(t, rec.Prices[0].IsFreeShipping)

	require.Len(t, rec.Rankings, 1)
	assert.Equal(t, "1384102031", rec.Rankings[0].CategoryID)
	assert.Equal(t, 3, rec.Rankings[0].SalesRank)

	assert.NotNil(t, rec.RawDocument)
}

func TestTransform_MissingRequiredField(t *testing.T) {
	tr := amazon.NewTransformer(nil)

	for _, path := range []string{
		"ASIN",
		"ItemInfo.Title.DisplayValue",
		"ItemInfo.ByLineInfo.Brand.DisplayValue",
		"DetailPageURL",
	} {
		item := sampleItem()
		amazon.SetPath(item, path, "")

		_, err := tr.Transform(item)
		require.Error(t, err, "expected error for missing %s", path)

		var verr *amazon.ValidationError
		assert.ErrorAs(t, err, &verr)
		assert.Contains(t, err.Error(), path)
	}
}

func TestTransform_MinimalItemDefaults(t *testing.T) {
	tr := amazon.NewTransformer(nil)
	item := amazon.Document{
		"ASIN":          "B0MINIMAL0",
		"DetailPageURL": "https://www.amazon.es/dp/B0MINIMAL0",
		"ItemInfo": map[string]interface{}{
			"Title":      map[string]interface{}{"DisplayValue": "Producto básico"},
			"ByLineInfo": map[string]interface{}{"Brand": map[string]interface{}{"DisplayValue": "Marca"}},
		},
	}

	rec, err := tr.Transform(item)
	require.NoError(t, err)

	assert.Empty(t, rec.Manufacturer)
	assert.Equal(t, []string{}, rec.Features)
	assert.Empty(t, rec.Images)
	assert.Empty(t, rec.Prices)
	assert.Empty(t, rec.Rankings)
}

func TestReverseTransform_RoundTripPreservesUnmodeledFields(t *testing.T) {
	tr := amazon.NewTransformer(nil)
	item := sampleItem()
	item["CustomerReviews"] = map[string]interface{}{"Count": 1234}

	rec, err := tr.Transform(item)
	require.NoError(t, err)

	out, err := tr.ReverseTransform(rec)
	require.NoError(t, err)

	// Unmodeled fields survive via the preserved original document
	v, ok := amazon.GetPath(out, "CustomerReviews.Count")
	require.True(t, ok)
	assert.Equal(t, 1234, v)

	assert.Equal(t, "B01ABCDEFG", amazon.GetString(out, "ASIN"))
	assert.Equal(t, "Bose", amazon.GetString(out, "ItemInfo.ByLineInfo.Brand.DisplayValue"))
	assert.Equal(t, "es_ES", amazon.GetString(out, "ItemInfo.Title.Locale"))
}

func TestReverseTransform_KeepsOriginalListingID(t *testing.T) {
	tr := amazon.NewTransformer(nil)

	rec, err := tr.Transform(sampleItem())
	require.NoError(t, err)
	rec.Prices[0].Amount = 449.00
	rec.Prices[0].ListingID = "different-id"

	out, err := tr.ReverseTransform(rec)
	require.NoError(t, err)

	assert.Equal(t, "listing-original", amazon.GetString(out, "Offers.Listings.0.Id"))
	assert.Equal(t, 449.00, amazon.GetFloat(out, "Offers.Listings.0.Price.Amount"))
}

func TestReverseTransform_OmitsSavingsWhenZero(t *testing.T) {
	tr := amazon.NewTransformer(nil)

	rec, err := tr.Transform(sampleItem())
	require.NoError(t, err)
	rec.Prices[0].SavingsAmount = 0

	out, err := tr.ReverseTransform(rec)
	require.NoError(t, err)

	_, ok := amazon.GetPath(out, "Offers.Listings.0.Price.Savings")
	assert.False(t, ok)
}

func TestReverseTransform_EmptyListsLeaveOriginalUntouched(t *testing.T) {
	tr := amazon.NewTransformer(nil)

	rec, err := tr.Transform(sampleItem())
	require.NoError(t, err)
	rec.Prices = nil
	rec.Rankings = nil
	rec.Images = nil

	out, err := tr.ReverseTransform(rec)
	require.NoError(t, err)

	// Original sub-documents stay as they were
	assert.Equal(t, 499.95, amazon.GetFloat(out, "Offers.Listings.0.Price.Amount"))
	assert.Equal(t, 3, amazon.GetInt(out, "BrowseNodeInfo.BrowseNodes.0.SalesRank"))
	assert.Equal(t, "https://m.media-amazon.com/images/I/soundbar.jpg",
		amazon.GetString(out, "Images.Primary.Large.URL"))
}

func TestReverseTransform_BrowseNodeFallbacks(t *testing.T) {
	tr := amazon.NewTransformer(nil)

	rec, err := models.NewProductRecord(models.ProductRecord{
		ASIN:          "B0SKELETON",
		Title:         "Producto manual",
		Brand:         "Marca",
		DetailPageURL: "https://www.amazon.es/dp/B0SKELETON",
		Rankings:      []models.RankingRecord{{}},
		RawDocument:   amazon.Document{"ASIN": "B0SKELETON"},
	})
	require.NoError(t, err)

	out, err := tr.ReverseTransform(rec)
	require.NoError(t, err)

	assert.Equal(t, amazon.FallbackCategoryID, amazon.GetString(out, "BrowseNodeInfo.BrowseNodes.0.Id"))
	assert.Equal(t, amazon.FallbackCategoryName, amazon.GetString(out, "BrowseNodeInfo.BrowseNodes.0.DisplayName"))
	assert.Equal(t, 1, amazon.GetInt(out, "BrowseNodeInfo.BrowseNodes.0.SalesRank"))
	assert.False(t, amazon.GetBool(out, "BrowseNodeInfo.BrowseNodes.0.IsRoot"))
}

func TestReverseTransform_EnsuresRequiredPaths(t *testing.T) {
	tr := amazon.NewTransformer(nil)

	rec, err := models.NewProductRecord(models.ProductRecord{
		ASIN:          "B0MINIMAL0",
		Title:         "Producto",
		Brand:         "Marca",
		DetailPageURL: "https://www.amazon.es/dp/B0MINIMAL0",
		RawDocument:   amazon.Document{"ASIN": "B0MINIMAL0"},
	})
	require.NoError(t, err)

	out, err := tr.ReverseTransform(rec)
	require.NoError(t, err)

	// Price amount gets an explicit zero so the shape matches imports
	v, ok := amazon.GetPath(out, "Offers.Listings.0.Price.Amount")
	require.True(t, ok)
	assert.Equal(t, 0.0, v)
}

func TestReverseTransform_MissingSourceDocument(t *testing.T) {
	tr := amazon.NewTransformer(nil)

	rec, err := models.NewProductRecord(models.ProductRecord{
		ASIN:          "B0NODOC000",
		Title:         "Producto",
		Brand:         "Marca",
		DetailPageURL: "https://www.amazon.es/dp/B0NODOC000",
	})
	require.NoError(t, err)

	_, err = tr.ReverseTransform(rec)
	require.Error(t, err)

	var verr *amazon.ValidationError
	assert.ErrorAs(t, err, &verr)
}
