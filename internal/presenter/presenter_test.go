package presenter

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stwalsh4118/property-analyzer/internal/models"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "average_price_per_sqft", expected: "Average Price Per Sqft"},
		{input: "has_parking", expected: "Has Parking"},
		{input: "city", expected: "City"},
		{input: "is_pet_friendly", expected: "Is Pet Friendly"},
		{input: "price_USD", expected: "Price USD"},
		{input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		value    models.Value
		expected string
	}{
		{name: "price as currency", field: "price", value: models.Number(1250000), expected: "$1,250,000"},
		{name: "price per sqft", field: "average_price_per_sqft", value: models.Number(1850.6), expected: "$1,851"},
		{name: "negative price", field: "price", value: models.Number(-300), expected: "-$300"},
		{name: "price as text", field: "price", value: models.String("AED 2.1M"), expected: "AED 2.1M"},
		{name: "area with unit", field: "area", value: models.Number(1200), expected: "1,200 sqft"},
		{name: "area as text", field: "area", value: models.String("1,000 - 3,200"), expected: "1,000 - 3,200"},
		{name: "area-like field untouched", field: "area_size", value: models.Number(1200), expected: "1200"},
		{name: "boolean true", field: "has_parking", value: models.Bool(true), expected: "Yes"},
		{name: "boolean false", field: "has_garden", value: models.Bool(false), expected: "No"},
		{name: "boolean on price field", field: "price", value: models.Bool(true), expected: "Yes"},
		{name: "null", field: "developer", value: models.Null(), expected: "Not Mentioned"},
		{name: "null price", field: "price", value: models.Null(), expected: "Not Mentioned"},
		{name: "plain string", field: "property_name", value: models.String("Marina Heights"), expected: "Marina Heights"},
		{name: "plain number", field: "bedrooms", value: models.Number(3), expected: "3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatValue(tt.field, tt.value))
		})
	}
}

func TestFormatField_Absent(t *testing.T) {
	record := models.PropertyRecord{}
	assert.Equal(t, NotMentioned, FormatField(record, "developer"))
}

func TestPresent_NilRecord(t *testing.T) {
	view := Present(nil)

	assert.False(t, view.HasData)
	assert.Empty(t, view.Groups)
	assert.Empty(t, view.Description)
}

func TestPresent_GroupsOnlyMatchingFields(t *testing.T) {
	record := models.PropertyRecord{
		"price":         models.Number(500000),
		"has_parking":   models.Bool(true),
		"unknown_field": models.String("x"),
	}

	view := Present(record)

	require.True(t, view.HasData)
	require.Len(t, view.Groups, 2)

	assert.Equal(t, "Pricing", view.Groups[0].Label)
	assert.Equal(t, []FieldView{{Key: "price", Label: "Price", Value: "$500,000"}}, view.Groups[0].Fields)

	assert.Equal(t, "Amenities", view.Groups[1].Label)
	assert.Equal(t, []FieldView{{Key: "has_parking", Label: "Has Parking", Value: "Yes"}}, view.Groups[1].Fields)

	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, view))
	assert.NotContains(t, buf.String(), "unknown_field")
	assert.NotContains(t, buf.String(), "Unknown Field")
	assert.NotContains(t, buf.String(), "Location")
}

func TestPresent_CatalogOrder(t *testing.T) {
	record := models.PropertyRecord{
		"handover":  models.String("Q1 2026"),
		"area":      models.Number(1200),
		"bedrooms":  models.Number(2),
		"developer": models.Null(),
	}

	view := Present(record)

	require.Len(t, view.Groups, 2)
	assert.Equal(t, "Property Information", view.Groups[0].Label)
	assert.Equal(t, "Not Mentioned", view.Groups[0].Fields[0].Value)

	specs := view.Groups[1]
	assert.Equal(t, "Specifications", specs.Label)
	keys := make([]string, 0, len(specs.Fields))
	for _, f := range specs.Fields {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"bedrooms", "area", "handover"}, keys)
	assert.Equal(t, "1,200 sqft", specs.Fields[1].Value)
}

func TestPresent_Description(t *testing.T) {
	t.Run("rendered standalone", func(t *testing.T) {
		record := models.PropertyRecord{
			"description":   models.String("Waterfront living.\nPrivate beach."),
			"property_name": models.String("Marina Heights"),
		}

		view := Present(record)

		assert.Equal(t, "Waterfront living.\nPrivate beach.", view.Description)
		require.Len(t, view.Groups, 1)
		for _, f := range view.Groups[0].Fields {
			assert.NotEqual(t, "description", f.Key)
		}
	})

	t.Run("empty description omitted", func(t *testing.T) {
		view := Present(models.PropertyRecord{"description": models.String("")})

		assert.True(t, view.HasData)
		assert.Empty(t, view.Description)
		assert.Empty(t, view.Groups)
	})

	t.Run("null description omitted", func(t *testing.T) {
		view := Present(models.PropertyRecord{"description": models.Null()})
		assert.Empty(t, view.Description)
	})
}

func TestPresent_DoesNotMutateRecord(t *testing.T) {
	record := models.PropertyRecord{"price": models.Number(1)}
	_ = Present(record)

	assert.Len(t, record, 1)
	n, ok := record["price"].AsNumber()
	assert.True(t, ok)
	assert.Equal(t, 1.0, n)
}

func TestPresentPage(t *testing.T) {
	record := models.PropertyRecord{"city": models.String("Dubai")}

	t.Run("placeholder only when idle without record", func(t *testing.T) {
		page := PresentPage(PageState{})

		assert.Equal(t, NoDataMessage, page.Placeholder)
		assert.Nil(t, page.Property)
		assert.False(t, page.Loading)
		assert.Empty(t, page.Error)
		assert.Empty(t, page.LoadingMessage)
	})

	t.Run("loading hides record", func(t *testing.T) {
		page := PresentPage(PageState{Loading: true, Record: record})

		assert.True(t, page.Loading)
		assert.Equal(t, LoadingMessage, page.LoadingMessage)
		assert.Nil(t, page.Property)
		assert.Empty(t, page.Placeholder)
	})

	t.Run("error hides record", func(t *testing.T) {
		page := PresentPage(PageState{Error: "boom", Record: record})

		assert.Equal(t, "boom", page.Error)
		assert.Nil(t, page.Property)
		assert.Empty(t, page.Placeholder)
	})

	t.Run("record shown when idle", func(t *testing.T) {
		page := PresentPage(PageState{Record: record})

		require.NotNil(t, page.Property)
		assert.Equal(t, "Location", page.Property.Groups[0].Label)
		assert.Empty(t, page.Placeholder)
	})
}

func TestRenderText(t *testing.T) {
	t.Run("no data", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderText(&buf, Present(nil)))
		assert.Equal(t, NoDataMessage+"\n", buf.String())
	})

	t.Run("grouped output", func(t *testing.T) {
		record := models.PropertyRecord{
			"description": models.String("Line one\nLine two"),
			"price":       models.Number(1250000),
			"city":        models.String("Dubai"),
		}

		var buf bytes.Buffer
		require.NoError(t, RenderText(&buf, Present(record)))

		out := buf.String()
		assert.Contains(t, out, "Description\n-----------\nLine one\nLine two\n")
		assert.Contains(t, out, "Location\n--------\nCity: Dubai\n")
		assert.Contains(t, out, "Pricing\n-------\nPrice: $1,250,000\n")
		assert.Less(t, bytes.Index(buf.Bytes(), []byte("Location")), bytes.Index(buf.Bytes(), []byte("Pricing")))
	})
}
