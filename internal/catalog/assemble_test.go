package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velvetrow/salon-platform/internal/square"
)

func TestFromSquareNaming(t *testing.T) {
	item := square.CatalogObject{
		Type: "ITEM",
		ID:   "item-1",
		ItemData: &square.CatalogItem{
			Name:       "Haircut",
			CategoryID: "cat-1",
		},
	}
	regular := square.CatalogObject{
		Type:    "ITEM_VARIATION",
		ID:      "var-regular",
		Version: 7,
		VariationData: &square.CatalogVariation{
			Name:            "Regular",
			PriceMoney:      &square.Money{Amount: 3000, Currency: "USD"},
			ServiceDuration: 1_800_000,
		},
	}
	deluxe := square.CatalogObject{
		Type:    "ITEM_VARIATION",
		ID:      "var-deluxe",
		Version: 9,
		VariationData: &square.CatalogVariation{
			Name:            "Deluxe",
			PriceMoney:      &square.Money{Amount: 5000, Currency: "USD"},
			ServiceDuration: 2_400_000,
		},
	}

	svc := FromSquare(item, regular, "Hair")
	assert.Equal(t, "Haircut", svc.Name, "default variation keeps the bare item name")
	assert.Equal(t, 30.0, svc.Cost)
	assert.Equal(t, 30, svc.DurationMinutes)
	assert.Equal(t, "var-regular", svc.ID, "identity comes from the variation")
	assert.Equal(t, int64(7), svc.Version)

	svc = FromSquare(item, deluxe, "Hair")
	assert.Equal(t, "Haircut - Deluxe", svc.Name)
	assert.Equal(t, 50.0, svc.Cost)
	assert.Equal(t, 40, svc.DurationMinutes)
}

func TestFromSquareDefaults(t *testing.T) {
	item := square.CatalogObject{ItemData: &square.CatalogItem{Name: "Consultation"}}
	bare := square.CatalogObject{ID: "var-1", VariationData: &square.CatalogVariation{Name: "Regular"}}

	svc := FromSquare(item, bare, "")
	assert.Zero(t, svc.Cost, "missing price maps to 0")
	assert.Equal(t, 60, svc.DurationMinutes, "missing duration falls back to the standard slot")
}

func TestAssembleResolvesCategoriesAndSkipsDeleted(t *testing.T) {
	objects := []square.CatalogObject{
		{Type: "CATEGORY", ID: "cat-1", CategoryData: &square.CatalogCategory{Name: "Hair"}},
		{Type: "CATEGORY", ID: "cat-gone", CategoryData: &square.CatalogCategory{Name: "Old"}, IsDeleted: true},
		{
			Type: "ITEM",
			ID:   "item-1",
			ItemData: &square.CatalogItem{
				Name:       "Haircut",
				CategoryID: "cat-1",
				Variations: []square.CatalogObject{
					{Type: "ITEM_VARIATION", ID: "var-1", VariationData: &square.CatalogVariation{Name: "Regular"}},
					{Type: "ITEM_VARIATION", ID: "var-dead", IsDeleted: true, VariationData: &square.CatalogVariation{Name: "Deluxe"}},
				},
			},
		},
		{Type: "ITEM", ID: "item-dead", IsDeleted: true, ItemData: &square.CatalogItem{Name: "Gone"}},
		{
			Type: "ITEM",
			ID:   "item-2",
			ItemData: &square.CatalogItem{
				Name:       "Color",
				CategoryID: "cat-unknown",
				Variations: []square.CatalogObject{
					{Type: "ITEM_VARIATION", ID: "var-2", VariationData: &square.CatalogVariation{Name: "Regular"}},
				},
			},
		},
	}

	services := Assemble(objects)
	require.Len(t, services, 2)
	assert.Equal(t, "var-1", services[0].ID)
	assert.Equal(t, "Hair", services[0].Category)
	assert.Empty(t, services[1].Category, "unknown category id resolves to empty")
}
