package catalog

import (
	"github.com/velvetrow/salon-platform/internal/square"
	"github.com/velvetrow/salon-platform/internal/translate"
)

const (
	// defaultVariationName is Square's auto-generated label for an item's
	// only variation; it never appears in a display name.
	defaultVariationName = "Regular"

	// defaultDurationMinutes applies when a variation carries no duration.
	defaultDurationMinutes = 60

	catalogTypeItem     = "ITEM"
	catalogTypeCategory = "CATEGORY"
)

// FromSquare maps one catalog item variation to a canonical service. The
// display name is the item name alone when the variation still carries
// Square's default label, otherwise "item - variation".
func FromSquare(item, variation square.CatalogObject, categoryName string) Service {
	svc := Service{
		ID:              variation.ID,
		Version:         variation.Version,
		Category:        categoryName,
		Cost:            0,
		DurationMinutes: defaultDurationMinutes,
	}

	itemName := ""
	if item.ItemData != nil {
		itemName = item.ItemData.Name
	}
	svc.Name = itemName

	if v := variation.VariationData; v != nil {
		if v.Name != "" && v.Name != defaultVariationName {
			svc.Name = itemName + " - " + v.Name
		}
		if v.PriceMoney != nil {
			svc.Cost = translate.MinorToDecimal(v.PriceMoney.Amount)
		}
		if v.ServiceDuration > 0 {
			svc.DurationMinutes = translate.MillisToMinutes(v.ServiceDuration)
		}
	}
	return svc
}

// Assemble flattens a full catalog listing into services: one per item
// variation, with category names resolved from the CATEGORY objects in the
// same listing. Deleted objects are skipped.
func Assemble(objects []square.CatalogObject) []Service {
	categories := make(map[string]string)
	for _, obj := range objects {
		if obj.Type == catalogTypeCategory && obj.CategoryData != nil && !obj.IsDeleted {
			categories[obj.ID] = obj.CategoryData.Name
		}
	}

	var services []Service
	for _, obj := range objects {
		if obj.Type != catalogTypeItem || obj.ItemData == nil || obj.IsDeleted {
			continue
		}
		categoryName := categories[obj.ItemData.CategoryID]
		for _, variation := range obj.ItemData.Variations {
			if variation.IsDeleted {
				continue
			}
			services = append(services, FromSquare(obj, variation, categoryName))
		}
	}
	return services
}
