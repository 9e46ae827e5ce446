package db

import "github.com/erazemk/stylu/internal/model"

// Tables exposed by the store.
const (
	TableProfiles    = "user_profiles"
	TableCategory    = "category"
	TableSubcategory = "sub_category"
	TableItem        = "item"
	TableOutfit      = "outfit"
	TableOutfitItem  = "outfit_item"
)

// Select clauses used by the gateway's reads.
var (
	CategorySelect   = []string{"*", Embed(TableSubcategory)}
	ItemSelect       = []string{"*", Embed(TableSubcategory, "name", Embed(TableCategory, "name"))}
	OutfitSelect     = []string{"*", Embed(TableOutfitItem, "item_id", "layout_data", Embed(TableItem))}
	OutfitItemSelect = []string{"*", Embed(TableItem)}

	ProfileSelect        = append([]string{"first_name", "last_name", "phone_number", "email"}, model.SystemSettingsColumns...)
	SystemSettingsSelect = model.SystemSettingsColumns
)
