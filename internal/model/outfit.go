package model

import "fmt"

// LayoutData places an item on the outfit canvas.
type LayoutData struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Scale  float64 `json:"scale"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
}

// OutfitRow is an outfit insert or name patch.
type OutfitRow struct {
	UserID     string `json:"user_id,omitempty"`
	OutfitName string `json:"outfit_name"`
}

// OutfitItem is one entry of an outfit's items payload.
type OutfitItem struct {
	ItemID int64
	Layout LayoutData
}

// OutfitItemRow is an outfit_item insert.
type OutfitItemRow struct {
	OutfitID   int64      `json:"outfit_id"`
	ItemID     int64      `json:"item_id"`
	LayoutData LayoutData `json:"layout_data"`
}

// OutfitItems parses the optional items array of an outfit payload.
// present is false when the key is missing or null.
func OutfitItems(in Fields) (items []OutfitItem, present bool, err error) {
	raw, ok := in["items"]
	if !ok || raw == nil {
		return nil, false, nil
	}

	list, ok := raw.([]any)
	if !ok {
		return nil, true, &MissingFieldError{Field: "items"}
	}

	items = make([]OutfitItem, 0, len(list))
	for i, v := range list {
		entry, ok := v.(map[string]any)
		if !ok {
			return nil, true, &MissingFieldError{Field: fmt.Sprintf("items[%d]", i)}
		}
		item, err := parseOutfitItem(Fields(entry))
		if err != nil {
			return nil, true, err
		}
		items = append(items, item)
	}
	return items, true, nil
}

func parseOutfitItem(f Fields) (OutfitItem, error) {
	var (
		item OutfitItem
		err  error
	)
	if item.ItemID, err = f.RequireInt("itemId"); err != nil {
		return OutfitItem{}, err
	}
	if item.Layout.X, err = f.RequireNumber("x"); err != nil {
		return OutfitItem{}, err
	}
	if item.Layout.Y, err = f.RequireNumber("y"); err != nil {
		return OutfitItem{}, err
	}
	if item.Layout.Scale, err = f.RequireNumber("scale"); err != nil {
		return OutfitItem{}, err
	}
	width, err := f.RequireInt("width")
	if err != nil {
		return OutfitItem{}, err
	}
	height, err := f.RequireInt("height")
	if err != nil {
		return OutfitItem{}, err
	}
	item.Layout.Width = int(width)
	item.Layout.Height = int(height)
	return item, nil
}

// OutfitItemRows builds one outfit_item row per entry, all pointing at outfitID.
func OutfitItemRows(outfitID int64, items []OutfitItem) []OutfitItemRow {
	rows := make([]OutfitItemRow, len(items))
	for i, item := range items {
		rows[i] = OutfitItemRow{
			OutfitID:   outfitID,
			ItemID:     item.ItemID,
			LayoutData: item.Layout,
		}
	}
	return rows
}
