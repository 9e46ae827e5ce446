package model

// ServerNow is sent as the value of updated_at; the store resolves it.
const ServerNow = "now()"

// Item is an item row in the shape the app uses.
type Item struct {
	ItemID        int64    `json:"itemId"`
	UserID        *string  `json:"userId"`
	SubcategoryID int64    `json:"subcategoryId"`
	Name          *string  `json:"name"`
	Colour        *string  `json:"colour"`
	Material      *string  `json:"material"`
	Size          *string  `json:"size"`
	Price         *float64 `json:"price"`
	ImageURL      *string  `json:"imageUrl"`
	WeatherTag    *string  `json:"weatherTag"`
	TimesWorn     int64    `json:"timesWorn"`
	CreatedBy     *string  `json:"createdBy"`
	CreatedAt     *string  `json:"createdAt"`
}

// ItemRow is an item insert in the shape the store expects.
type ItemRow struct {
	UserID        string   `json:"user_id"`
	SubcategoryID int64    `json:"subcategory_id"`
	Name          *string  `json:"name"`
	Colour        *string  `json:"colour"`
	Material      *string  `json:"material"`
	Size          *string  `json:"size"`
	Price         *float64 `json:"price"`
	ImageURL      string   `json:"image_url"`
	WeatherTag    *string  `json:"weather_tag"`
	TimesWorn     int      `json:"times_worn"`
	CreatedBy     string   `json:"created_by"`
}

// ItemFromRow maps a store row to the app shape.
func ItemFromRow(row Fields) Item {
	id, _ := row.Int("item_id")
	subcategoryID, _ := row.Int("subcategory_id")
	timesWorn, _ := row.Int("times_worn")

	return Item{
		ItemID:        id,
		UserID:        row.String("user_id"),
		SubcategoryID: subcategoryID,
		Name:          row.String("name"),
		Colour:        row.String("colour"),
		Material:      row.String("material"),
		Size:          row.String("size"),
		Price:         row.Number("price"),
		ImageURL:      row.String("image_url"),
		WeatherTag:    row.String("weather_tag"),
		TimesWorn:     timesWorn,
		CreatedBy:     row.String("created_by"),
		CreatedAt:     row.String("created_at"),
	}
}

// NewItemRow maps a create payload to an insert row owned by userID.
// subcategoryId, imageUrl and createdBy are required; the wear counter always
// starts at zero.
func NewItemRow(in Fields, userID string) (ItemRow, error) {
	subcategoryID, err := in.RequireInt("subcategoryId")
	if err != nil {
		return ItemRow{}, err
	}
	imageURL, err := in.RequireString("imageUrl")
	if err != nil {
		return ItemRow{}, err
	}
	createdBy, err := in.RequireString("createdBy")
	if err != nil {
		return ItemRow{}, err
	}

	return ItemRow{
		UserID:        userID,
		SubcategoryID: subcategoryID,
		Name:          in.String("name"),
		Colour:        in.String("colour"),
		Material:      in.String("material"),
		Size:          in.String("size"),
		Price:         in.Number("price"),
		ImageURL:      imageURL,
		WeatherTag:    in.String("weatherTag"),
		TimesWorn:     0,
		CreatedBy:     createdBy,
	}, nil
}

// ItemPatch builds a sparse update: only fields present in the payload are
// included, plus updated_at. A price that is not a number is left out.
func ItemPatch(in Fields) map[string]any {
	patch := map[string]any{"updated_at": ServerNow}

	for _, m := range []struct{ from, to string }{
		{"name", "name"},
		{"colour", "colour"},
		{"material", "material"},
		{"size", "size"},
		{"weatherTag", "weather_tag"},
	} {
		if in.Has(m.from) {
			patch[m.to] = in.String(m.from)
		}
	}

	if price := in.Number("price"); price != nil {
		patch["price"] = *price
	}

	return patch
}

// CountByCategory tallies rows by their embedded sub_category.category.name.
// Rows without a category name are skipped.
func CountByCategory(rows []Fields) map[string]int {
	counts := make(map[string]int)
	for _, row := range rows {
		name := row.Object("sub_category").Object("category").String("name")
		if name == nil || *name == "" {
			continue
		}
		counts[*name]++
	}
	return counts
}
