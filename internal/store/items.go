package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/erazemk/stylu/internal/auth"
	"github.com/erazemk/stylu/internal/db"
	"github.com/erazemk/stylu/internal/model"
)

func itemQuery(caller auth.Caller) *db.Query {
	return db.From(db.TableItem).Eq("user_id", caller.UserID)
}

// ListItems returns the caller's items with their subcategory and category
// names embedded.
func ListItems(ctx context.Context, c *db.Client, caller auth.Caller) (json.RawMessage, error) {
	body, err := c.Select(ctx, caller.Token, itemQuery(caller).Select(db.ItemSelect...))
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return body, nil
}

// GetItem returns one of the caller's items, or nil if there is none with
// that id.
func GetItem(ctx context.Context, c *db.Client, caller auth.Caller, id int64) (json.RawMessage, error) {
	body, err := c.Select(ctx, caller.Token, itemQuery(caller).Eq("item_id", id).Select(db.ItemSelect...))
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}

	row, err := firstRow(body)
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return row, nil
}

// CountItemsByCategory returns how many of the caller's items fall in each
// category.
func CountItemsByCategory(ctx context.Context, c *db.Client, caller auth.Caller) (map[string]int, error) {
	body, err := c.Select(ctx, caller.Token, itemQuery(caller).Select(db.ItemSelect...))
	if err != nil {
		return nil, fmt.Errorf("counting items: %w", err)
	}

	rows, err := model.DecodeRows(body)
	if err != nil {
		return nil, fmt.Errorf("counting items: %w", err)
	}
	return model.CountByCategory(rows), nil
}

// CreateItem inserts row and returns the created item.
func CreateItem(ctx context.Context, c *db.Client, caller auth.Caller, row model.ItemRow) (*model.Item, error) {
	body, err := c.Insert(ctx, caller.Token, db.TableItem, row, db.ReturnRepresentation)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	rows, err := model.DecodeRows(body)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("creating item: %w", ErrNoRowReturned)
	}

	item := model.ItemFromRow(rows[0])
	return &item, nil
}

// UpdateItem applies patch to one of the caller's items.
func UpdateItem(ctx context.Context, c *db.Client, caller auth.Caller, id int64, patch map[string]any) error {
	if _, err := c.Update(ctx, caller.Token, itemQuery(caller).Eq("item_id", id), patch, db.ReturnMinimal); err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return nil
}

// DeleteItem deletes one of the caller's items. Deleting an item that does
// not exist succeeds.
func DeleteItem(ctx context.Context, c *db.Client, caller auth.Caller, id int64) error {
	if err := c.Delete(ctx, caller.Token, itemQuery(caller).Eq("item_id", id)); err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}
