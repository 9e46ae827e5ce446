package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/erazemk/stylu/internal/auth"
	"github.com/erazemk/stylu/internal/db"
)

// ListCategories returns every category with its subcategories. Categories
// are shared reference data, so no user filter applies.
func ListCategories(ctx context.Context, c *db.Client, caller auth.Caller) (json.RawMessage, error) {
	body, err := c.Select(ctx, caller.Token, db.From(db.TableCategory).Select(db.CategorySelect...))
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return body, nil
}
