package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/erazemk/stylu/internal/auth"
	"github.com/erazemk/stylu/internal/db"
	"github.com/erazemk/stylu/internal/model"
)

// ListOutfits returns the caller's outfits with their items and layouts.
func ListOutfits(ctx context.Context, c *db.Client, caller auth.Caller) (json.RawMessage, error) {
	q := db.From(db.TableOutfit).Eq("user_id", caller.UserID).Select(db.OutfitSelect...)
	body, err := c.Select(ctx, caller.Token, q)
	if err != nil {
		return nil, fmt.Errorf("listing outfits: %w", err)
	}
	return body, nil
}

// ListOutfitItems returns the items placed in an outfit. It filters by outfit
// id only and relies on the store's row security for ownership.
func ListOutfitItems(ctx context.Context, c *db.Client, caller auth.Caller, outfitID int64) (json.RawMessage, error) {
	q := db.From(db.TableOutfitItem).Eq("outfit_id", outfitID).Select(db.OutfitItemSelect...)
	body, err := c.Select(ctx, caller.Token, q)
	if err != nil {
		return nil, fmt.Errorf("listing outfit items: %w", err)
	}
	return body, nil
}

// CreateOutfit creates an outfit and then places items in it. It returns the
// new outfit id and row. If placing the items fails the outfit is kept and
// the error wraps ErrPartialWrite.
func CreateOutfit(ctx context.Context, c *db.Client, caller auth.Caller, name string, items []model.OutfitItem) (int64, json.RawMessage, error) {
	body, err := c.Insert(ctx, caller.Token, db.TableOutfit,
		model.OutfitRow{UserID: caller.UserID, OutfitName: name}, db.ReturnRepresentation)
	if err != nil {
		return 0, nil, fmt.Errorf("creating outfit: %w", err)
	}

	row, err := firstRow(body)
	if err != nil {
		return 0, nil, fmt.Errorf("creating outfit: %w", err)
	}
	if row == nil {
		return 0, nil, fmt.Errorf("creating outfit: %w", ErrNoRowReturned)
	}

	var created struct {
		OutfitID int64 `json:"outfit_id"`
	}
	if err := json.Unmarshal(row, &created); err != nil {
		return 0, nil, fmt.Errorf("reading outfit id: %w", err)
	}

	if err := addOutfitItems(ctx, c, caller, created.OutfitID, items); err != nil {
		return created.OutfitID, row, fmt.Errorf("adding outfit items: %w: %w", ErrPartialWrite, err)
	}

	return created.OutfitID, row, nil
}

// UpdateOutfit renames one of the caller's outfits, removes all of its items
// and places items in their stead. The three steps are independent calls; if
// placing the new items fails the outfit is left empty and the error wraps
// ErrPartialWrite.
func UpdateOutfit(ctx context.Context, c *db.Client, caller auth.Caller, id int64, name string, items []model.OutfitItem) error {
	q := db.From(db.TableOutfit).Eq("outfit_id", id).Eq("user_id", caller.UserID)
	if _, err := c.Update(ctx, caller.Token, q, model.OutfitRow{OutfitName: name}, db.PreferNone); err != nil {
		return fmt.Errorf("updating outfit: %w", err)
	}

	if err := c.Delete(ctx, caller.Token, db.From(db.TableOutfitItem).Eq("outfit_id", id)); err != nil {
		slog.WarnContext(ctx, "clearing outfit items failed", "outfit_id", id, "error", err)
	}

	if err := addOutfitItems(ctx, c, caller, id, items); err != nil {
		return fmt.Errorf("replacing outfit items: %w: %w", ErrPartialWrite, err)
	}
	return nil
}

// DeleteOutfit deletes one of the caller's outfits.
func DeleteOutfit(ctx context.Context, c *db.Client, caller auth.Caller, id int64) error {
	q := db.From(db.TableOutfit).Eq("outfit_id", id).Eq("user_id", caller.UserID)
	if err := c.Delete(ctx, caller.Token, q); err != nil {
		return fmt.Errorf("deleting outfit: %w", err)
	}
	return nil
}

func addOutfitItems(ctx context.Context, c *db.Client, caller auth.Caller, outfitID int64, items []model.OutfitItem) error {
	if len(items) == 0 {
		return nil
	}
	_, err := c.Insert(ctx, caller.Token, db.TableOutfitItem, model.OutfitItemRows(outfitID, items), db.PreferNone)
	return err
}
