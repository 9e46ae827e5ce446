package store

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/erazemk/stylu/internal/db"
	"github.com/erazemk/stylu/internal/model"
)

func strPtr(s string) *string { return &s }

func TestCreateAndGetItem(t *testing.T) {
	s := db.NewTestStore(t)
	ctx := context.Background()
	ana := newCaller(t, s, "ana@example.com")
	sub := seedCatalog(s)

	item, err := CreateItem(ctx, s.Client, ana, model.ItemRow{
		UserID:        ana.UserID,
		SubcategoryID: sub,
		Name:          strPtr("Linen shirt"),
		ImageURL:      "https://cdn.example.com/shirt.jpg",
		CreatedBy:     "app",
	})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if item.ItemID == 0 || item.UserID == nil || *item.UserID != ana.UserID {
		t.Fatalf("unexpected created item %+v", item)
	}
	if item.CreatedAt == nil {
		t.Error("expected created_at to be echoed back")
	}

	row, err := GetItem(ctx, s.Client, ana, item.ItemID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if !strings.Contains(string(row), `"category":{"name":"Tops"}`) {
		t.Errorf("expected embedded category, got %s", row)
	}

	prefer := s.Writes()[0].Header.Get("Prefer")
	if prefer != "return=representation" {
		t.Errorf("expected return=representation on create, got %q", prefer)
	}
}

func TestItemsAreScopedToCaller(t *testing.T) {
	s := db.NewTestStore(t)
	ctx := context.Background()
	ana := newCaller(t, s, "ana@example.com")
	bor := newCaller(t, s, "bor@example.com")

	foreign := s.Seed(db.TableItem, map[string]any{"user_id": bor.UserID, "name": "Bor's coat"})
	id := foreign["item_id"].(int64)

	row, err := GetItem(ctx, s.Client, ana, id)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if row != nil {
		t.Errorf("expected foreign item to be invisible, got %s", row)
	}

	list, _ := ListItems(ctx, s.Client, ana)
	if string(list) != "[]" {
		t.Errorf("expected empty list, got %s", list)
	}

	if err := UpdateItem(ctx, s.Client, ana, id, map[string]any{"name": "Mine now"}); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if err := DeleteItem(ctx, s.Client, ana, id); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}

	rows := s.Rows(db.TableItem)
	if len(rows) != 1 || rows[0]["name"] != "Bor's coat" {
		t.Errorf("expected foreign item untouched, got %v", rows)
	}
}

func TestUpdateItem(t *testing.T) {
	s := db.NewTestStore(t)
	ctx := context.Background()
	ana := newCaller(t, s, "ana@example.com")

	seeded := s.Seed(db.TableItem, map[string]any{"user_id": ana.UserID, "name": "Scarf", "colour": "red"})

	patch := model.ItemPatch(model.Fields{"name": "Wool scarf"})
	if err := UpdateItem(ctx, s.Client, ana, seeded["item_id"].(int64), patch); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	row := s.Rows(db.TableItem)[0]
	if row["name"] != "Wool scarf" || row["colour"] != "red" {
		t.Errorf("expected sparse patch, got %v", row)
	}
	if _, ok := row["updated_at"]; !ok {
		t.Error("expected updated_at to be set")
	}

	w := s.Writes()[0]
	if w.Method != http.MethodPatch || w.Header.Get("Prefer") != "return=minimal" {
		t.Errorf("expected minimal PATCH, got %s %q", w.Method, w.Header.Get("Prefer"))
	}
}

func TestCountItemsByCategory(t *testing.T) {
	s := db.NewTestStore(t)
	ctx := context.Background()
	ana := newCaller(t, s, "ana@example.com")
	sub := seedCatalog(s)

	s.Seed(db.TableItem, map[string]any{"user_id": ana.UserID, "subcategory_id": sub})
	s.Seed(db.TableItem, map[string]any{"user_id": ana.UserID, "subcategory_id": sub})
	s.Seed(db.TableItem, map[string]any{"user_id": ana.UserID, "subcategory_id": nil})

	counts, err := CountItemsByCategory(ctx, s.Client, ana)
	if err != nil {
		t.Fatalf("CountItemsByCategory: %v", err)
	}
	if len(counts) != 1 || counts["Tops"] != 2 {
		t.Errorf("expected {Tops: 2}, got %v", counts)
	}
}

func TestCreateItemStoreFailure(t *testing.T) {
	s := db.NewTestStore(t)
	ana := newCaller(t, s, "ana@example.com")
	s.FailOn(http.MethodPost, "/rest/v1/item", http.StatusForbidden)

	_, err := CreateItem(context.Background(), s.Client, ana, model.ItemRow{UserID: ana.UserID})
	var se *db.StatusError
	if !errors.As(err, &se) || se.Status != http.StatusForbidden {
		t.Errorf("expected 403 status error, got %v", err)
	}
}

func TestListCategories(t *testing.T) {
	s := db.NewTestStore(t)
	ana := newCaller(t, s, "ana@example.com")
	seedCatalog(s)

	body, err := ListCategories(context.Background(), s.Client, ana)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}

	var cats []struct {
		Name        string           `json:"name"`
		SubCategory []map[string]any `json:"sub_category"`
	}
	if err := json.Unmarshal(body, &cats); err != nil {
		t.Fatal(err)
	}
	if len(cats) != 1 || cats[0].Name != "Tops" || len(cats[0].SubCategory) != 1 {
		t.Errorf("unexpected categories %s", body)
	}
}
