package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/erazemk/stylu/internal/auth"
	"github.com/erazemk/stylu/internal/db"
	"github.com/erazemk/stylu/internal/model"
	"github.com/erazemk/stylu/internal/store"
)

// ItemsHandler handles wardrobe item endpoints.
type ItemsHandler struct {
	Store *db.Client
}

type createItemResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Data    model.Item `json:"data"`
}

// Categories handles GET /api/item/categories.
func (h *ItemsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	token, ok := requireToken(w, r)
	if !ok {
		return
	}

	// Categories are shared, so only the token is needed.
	body, err := store.ListCategories(r.Context(), h.Store, auth.Caller{Token: token})
	if err != nil {
		storeError(w, r, err, "Failed to fetch categories")
		return
	}
	rawResponse(w, http.StatusOK, body)
}

// List handles GET /api/item.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	body, err := store.ListItems(r.Context(), h.Store, caller)
	if err != nil {
		storeError(w, r, err, "Failed to fetch items")
		return
	}
	rawResponse(w, http.StatusOK, body)
}

// Get handles GET /api/item/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	row, err := store.GetItem(r.Context(), h.Store, caller, id)
	if err != nil {
		storeError(w, r, err, "Failed to fetch item")
		return
	}
	if row == nil {
		jsonError(w, http.StatusNotFound, "Item not found")
		return
	}
	rawResponse(w, http.StatusOK, row)
}

// Counts handles GET /api/item/counts.
func (h *ItemsHandler) Counts(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	counts, err := store.CountItemsByCategory(r.Context(), h.Store, caller)
	if err != nil {
		storeError(w, r, err, "Failed to fetch item counts")
		return
	}
	jsonResponse(w, http.StatusOK, counts)
}

// Create handles POST /api/item.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	in, err := decodeFields(r)
	if err != nil {
		badInput(w, err)
		return
	}

	row, err := model.NewItemRow(in, caller.UserID)
	if err != nil {
		badInput(w, err)
		return
	}

	item, err := store.CreateItem(r.Context(), h.Store, caller, row)
	if errors.Is(err, store.ErrNoRowReturned) {
		jsonError(w, http.StatusInternalServerError, "Item creation returned no data")
		return
	}
	if err != nil {
		storeError(w, r, err, "Failed to create item")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/item/%d", item.ItemID))
	jsonResponse(w, http.StatusCreated, createItemResponse{
		Success: true,
		Message: "Item created successfully",
		Data:    *item,
	})
}

// Update handles PUT /api/item/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	in, err := decodeFields(r)
	if err != nil {
		badInput(w, err)
		return
	}

	if err := store.UpdateItem(r.Context(), h.Store, caller, id, model.ItemPatch(in)); err != nil {
		storeError(w, r, err, "Failed to update item")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "Item updated successfully"})
}

// Delete handles DELETE /api/item/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := store.DeleteItem(r.Context(), h.Store, caller, id); err != nil {
		storeError(w, r, err, "Failed to delete item")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "Item deleted successfully"})
}
