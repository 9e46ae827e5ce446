package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/erazemk/stylu/internal/auth"
	"github.com/erazemk/stylu/internal/db"
	"github.com/erazemk/stylu/internal/model"
	"github.com/erazemk/stylu/internal/store"
)

// OutfitsHandler handles outfit endpoints.
type OutfitsHandler struct {
	Store *db.Client
}

type createOutfitResponse struct {
	Message  string          `json:"message"`
	OutfitID int64           `json:"outfitId"`
	Data     json.RawMessage `json:"data"`
}

// outfitInput validates an outfit payload before anything is written.
func outfitInput(r *http.Request) (string, []model.OutfitItem, error) {
	in, err := decodeFields(r)
	if err != nil {
		return "", nil, err
	}
	name, err := in.RequireString("name")
	if err != nil {
		return "", nil, err
	}
	items, _, err := model.OutfitItems(in)
	if err != nil {
		return "", nil, err
	}
	return name, items, nil
}

// List handles GET /api/outfit.
func (h *OutfitsHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	body, err := store.ListOutfits(r.Context(), h.Store, caller)
	if err != nil {
		status, details := upstreamStatus(err)
		logStoreError(r, status, err)
		jsonResponse(w, status, map[string]string{"error": "Failed to fetch outfits", "details": details})
		return
	}
	rawResponse(w, http.StatusOK, body)
}

// Create handles POST /api/outfit.
func (h *OutfitsHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	name, items, err := outfitInput(r)
	if err != nil {
		badInput(w, err)
		return
	}

	id, row, err := store.CreateOutfit(r.Context(), h.Store, caller, name, items)
	switch {
	case errors.Is(err, store.ErrPartialWrite):
		storeError(w, r, err, "Outfit created but failed to add items")
		return
	case errors.Is(err, store.ErrNoRowReturned):
		jsonError(w, http.StatusInternalServerError, "Outfit creation returned no data")
		return
	case err != nil:
		status, body := upstreamStatus(err)
		logStoreError(r, status, err)
		jsonError(w, status, "Failed to create outfit: "+body)
		return
	}

	jsonResponse(w, http.StatusOK, createOutfitResponse{
		Message:  "Outfit created successfully",
		OutfitID: id,
		Data:     row,
	})
}

// Update handles PUT /api/outfit/{id}.
func (h *OutfitsHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid outfit id")
		return
	}

	name, items, err := outfitInput(r)
	if err != nil {
		badInput(w, err)
		return
	}

	err = store.UpdateOutfit(r.Context(), h.Store, caller, id, name, items)
	switch {
	case errors.Is(err, store.ErrPartialWrite):
		storeError(w, r, err, "Failed to update items")
		return
	case err != nil:
		storeError(w, r, err, "Failed to update outfit")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "Outfit updated successfully"})
}

// Items handles GET /api/outfit/{id}/items.
func (h *OutfitsHandler) Items(w http.ResponseWriter, r *http.Request) {
	token, ok := requireToken(w, r)
	if !ok {
		return
	}

	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid outfit id")
		return
	}

	body, err := store.ListOutfitItems(r.Context(), h.Store, auth.Caller{Token: token}, id)
	if err != nil {
		storeError(w, r, err, "Failed to fetch outfit items")
		return
	}
	rawResponse(w, http.StatusOK, body)
}

// Delete handles DELETE /api/outfit/{id}.
func (h *OutfitsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid outfit id")
		return
	}

	if err := store.DeleteOutfit(r.Context(), h.Store, caller, id); err != nil {
		storeError(w, r, err, "Failed to delete outfit")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "Outfit deleted successfully"})
}
