package api

import (
	"net/http"

	"github.com/erazemk/stylu/internal/db"
	"github.com/erazemk/stylu/internal/model"
	"github.com/erazemk/stylu/internal/store"
)

// SettingsHandler handles profile and app preference endpoints.
type SettingsHandler struct {
	Store *db.Client
}

// GetProfile handles GET /api/settings/profile.
func (h *SettingsHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	profile, err := store.GetProfile(r.Context(), h.Store, caller)
	if err != nil {
		storeError(w, r, err, "Failed to fetch profile")
		return
	}
	if profile == nil {
		jsonError(w, http.StatusNotFound, "Profile not found")
		return
	}
	jsonResponse(w, http.StatusOK, profile)
}

// UpdateProfile handles PUT /api/settings/profile.
func (h *SettingsHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	in, err := decodeFields(r)
	if err != nil {
		badInput(w, err)
		return
	}

	password, _ := model.NewPassword(in)
	if err := store.UpdateProfile(r.Context(), h.Store, caller, model.ProfilePatch(in), password); err != nil {
		storeError(w, r, err, "Failed to update profile")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "Profile updated successfully"})
}

// GetSystem handles GET /api/settings/system.
func (h *SettingsHandler) GetSystem(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	settings, err := store.GetSystemSettings(r.Context(), h.Store, caller)
	if err != nil {
		storeError(w, r, err, "Failed to fetch system settings")
		return
	}
	if settings == nil {
		jsonError(w, http.StatusNotFound, "Settings not found")
		return
	}
	jsonResponse(w, http.StatusOK, settings)
}

// UpdateSystem handles PUT /api/settings/system.
func (h *SettingsHandler) UpdateSystem(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	in, err := decodeFields(r)
	if err != nil {
		badInput(w, err)
		return
	}

	patch, err := model.SystemSettingsPatch(in)
	if err != nil {
		badInput(w, err)
		return
	}

	if err := store.UpdateSystemSettings(r.Context(), h.Store, caller, patch); err != nil {
		storeError(w, r, err, "Failed to update system settings")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "System settings updated successfully"})
}
