package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/stylu/internal/db"
	"github.com/erazemk/stylu/internal/model"
	"github.com/erazemk/stylu/internal/store"
)

// AuthHandler handles account endpoints.
type AuthHandler struct {
	Store *db.Client
}

type signUpResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	UserID  string `json:"userId"`
}

type signInResponse struct {
	Success      bool            `json:"success"`
	Token        string          `json:"token"`
	RefreshToken string          `json:"refreshToken"`
	User         json.RawMessage `json:"user"`
}

type authFailure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// SignUp handles POST /api/auth/signup.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req model.SignUpRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonResponse(w, http.StatusBadRequest, authFailure{Error: "Signup failed", Message: err.Error()})
		return
	}

	resp, err := store.SignUp(r.Context(), h.Store, req)
	if err != nil {
		var se *db.StatusError
		if errors.As(err, &se) && !errors.Is(err, store.ErrPartialWrite) {
			slog.Warn("signup rejected", "email", req.Email, "status", se.Status)
			jsonResponse(w, http.StatusBadRequest, authFailure{Error: se.Body})
			return
		}
		slog.Error("signup failed", "email", req.Email, "error", err)
		jsonResponse(w, http.StatusBadRequest, authFailure{Error: "Signup failed", Message: err.Error()})
		return
	}

	slog.Info("user signed up", "user_id", resp.UserID())
	jsonResponse(w, http.StatusOK, signUpResponse{Success: true, Token: resp.AccessToken, UserID: resp.UserID()})
}

// SignIn handles POST /api/auth/signin.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req model.SignInRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonResponse(w, http.StatusBadRequest, authFailure{Error: "Signin failed", Message: err.Error()})
		return
	}

	resp, err := store.SignIn(r.Context(), h.Store, req)
	if err != nil {
		var se *db.StatusError
		if errors.As(err, &se) {
			slog.Warn("login failed", "email", req.Email, "remote", r.RemoteAddr)
			jsonResponse(w, http.StatusUnauthorized, authFailure{Error: se.Body})
			return
		}
		slog.Error("signin failed", "error", err)
		jsonResponse(w, http.StatusBadRequest, authFailure{Error: "Signin failed", Message: err.Error()})
		return
	}

	user := resp.User
	if len(user) == 0 {
		user = json.RawMessage("null")
	}

	slog.Info("user logged in", "user_id", resp.UserID())
	jsonResponse(w, http.StatusOK, signInResponse{
		Success:      true,
		Token:        resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		User:         user,
	})
}
