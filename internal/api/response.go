package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/stylu/internal/auth"
	"github.com/erazemk/stylu/internal/db"
	"github.com/erazemk/stylu/internal/model"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// rawResponse writes a JSON body received from the store unchanged.
func rawResponse(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// decodeFields decodes a JSON object body, keeping numbers exact.
func decodeFields(r *http.Request) (model.Fields, error) {
	defer r.Body.Close()
	return model.DecodeFields(r.Body)
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// requireToken answers 401 when the request carries no Authorization header.
func requireToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	token, err := auth.BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		jsonError(w, http.StatusUnauthorized, "Missing token")
		return "", false
	}
	return token, true
}

// requireCaller answers 401 unless the request carries a token with a subject.
func requireCaller(w http.ResponseWriter, r *http.Request) (auth.Caller, bool) {
	caller, err := auth.CallerFromHeader(r.Header.Get("Authorization"))
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		jsonError(w, http.StatusUnauthorized, "Missing token")
		return auth.Caller{}, false
	case err != nil:
		jsonError(w, http.StatusUnauthorized, "Invalid token")
		return auth.Caller{}, false
	}
	return caller, true
}

// upstreamStatus returns the store's status for err, or 500 when the store
// was never reached, together with the store's response body.
func upstreamStatus(err error) (int, string) {
	var se *db.StatusError
	if errors.As(err, &se) {
		return se.Status, se.Body
	}
	return http.StatusInternalServerError, ""
}

// storeError logs err and answers with the store's status and message.
func storeError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status, _ := upstreamStatus(err)
	logStoreError(r, status, err)
	jsonError(w, status, message)
}

func logStoreError(r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "store request failed", "path", r.URL.Path, "status", status, "error", err)
		return
	}
	slog.WarnContext(r.Context(), "store request rejected", "path", r.URL.Path, "status", status, "error", err)
}

// badInput answers 400 for a body that is not JSON or lacks a required field.
func badInput(w http.ResponseWriter, err error) {
	var missing *model.MissingFieldError
	if errors.As(err, &missing) {
		jsonError(w, http.StatusBadRequest, missing.Error())
		return
	}
	jsonError(w, http.StatusBadRequest, "invalid request body")
}
