package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/erazemk/stylu/internal/auth"
	"github.com/erazemk/stylu/internal/config"
	"github.com/erazemk/stylu/internal/db"
)

type testEnv struct {
	server *httptest.Server
	store  *db.TestStore
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	s := db.NewTestStore(t)

	cfg := config.Config{
		SupabaseURL:    s.URL,
		AnonKey:        db.TestAPIKey,
		JWTSecret:      db.TestJWTSecret,
		AllowedOrigins: []string{"*"},
	}
	server := httptest.NewServer(NewRouter(cfg, s.Client))
	t.Cleanup(server.Close)

	return &testEnv{server: server, store: s}
}

// signUp registers an account through the API and returns its token and id.
func (e *testEnv) signUp(t *testing.T, email string) (string, string) {
	t.Helper()

	resp := e.do(t, "POST", "/api/auth/signup", "", map[string]any{
		"email":     email,
		"password":  "hunter22",
		"firstName": "Ana",
		"lastName":  "Novak",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("signup failed: %d %s", resp.StatusCode, body)
	}

	var out struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
		UserID  string `json:"userId"`
	}
	json.NewDecoder(resp.Body).Decode(&out)
	if !out.Success || out.Token == "" || out.UserID == "" {
		t.Fatalf("unexpected signup response %+v", out)
	}
	return out.Token, out.UserID
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	req, err := authRequest(method, e.server.URL+path, token, body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func TestHealthz(t *testing.T) {
	env := setupTestServer(t)

	resp := env.do(t, "GET", "/healthz", "", nil)
	var out map[string]string
	decodeBody(t, resp, &out)
	if resp.StatusCode != http.StatusOK || out["status"] != "ok" {
		t.Errorf("unexpected health response %d %v", resp.StatusCode, out)
	}
}

func TestBearerMiddleware(t *testing.T) {
	env := setupTestServer(t)
	_, valid := env.store.CreateUser(t, "ana@example.com", "hunter22")

	foreign, _ := auth.GenerateToken("other-secret", env.store.Issuer, "u-1", "x@example.com", time.Hour)
	wrongIssuer, _ := auth.GenerateToken(db.TestJWTSecret, "https://elsewhere/auth/v1", "u-1", "x@example.com", time.Hour)
	expired, _ := auth.GenerateToken(db.TestJWTSecret, env.store.Issuer, "u-1", "x@example.com", -time.Hour)

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"wrong secret", foreign, http.StatusUnauthorized},
		{"wrong issuer", wrongIssuer, http.StatusUnauthorized},
		{"expired", expired, http.StatusUnauthorized},
		{"valid", valid, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, "GET", "/api/item", tt.token, nil)
			defer resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, resp.StatusCode)
			}
			if tt.status == http.StatusUnauthorized {
				var out map[string]string
				json.NewDecoder(resp.Body).Decode(&out)
				if out["error"] != "unauthorized" {
					t.Errorf("expected unauthorized envelope, got %v", out)
				}
			}
		})
	}

	// Rejected tokens never reach the store.
	for _, r := range env.store.Requests() {
		if r.Path == "/rest/v1/item" && r.Header.Get("Authorization") != "Bearer "+valid {
			t.Errorf("unexpected store request with %q", r.Header.Get("Authorization"))
		}
	}
}

func TestCORS(t *testing.T) {
	env := setupTestServer(t)

	req, _ := http.NewRequest(http.MethodOptions, env.server.URL+"/api/item", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204 for preflight, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("expected any origin, got %q", resp.Header.Get("Access-Control-Allow-Origin"))
	}
	if !strings.Contains(resp.Header.Get("Access-Control-Allow-Headers"), "Authorization") {
		t.Errorf("expected Authorization to be allowed, got %q", resp.Header.Get("Access-Control-Allow-Headers"))
	}
}

func TestCORSAllowList(t *testing.T) {
	handler := CORSMiddleware([]string{"https://app.stylu.io"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for origin, want := range map[string]string{
		"https://app.stylu.io": "https://app.stylu.io",
		"https://evil.example": "",
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/item", nil)
		req.Header.Set("Origin", origin)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != want {
			t.Errorf("origin %s: expected %q, got %q", origin, want, got)
		}
	}
}

func TestSignUpAndSignIn(t *testing.T) {
	env := setupTestServer(t)
	_, userID := env.signUp(t, "ana@example.com")

	rows := env.store.Rows(db.TableProfiles)
	if len(rows) != 1 || rows[0]["id"] != userID || rows[0]["first_name"] != "Ana" {
		t.Fatalf("expected profile row for the new user, got %v", rows)
	}

	resp := env.do(t, "POST", "/api/auth/signin", "", map[string]string{"email": "ana@example.com", "password": "hunter22"})
	var out struct {
		Success      bool           `json:"success"`
		Token        string         `json:"token"`
		RefreshToken string         `json:"refreshToken"`
		User         map[string]any `json:"user"`
	}
	decodeBody(t, resp, &out)
	if resp.StatusCode != http.StatusOK || !out.Success || out.Token == "" || out.RefreshToken == "" {
		t.Fatalf("unexpected signin response %d %+v", resp.StatusCode, out)
	}
	if out.User["id"] != userID {
		t.Errorf("expected user payload verbatim, got %v", out.User)
	}
}

func TestSignInFailure(t *testing.T) {
	env := setupTestServer(t)
	env.store.CreateUser(t, "ana@example.com", "hunter22")

	resp := env.do(t, "POST", "/api/auth/signin", "", map[string]string{"email": "ana@example.com", "password": "wrong"})
	var out map[string]any
	decodeBody(t, resp, &out)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
	if out["success"] != false || !strings.Contains(out["error"].(string), "invalid_grant") {
		t.Errorf("expected upstream body in error, got %v", out)
	}
}

func TestSignUpFailures(t *testing.T) {
	env := setupTestServer(t)
	env.store.CreateUser(t, "taken@example.com", "hunter22")

	resp := env.do(t, "POST", "/api/auth/signup", "", map[string]string{"email": "taken@example.com", "password": "hunter22"})
	var out map[string]any
	decodeBody(t, resp, &out)
	if resp.StatusCode != http.StatusBadRequest || !strings.Contains(out["error"].(string), "already registered") {
		t.Errorf("expected 400 with upstream body, got %d %v", resp.StatusCode, out)
	}

	env.store.FailOn(http.MethodPost, "/rest/v1/user_profiles", http.StatusForbidden)
	resp = env.do(t, "POST", "/api/auth/signup", "", map[string]string{"email": "new@example.com", "password": "hunter22"})
	out = nil
	decodeBody(t, resp, &out)
	if resp.StatusCode != http.StatusBadRequest || out["error"] != "Signup failed" || out["message"] == "" {
		t.Errorf("expected Signup failed envelope, got %d %v", resp.StatusCode, out)
	}
}

func TestItemsAPIFlow(t *testing.T) {
	env := setupTestServer(t)
	token, userID := env.signUp(t, "ana@example.com")

	cat := env.store.Seed(db.TableCategory, map[string]any{"name": "Tops"})
	sub := env.store.Seed(db.TableSubcategory, map[string]any{"category_id": cat["category_id"], "name": "T-shirt"})

	// Create.
	resp := env.do(t, "POST", "/api/item", token, map[string]any{
		"subcategoryId": sub["subcategory_id"],
		"name":          "Linen shirt",
		"price":         29.5,
		"imageUrl":      "https://cdn.example.com/shirt.jpg",
		"createdBy":     "app",
	})
	var created struct {
		Success bool           `json:"success"`
		Message string         `json:"message"`
		Data    map[string]any `json:"data"`
	}
	decodeBody(t, resp, &created)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Location") != "/api/item/1" {
		t.Errorf("expected Location /api/item/1, got %q", resp.Header.Get("Location"))
	}
	if created.Data["userId"] != userID || created.Data["timesWorn"] != float64(0) || created.Data["imageUrl"] == nil {
		t.Errorf("unexpected created item %v", created.Data)
	}

	// Get.
	resp = env.do(t, "GET", "/api/item/1", token, nil)
	var got map[string]any
	decodeBody(t, resp, &got)
	if resp.StatusCode != http.StatusOK || got["name"] != "Linen shirt" {
		t.Errorf("unexpected get response %d %v", resp.StatusCode, got)
	}

	// Update.
	resp = env.do(t, "PUT", "/api/item/1", token, map[string]any{"colour": "white"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 on update, got %d", resp.StatusCode)
	}
	if row := env.store.Rows(db.TableItem)[0]; row["colour"] != "white" || row["name"] != "Linen shirt" {
		t.Errorf("expected sparse update, got %v", row)
	}

	// Counts.
	resp = env.do(t, "GET", "/api/item/counts", token, nil)
	var counts map[string]int
	decodeBody(t, resp, &counts)
	if counts["Tops"] != 1 || len(counts) != 1 {
		t.Errorf("expected {Tops: 1}, got %v", counts)
	}

	// Categories.
	resp = env.do(t, "GET", "/api/item/categories", token, nil)
	var cats []map[string]any
	decodeBody(t, resp, &cats)
	if len(cats) != 1 {
		t.Errorf("expected one category, got %v", cats)
	}

	// Delete.
	resp = env.do(t, "DELETE", "/api/item/1", token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || len(env.store.Rows(db.TableItem)) != 0 {
		t.Errorf("expected item deleted, got %d", resp.StatusCode)
	}

	// Not found after delete.
	resp = env.do(t, "GET", "/api/item/1", token, nil)
	var nf map[string]string
	decodeBody(t, resp, &nf)
	if resp.StatusCode != http.StatusNotFound || nf["error"] != "Item not found" {
		t.Errorf("expected 404 Item not found, got %d %v", resp.StatusCode, nf)
	}
}

func TestItemCreateValidation(t *testing.T) {
	env := setupTestServer(t)
	token, _ := env.signUp(t, "ana@example.com")
	writesBefore := len(env.store.Writes())

	resp := env.do(t, "POST", "/api/item", token, map[string]any{"subcategoryId": 1, "createdBy": "app"})
	var out map[string]string
	decodeBody(t, resp, &out)
	if resp.StatusCode != http.StatusBadRequest || !strings.Contains(out["error"], "imageUrl") {
		t.Errorf("expected 400 naming imageUrl, got %d %v", resp.StatusCode, out)
	}
	if n := len(env.store.Writes()); n != writesBefore {
		t.Errorf("expected no outbound write, got %d new writes", n-writesBefore)
	}

	resp = env.do(t, "GET", "/api/item/abc", token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for non-numeric id, got %d", resp.StatusCode)
	}
}

func TestItemOwnershipIsolation(t *testing.T) {
	env := setupTestServer(t)
	anaToken, _ := env.signUp(t, "ana@example.com")
	_, borID := env.signUp(t, "bor@example.com")

	env.store.Seed(db.TableItem, map[string]any{"user_id": borID, "name": "Bor's coat"})

	resp := env.do(t, "GET", "/api/item/1", anaToken, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for a foreign item, got %d", resp.StatusCode)
	}

	resp = env.do(t, "PUT", "/api/item/1", anaToken, map[string]any{"name": "Stolen"})
	resp.Body.Close()
	resp = env.do(t, "DELETE", "/api/item/1", anaToken, nil)
	resp.Body.Close()

	rows := env.store.Rows(db.TableItem)
	if len(rows) != 1 || rows[0]["name"] != "Bor's coat" {
		t.Errorf("expected foreign item untouched, got %v", rows)
	}
}

func TestUpstreamStatusPropagates(t *testing.T) {
	env := setupTestServer(t)
	token, _ := env.signUp(t, "ana@example.com")

	env.store.FailOn(http.MethodGet, "/rest/v1/item", http.StatusServiceUnavailable)
	resp := env.do(t, "GET", "/api/item", token, nil)
	var out map[string]string
	decodeBody(t, resp, &out)
	if resp.StatusCode != http.StatusServiceUnavailable || out["error"] != "Failed to fetch items" {
		t.Errorf("expected 503 Failed to fetch items, got %d %v", resp.StatusCode, out)
	}

	env.store.FailOn(http.MethodGet, "/rest/v1/outfit", http.StatusBadRequest)
	resp = env.do(t, "GET", "/api/outfit", token, nil)
	out = nil
	decodeBody(t, resp, &out)
	if resp.StatusCode != http.StatusBadRequest || !strings.Contains(out["details"], "injected failure") {
		t.Errorf("expected upstream body in details, got %d %v", resp.StatusCode, out)
	}
}

func TestOutfitsAPIFlow(t *testing.T) {
	env := setupTestServer(t)
	token, _ := env.signUp(t, "ana@example.com")

	item := func(id int) map[string]any {
		return map[string]any{"itemId": id, "x": 0, "y": 0, "scale": 1, "width": 100, "height": 100}
	}

	resp := env.do(t, "POST", "/api/outfit", token, map[string]any{
		"name":  "Monday",
		"items": []any{item(1), item(2)},
	})
	var created struct {
		Message  string         `json:"message"`
		OutfitID int64          `json:"outfitId"`
		Data     map[string]any `json:"data"`
	}
	decodeBody(t, resp, &created)
	if resp.StatusCode != http.StatusOK || created.OutfitID != 1 || created.Data["outfit_name"] != "Monday" {
		t.Fatalf("unexpected create response %d %+v", resp.StatusCode, created)
	}
	if n := len(env.store.Rows(db.TableOutfitItem)); n != 2 {
		t.Errorf("expected 2 outfit items, got %d", n)
	}

	resp = env.do(t, "PUT", "/api/outfit/1", token, map[string]any{"name": "Tuesday", "items": []any{item(1)}})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on update, got %d", resp.StatusCode)
	}
	if n := len(env.store.Rows(db.TableOutfitItem)); n != 1 {
		t.Errorf("expected exactly one outfit item after update, got %d", n)
	}

	resp = env.do(t, "GET", "/api/outfit/1/items", token, nil)
	var items []map[string]any
	decodeBody(t, resp, &items)
	if len(items) != 1 {
		t.Errorf("expected one outfit item, got %v", items)
	}

	resp = env.do(t, "GET", "/api/outfit", token, nil)
	var outfits []map[string]any
	decodeBody(t, resp, &outfits)
	if len(outfits) != 1 || outfits[0]["outfit_name"] != "Tuesday" {
		t.Errorf("unexpected outfits %v", outfits)
	}

	resp = env.do(t, "DELETE", "/api/outfit/1", token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || len(env.store.Rows(db.TableOutfit)) != 0 {
		t.Errorf("expected outfit deleted, got %d", resp.StatusCode)
	}
}

func TestOutfitPartialFailures(t *testing.T) {
	env := setupTestServer(t)
	token, _ := env.signUp(t, "ana@example.com")
	items := []any{map[string]any{"itemId": 1, "x": 0, "y": 0, "scale": 1, "width": 100, "height": 100}}

	env.store.FailOn(http.MethodPost, "/rest/v1/outfit_item", http.StatusConflict)
	resp := env.do(t, "POST", "/api/outfit", token, map[string]any{"name": "Monday", "items": items})
	var out map[string]string
	decodeBody(t, resp, &out)
	if resp.StatusCode != http.StatusConflict || out["error"] != "Outfit created but failed to add items" {
		t.Errorf("unexpected response %d %v", resp.StatusCode, out)
	}
	if len(env.store.Rows(db.TableOutfit)) != 1 {
		t.Error("expected outfit to remain")
	}

	env.store.FailOn(http.MethodPost, "/rest/v1/outfit_item", http.StatusInternalServerError)
	resp = env.do(t, "PUT", "/api/outfit/1", token, map[string]any{"name": "Monday", "items": items})
	out = nil
	decodeBody(t, resp, &out)
	if resp.StatusCode != http.StatusInternalServerError || out["error"] != "Failed to update items" {
		t.Errorf("unexpected response %d %v", resp.StatusCode, out)
	}
	if n := len(env.store.Rows(db.TableOutfitItem)); n != 0 {
		t.Errorf("expected zero outfit items, got %d", n)
	}
}

func TestOutfitValidation(t *testing.T) {
	env := setupTestServer(t)
	token, _ := env.signUp(t, "ana@example.com")
	writesBefore := len(env.store.Writes())

	for _, body := range []map[string]any{
		{"items": []any{}},
		{"name": "Monday", "items": []any{map[string]any{"x": 0}}},
	} {
		resp := env.do(t, "POST", "/api/outfit", token, body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%v: expected 400, got %d", body, resp.StatusCode)
		}
	}
	if n := len(env.store.Writes()); n != writesBefore {
		t.Errorf("expected no outbound writes, got %d", n-writesBefore)
	}
}

func TestSettingsAPIFlow(t *testing.T) {
	env := setupTestServer(t)
	token, _ := env.signUp(t, "ana@example.com")

	resp := env.do(t, "GET", "/api/settings/profile", token, nil)
	var profile map[string]any
	decodeBody(t, resp, &profile)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if profile["firstName"] != "Ana" || profile["language"] != "en" || profile["notifyWeather"] != true {
		t.Errorf("expected profile with defaults, got %v", profile)
	}

	resp = env.do(t, "PUT", "/api/settings/profile", token, map[string]any{"phoneNumber": "+38640111222", "password": "new-password"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 on profile update, got %d", resp.StatusCode)
	}
	if got := env.store.Password("ana@example.com"); got != "new-password" {
		t.Errorf("expected password changed, got %q", got)
	}

	resp = env.do(t, "PUT", "/api/settings/system", token, map[string]any{"language": "fr"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for partial system settings, got %d", resp.StatusCode)
	}

	resp = env.do(t, "PUT", "/api/settings/system", token, map[string]any{
		"language":              "fr",
		"temperatureUnit":       "F",
		"defaultReminderTime":   "08:00",
		"weatherSensitivity":    "low",
		"notifyWeather":         false,
		"notifyOutfitReminders": false,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on system update, got %d", resp.StatusCode)
	}

	resp = env.do(t, "GET", "/api/settings/system", token, nil)
	var system map[string]any
	decodeBody(t, resp, &system)
	if system["language"] != "fr" || system["notifyWeather"] != false {
		t.Errorf("expected stored settings, got %v", system)
	}
}

func TestSettingsNotFound(t *testing.T) {
	env := setupTestServer(t)
	_, token := env.store.CreateUser(t, "ana@example.com", "hunter22")

	resp := env.do(t, "GET", "/api/settings/profile", token, nil)
	var out map[string]string
	decodeBody(t, resp, &out)
	if resp.StatusCode != http.StatusNotFound || out["error"] != "Profile not found" {
		t.Errorf("expected 404 Profile not found, got %d %v", resp.StatusCode, out)
	}

	resp = env.do(t, "GET", "/api/settings/system", token, nil)
	out = nil
	decodeBody(t, resp, &out)
	if resp.StatusCode != http.StatusNotFound || out["error"] != "Settings not found" {
		t.Errorf("expected 404 Settings not found, got %d %v", resp.StatusCode, out)
	}
}
