package db

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/erazemk/stylu/internal/auth"
	"github.com/google/uuid"
)

// Credentials of the fake store started by NewTestStore.
const (
	TestAPIKey    = "test-anon-key"
	TestJWTSecret = "test-jwt-secret"
)

// RecordedRequest is one request received by the fake store.
type RecordedRequest struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     []byte
}

// TestStore is an in-memory stand-in for the Supabase REST and auth APIs. It
// understands eq filters, select clauses with nested embeds, Prefer headers
// and the GoTrue sign-up, password grant and user update endpoints. It does
// not apply row level security, so every filter must come from the caller.
type TestStore struct {
	Client *Client
	URL    string
	Issuer string

	// PendingConfirmation makes sign-up return the bare user object without
	// a session, as GoTrue does while e-mail confirmation is pending.
	PendingConfirmation bool

	mu       sync.Mutex
	tables   map[string][]map[string]any
	nextID   map[string]int64
	users    map[string]*testUser
	requests []RecordedRequest
	failures []failure
}

type testUser struct {
	ID       string
	Email    string
	Password string
	Metadata map[string]any
}

type failure struct {
	method string
	prefix string
	status int
}

type relation struct {
	table   string
	local   string
	foreign string
	many    bool
}

var primaryKeys = map[string]string{
	TableCategory:    "category_id",
	TableSubcategory: "subcategory_id",
	TableItem:        "item_id",
	TableOutfit:      "outfit_id",
	TableOutfitItem:  "outfit_item_id",
}

var relations = map[string]map[string]relation{
	TableCategory: {
		TableSubcategory: {table: TableSubcategory, local: "category_id", foreign: "category_id", many: true},
	},
	TableSubcategory: {
		TableCategory: {table: TableCategory, local: "category_id", foreign: "category_id"},
	},
	TableItem: {
		TableSubcategory: {table: TableSubcategory, local: "subcategory_id", foreign: "subcategory_id"},
	},
	TableOutfit: {
		TableOutfitItem: {table: TableOutfitItem, local: "outfit_id", foreign: "outfit_id", many: true},
	},
	TableOutfitItem: {
		TableItem: {table: TableItem, local: "item_id", foreign: "item_id"},
	},
}

// NewTestStore starts a fake store on an httptest server and returns it with
// a client pointed at it. The server is closed when the test ends.
func NewTestStore(t *testing.T) *TestStore {
	t.Helper()

	s := &TestStore{
		tables: make(map[string][]map[string]any),
		nextID: make(map[string]int64),
		users:  make(map[string]*testUser),
	}
	for _, table := range []string{TableProfiles, TableCategory, TableSubcategory, TableItem, TableOutfit, TableOutfitItem} {
		s.tables[table] = nil
	}

	srv := httptest.NewServer(http.HandlerFunc(s.serveHTTP))
	t.Cleanup(srv.Close)

	s.URL = srv.URL
	s.Issuer = srv.URL + "/auth/v1"

	client, err := Open(srv.URL, TestAPIKey, srv.Client())
	if err != nil {
		t.Fatalf("opening test store client: %v", err)
	}
	s.Client = client

	return s
}

// CreateUser registers an account directly and returns its id and a signed
// access token.
func (s *TestStore) CreateUser(t *testing.T, email, password string) (string, string) {
	t.Helper()

	s.mu.Lock()
	defer s.mu.Unlock()

	u := &testUser{ID: uuid.NewString(), Email: email, Password: password}
	s.users[email] = u

	token, err := s.issueToken(u)
	if err != nil {
		t.Fatalf("issuing test token: %v", err)
	}
	return u.ID, token
}

// Password returns the current password of the account with email.
func (s *TestStore) Password(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[email]; ok {
		return u.Password
	}
	return ""
}

// Seed inserts row into table and returns it with its generated key.
func (s *TestStore) Seed(table string, row map[string]any) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	return copyRow(s.insert(table, row))
}

// Rows returns a copy of every row in table.
func (s *TestStore) Rows(table string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]map[string]any, 0, len(s.tables[table]))
	for _, row := range s.tables[table] {
		out = append(out, copyRow(row))
	}
	return out
}

// Requests returns every request received so far.
func (s *TestStore) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]RecordedRequest(nil), s.requests...)
}

// Writes returns the received requests that were not reads.
func (s *TestStore) Writes() []RecordedRequest {
	var out []RecordedRequest
	for _, r := range s.Requests() {
		if r.Method != http.MethodGet {
			out = append(out, r)
		}
	}
	return out
}

// FailOn makes the next request matching method and path prefix answer with
// status instead of being served.
func (s *TestStore) FailOn(method, pathPrefix string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures = append(s.failures, failure{method: method, prefix: pathPrefix, status: status})
}

func (s *TestStore) serveHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, RecordedRequest{
		Method:   r.Method,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
		Header:   r.Header.Clone(),
		Body:     body,
	})

	if r.Header.Get("apikey") != TestAPIKey {
		writeStoreJSON(w, http.StatusUnauthorized, map[string]any{"message": "Invalid API key"})
		return
	}

	for i, f := range s.failures {
		if f.method == r.Method && strings.HasPrefix(r.URL.Path, f.prefix) {
			s.failures = append(s.failures[:i], s.failures[i+1:]...)
			writeStoreJSON(w, f.status, map[string]any{"message": "injected failure"})
			return
		}
	}

	switch {
	case strings.HasPrefix(r.URL.Path, "/rest/v1/"):
		s.serveRest(w, r, strings.TrimPrefix(r.URL.Path, "/rest/v1/"), body)
	case r.URL.Path == "/auth/v1/signup" && r.Method == http.MethodPost:
		s.serveSignUp(w, body)
	case r.URL.Path == "/auth/v1/token" && r.Method == http.MethodPost:
		s.serveToken(w, r, body)
	case r.URL.Path == "/auth/v1/user" && r.Method == http.MethodPut:
		s.serveUpdateUser(w, r, body)
	default:
		writeStoreJSON(w, http.StatusNotFound, map[string]any{"message": "not found"})
	}
}

func (s *TestStore) serveRest(w http.ResponseWriter, r *http.Request, table string, body []byte) {
	if _, ok := s.tables[table]; !ok {
		writeStoreJSON(w, http.StatusNotFound, map[string]any{
			"code":    "42P01",
			"message": fmt.Sprintf("relation %q does not exist", table),
		})
		return
	}

	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		writeStoreJSON(w, http.StatusUnauthorized, map[string]any{"message": "missing authorization"})
		return
	}

	query := r.URL.Query()
	filters := make(map[string]string)
	for key, values := range query {
		if key == "select" || len(values) == 0 {
			continue
		}
		v, ok := strings.CutPrefix(values[0], "eq.")
		if !ok {
			writeStoreJSON(w, http.StatusBadRequest, map[string]any{"message": "unsupported operator in " + key})
			return
		}
		filters[key] = v
	}
	sel := query.Get("select")
	if sel == "" {
		sel = "*"
	}
	returnRows := r.Header.Get("Prefer") == string(ReturnRepresentation)

	switch r.Method {
	case http.MethodGet:
		var out []map[string]any
		for _, row := range s.tables[table] {
			if matches(row, filters) {
				out = append(out, s.project(table, row, sel))
			}
		}
		writeStoreJSON(w, http.StatusOK, rowsOrEmpty(out))

	case http.MethodPost:
		rows, err := decodeBody(body)
		if err != nil {
			writeStoreJSON(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
			return
		}
		if table == TableProfiles {
			for _, row := range rows {
				for _, existing := range s.tables[table] {
					if fmt.Sprint(existing["id"]) == fmt.Sprint(row["id"]) {
						writeStoreJSON(w, http.StatusConflict, map[string]any{
							"code":    "23505",
							"message": "duplicate key value violates unique constraint",
						})
						return
					}
				}
			}
		}
		var out []map[string]any
		for _, row := range rows {
			out = append(out, copyRow(s.insert(table, row)))
		}
		if returnRows {
			writeStoreJSON(w, http.StatusCreated, rowsOrEmpty(out))
			return
		}
		w.WriteHeader(http.StatusCreated)

	case http.MethodPatch:
		rows, err := decodeBody(body)
		if err != nil || len(rows) != 1 {
			writeStoreJSON(w, http.StatusBadRequest, map[string]any{"message": "patch body must be an object"})
			return
		}
		var out []map[string]any
		for _, row := range s.tables[table] {
			if !matches(row, filters) {
				continue
			}
			for k, v := range rows[0] {
				row[k] = resolveNow(v)
			}
			out = append(out, copyRow(row))
		}
		if returnRows {
			writeStoreJSON(w, http.StatusOK, rowsOrEmpty(out))
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		kept := s.tables[table][:0]
		for _, row := range s.tables[table] {
			if !matches(row, filters) {
				kept = append(kept, row)
			}
		}
		s.tables[table] = kept
		w.WriteHeader(http.StatusNoContent)

	default:
		writeStoreJSON(w, http.StatusMethodNotAllowed, map[string]any{"message": "method not allowed"})
	}
}

func (s *TestStore) serveSignUp(w http.ResponseWriter, body []byte) {
	var req struct {
		Email    string         `json:"email"`
		Password string         `json:"password"`
		Data     map[string]any `json:"data"`
	}
	if err := json.Unmarshal(body, &req); err != nil || req.Email == "" || req.Password == "" {
		writeStoreJSON(w, http.StatusBadRequest, map[string]any{"code": 400, "msg": "Signup requires a valid email and password"})
		return
	}
	if _, ok := s.users[req.Email]; ok {
		writeStoreJSON(w, http.StatusUnprocessableEntity, map[string]any{"code": 422, "msg": "User already registered"})
		return
	}

	u := &testUser{ID: uuid.NewString(), Email: req.Email, Password: req.Password, Metadata: req.Data}
	s.users[req.Email] = u

	if s.PendingConfirmation {
		writeStoreJSON(w, http.StatusOK, userJSON(u))
		return
	}
	s.writeSession(w, u)
}

func (s *TestStore) serveToken(w http.ResponseWriter, r *http.Request, body []byte) {
	if r.URL.Query().Get("grant_type") != "password" {
		writeStoreJSON(w, http.StatusBadRequest, map[string]any{"error": "unsupported_grant_type"})
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	json.Unmarshal(body, &req)

	u, ok := s.users[req.Email]
	if !ok || u.Password != req.Password {
		writeStoreJSON(w, http.StatusBadRequest, map[string]any{
			"error":             "invalid_grant",
			"error_description": "Invalid login credentials",
		})
		return
	}
	s.writeSession(w, u)
}

func (s *TestStore) serveUpdateUser(w http.ResponseWriter, r *http.Request, body []byte) {
	token, err := auth.BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		writeStoreJSON(w, http.StatusUnauthorized, map[string]any{"msg": "missing token"})
		return
	}
	sub, ok := auth.SubjectFromToken(token)
	if !ok {
		writeStoreJSON(w, http.StatusUnauthorized, map[string]any{"msg": "invalid token"})
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	json.Unmarshal(body, &req)

	for _, u := range s.users {
		if u.ID != sub {
			continue
		}
		if req.Password != "" {
			u.Password = req.Password
		}
		writeStoreJSON(w, http.StatusOK, userJSON(u))
		return
	}
	writeStoreJSON(w, http.StatusNotFound, map[string]any{"msg": "User not found"})
}

func (s *TestStore) writeSession(w http.ResponseWriter, u *testUser) {
	token, err := s.issueToken(u)
	if err != nil {
		writeStoreJSON(w, http.StatusInternalServerError, map[string]any{"msg": err.Error()})
		return
	}
	writeStoreJSON(w, http.StatusOK, map[string]any{
		"access_token":  token,
		"token_type":    "bearer",
		"expires_in":    3600,
		"refresh_token": "refresh-" + u.ID,
		"user":          userJSON(u),
	})
}

func (s *TestStore) issueToken(u *testUser) (string, error) {
	return auth.GenerateToken(TestJWTSecret, s.Issuer, u.ID, u.Email, time.Hour)
}

func userJSON(u *testUser) map[string]any {
	return map[string]any{
		"id":            u.ID,
		"aud":           auth.Audience,
		"email":         u.Email,
		"user_metadata": u.Metadata,
	}
}

// insert stores row, assigning the table's serial key and created_at.
func (s *TestStore) insert(table string, row map[string]any) map[string]any {
	stored := make(map[string]any, len(row)+2)
	for k, v := range row {
		stored[k] = resolveNow(v)
	}
	if pk, ok := primaryKeys[table]; ok {
		if _, set := stored[pk]; !set {
			s.nextID[table]++
			stored[pk] = s.nextID[table]
		}
	}
	if _, set := stored["created_at"]; !set {
		stored["created_at"] = time.Now().UTC().Format(time.RFC3339)
	}
	s.tables[table] = append(s.tables[table], stored)
	return stored
}

// project applies a select clause to row, resolving embeds.
func (s *TestStore) project(table string, row map[string]any, sel string) map[string]any {
	out := make(map[string]any)
	for _, part := range splitSelect(sel) {
		name, inner, isEmbed := strings.Cut(part, "(")
		switch {
		case part == "*":
			for k, v := range row {
				out[k] = v
			}
		case isEmbed:
			inner = strings.TrimSuffix(inner, ")")
			rel, ok := relations[table][name]
			if !ok {
				continue
			}
			var related []map[string]any
			for _, child := range s.tables[rel.table] {
				if equalValues(row[rel.local], child[rel.foreign]) {
					related = append(related, s.project(rel.table, child, inner))
				}
			}
			if rel.many {
				out[name] = rowsOrEmpty(related)
			} else if len(related) > 0 {
				out[name] = related[0]
			} else {
				out[name] = nil
			}
		default:
			out[part] = row[part]
		}
	}
	return out
}

// splitSelect splits a select clause on commas outside parentheses.
func splitSelect(sel string) []string {
	var parts []string
	depth, start := 0, 0
	for i, c := range sel {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(sel[start:i]))
				start = i + 1
			}
		}
	}
	return append(parts, strings.TrimSpace(sel[start:]))
}

func matches(row map[string]any, filters map[string]string) bool {
	for col, want := range filters {
		v, ok := row[col]
		if !ok || v == nil || fmt.Sprint(v) != want {
			return false
		}
	}
	return true
}

func equalValues(a, b any) bool {
	return a != nil && b != nil && fmt.Sprint(a) == fmt.Sprint(b)
}

func resolveNow(v any) any {
	if s, ok := v.(string); ok && s == "now()" {
		return time.Now().UTC().Format(time.RFC3339)
	}
	return v
}

func decodeBody(body []byte) ([]map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding body: %w", err)
	}

	switch v := raw.(type) {
	case map[string]any:
		return []map[string]any{v}, nil
	case []any:
		rows := make([]map[string]any, 0, len(v))
		for _, e := range v {
			m, ok := e.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("decoding body: array element is not an object")
			}
			rows = append(rows, m)
		}
		return rows, nil
	}
	return nil, fmt.Errorf("decoding body: expected object or array")
}

func copyRow(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

func rowsOrEmpty(rows []map[string]any) []map[string]any {
	if rows == nil {
		return []map[string]any{}
	}
	return rows
}

func writeStoreJSON(w http.ResponseWriter, status int, v any) {
	data, _ := json.Marshal(v)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
