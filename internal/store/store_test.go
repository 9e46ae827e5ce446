package store

import (
	"testing"

	"github.com/erazemk/stylu/internal/auth"
	"github.com/erazemk/stylu/internal/db"
)

// newCaller registers an account on the fake store and returns it as a caller.
func newCaller(t *testing.T, s *db.TestStore, email string) auth.Caller {
	t.Helper()
	id, token := s.CreateUser(t, email, "hunter22")
	return auth.Caller{Token: token, UserID: id}
}

// seedCatalog creates a Tops category with one subcategory and returns the
// subcategory id.
func seedCatalog(s *db.TestStore) int64 {
	cat := s.Seed(db.TableCategory, map[string]any{"name": "Tops"})
	sub := s.Seed(db.TableSubcategory, map[string]any{"category_id": cat["category_id"], "name": "T-shirt"})
	return sub["subcategory_id"].(int64)
}
