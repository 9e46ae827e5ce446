package api

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/erazemk/stylu/internal/auth"
	"github.com/erazemk/stylu/internal/config"
	"github.com/erazemk/stylu/internal/db"
)

// NewRouter creates the API router with all endpoints registered and the
// middleware chain applied.
func NewRouter(cfg config.Config, client *db.Client) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{Store: client}
	itemsHandler := &ItemsHandler{Store: client}
	outfitsHandler := &OutfitsHandler{Store: client}
	settingsHandler := &SettingsHandler{Store: client}

	authMW := AuthMiddleware(auth.Validator{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.Issuer(),
		Audience: auth.Audience,
		Leeway:   config.TokenLeeway,
	})

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Public: account creation and sign-in.
	mux.HandleFunc("POST /api/auth/signup", authHandler.SignUp)
	mux.HandleFunc("POST /api/auth/signin", authHandler.SignIn)

	// Items.
	mux.Handle("GET /api/item/categories", authMW(http.HandlerFunc(itemsHandler.Categories)))
	mux.Handle("GET /api/item/counts", authMW(http.HandlerFunc(itemsHandler.Counts)))
	mux.Handle("GET /api/item", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/item", authMW(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("GET /api/item/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PUT /api/item/{id}", authMW(http.HandlerFunc(itemsHandler.Update)))
	mux.Handle("DELETE /api/item/{id}", authMW(http.HandlerFunc(itemsHandler.Delete)))

	// Outfits.
	mux.Handle("GET /api/outfit", authMW(http.HandlerFunc(outfitsHandler.List)))
	mux.Handle("POST /api/outfit", authMW(http.HandlerFunc(outfitsHandler.Create)))
	mux.Handle("PUT /api/outfit/{id}", authMW(http.HandlerFunc(outfitsHandler.Update)))
	mux.Handle("DELETE /api/outfit/{id}", authMW(http.HandlerFunc(outfitsHandler.Delete)))
	mux.Handle("GET /api/outfit/{id}/items", authMW(http.HandlerFunc(outfitsHandler.Items)))

	// Settings.
	mux.Handle("GET /api/settings/profile", authMW(http.HandlerFunc(settingsHandler.GetProfile)))
	mux.Handle("PUT /api/settings/profile", authMW(http.HandlerFunc(settingsHandler.UpdateProfile)))
	mux.Handle("GET /api/settings/system", authMW(http.HandlerFunc(settingsHandler.GetSystem)))
	mux.Handle("PUT /api/settings/system", authMW(http.HandlerFunc(settingsHandler.UpdateSystem)))

	var handler http.Handler = mux
	handler = CORSMiddleware(cfg.AllowedOrigins)(handler)
	handler = middleware.Recoverer(handler)
	handler = LoggingMiddleware(handler)
	handler = middleware.RealIP(handler)
	handler = middleware.RequestID(handler)
	return handler
}
