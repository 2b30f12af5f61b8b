package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/authgate/authgate-go/internal/middleware"
	"github.com/authgate/authgate-go/internal/model"
)

// NewRouter assembles the full HTTP surface behind the request gate.
func NewRouter(auth *AuthHandler, users *UserHandler, gate func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(gate)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, model.OK("welcome to authgate", nil))
	})

	r.Post("/auth/register", auth.HandleRegister)
	r.Post("/auth/login", auth.HandleLogin)

	r.Get("/users/me", users.HandleMe)
	r.Get("/users/{id}", users.HandleGetUser)

	return r
}
