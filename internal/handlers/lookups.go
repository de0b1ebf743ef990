package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/twokinds/twokinds-api/internal/database"
)

// LookupHandler serves the intro and type lookup tables used by the
// saying composer
type LookupHandler struct {
	intros database.IntroStore
	types  database.TypeStore
}

// NewLookupHandler creates a new lookup handler
func NewLookupHandler(intros database.IntroStore, types database.TypeStore) *LookupHandler {
	return &LookupHandler{intros: intros, types: types}
}

// RegisterRoutes registers lookup routes on the given router
func (h *LookupHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/intros", h.ListIntros).Methods("GET")
	r.HandleFunc("/types", h.ListTypes).Methods("GET")
}

// ListIntros returns all intro phrases
func (h *LookupHandler) ListIntros(w http.ResponseWriter, r *http.Request) {
	intros, err := h.intros.List(r.Context())
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve intros")
		return
	}
	respondJSON(w, http.StatusOK, intros)
}

// ListTypes returns all saying types, sorted by name
func (h *LookupHandler) ListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.types.List(r.Context())
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve types")
		return
	}
	respondJSON(w, http.StatusOK, types)
}
