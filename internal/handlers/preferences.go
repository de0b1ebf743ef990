package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/twokinds/twokinds-api/internal/database"
	"github.com/twokinds/twokinds-api/internal/middleware"
	"github.com/twokinds/twokinds-api/internal/models"
)

// MaxPreferenceKeys bounds how many preference entries a user may store
const MaxPreferenceKeys = 50

// PreferencesHandler manages per-user preference blobs
type PreferencesHandler struct {
	users database.UserStore
}

// NewPreferencesHandler creates a new preferences handler
func NewPreferencesHandler(users database.UserStore) *PreferencesHandler {
	return &PreferencesHandler{users: users}
}

// RegisterRoutes registers preference routes on the given router
func (h *PreferencesHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/me/preferences", h.GetPreferences).Methods("GET")
	r.HandleFunc("/me/preferences", h.UpdatePreferences).Methods("PUT")
}

// GetPreferences returns the caller's preferences
func (h *PreferencesHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	respondJSON(w, http.StatusOK, user.Preferences)
}

// UpdatePreferences replaces the caller's preferences with the request body
func (h *PreferencesHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var prefs models.Preferences
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&prefs); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	if prefs == nil {
		prefs = models.Preferences{}
	}
	if len(prefs) > MaxPreferenceKeys {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Too many preference keys")
		return
	}

	updated, err := h.users.UpdatePreferences(r.Context(), user.ID, prefs)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update preferences")
		return
	}

	respondJSON(w, http.StatusOK, updated.Preferences)
}
