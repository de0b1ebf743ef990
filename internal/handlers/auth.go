package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/twokinds/twokinds-api/internal/audit"
	"github.com/twokinds/twokinds-api/internal/middleware"
	"github.com/twokinds/twokinds-api/internal/models"
	"github.com/twokinds/twokinds-api/internal/request"
	"github.com/twokinds/twokinds-api/internal/services/oidc"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	oidcProvider *oidc.Provider
	providerName string
	audit        audit.Sink
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(oidcProvider *oidc.Provider, providerName string, auditSink audit.Sink) *AuthHandler {
	return &AuthHandler{oidcProvider: oidcProvider, providerName: providerName, audit: auditSink}
}

// RegisterRoutes registers auth routes. public serves unauthenticated
// requests; authed requires a resolved user.
func (h *AuthHandler) RegisterRoutes(public, authed *mux.Router) {
	public.HandleFunc("/oidc/login", h.GetOIDCLogin).Methods("GET")
	authed.HandleFunc("/login", h.PostLogin).Methods("POST")
	authed.HandleFunc("/me", h.GetMe).Methods("GET")
}

// GetOIDCLogin returns OIDC configuration for frontend
func (h *AuthHandler) GetOIDCLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	loginConfig, err := h.oidcProvider.GetLoginConfig(ctx, h.providerName)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Failed to get OIDC configuration", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, loginConfig)
}

// PostLogin is called by the frontend once after sign-in. Auth middleware
// has already reconciled the user; this endpoint records the login event
// and returns the user.
func (h *AuthHandler) PostLogin(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	h.audit.Record(r.Context(), &models.AuditEvent{
		UserID:   &user.ID,
		Action:   models.AuditActionUserLogin,
		ClientIP: request.ClientIP(r),
	})

	respondJSON(w, http.StatusOK, user)
}

// GetMe returns current user information
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	respondJSON(w, http.StatusOK, user)
}
