package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/twokinds/twokinds-api/internal/identity"
	"github.com/twokinds/twokinds-api/internal/models"
	"github.com/twokinds/twokinds-api/internal/services/oidc"
)

type contextKey string

const userContextKey contextKey = "user"

// UserFromContext extracts the user from the request context
func UserFromContext(r *http.Request) *models.User {
	user, ok := r.Context().Value(userContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// Auth creates authentication middleware that validates bearer tokens and
// resolves them to an internal user. providerName selects the OIDC config
// row to verify against.
func Auth(oidcProvider *oidc.Provider, jwksManager *oidc.JWKSManager, reconciler identity.Reconciler, providerName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := verifyRequest(w, r, oidcProvider, jwksManager, providerName)
			if !ok {
				return
			}

			ctx := r.Context()
			user, err := reconciler.Reconcile(ctx, identityFromClaims(claims, providerName))
			if err != nil {
				var identErr *identity.IdentityError
				if errors.As(err, &identErr) {
					respondError(w, http.StatusUnauthorized, identErr.Reason)
					return
				}
				log.Printf("Failed to reconcile user: %v", err)
				respondError(w, http.StatusInternalServerError, "Database error")
				return
			}

			ctx = context.WithValue(ctx, userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth resolves a user when a bearer token is present but lets
// anonymous requests through. Used on public read endpoints so the feed can
// mark which sayings the viewer already liked.
func OptionalAuth(oidcProvider *oidc.Provider, jwksManager *oidc.JWKSManager, reconciler identity.Reconciler, providerName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, ok := verifyRequest(w, r, oidcProvider, jwksManager, providerName)
			if !ok {
				return
			}

			ctx := r.Context()
			user, err := reconciler.Reconcile(ctx, identityFromClaims(claims, providerName))
			if err != nil {
				// An invalid identity on an optional route degrades to
				// anonymous rather than blocking the read.
				log.Printf("Failed to reconcile optional user: %v", err)
				next.ServeHTTP(w, r)
				return
			}

			ctx = context.WithValue(ctx, userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// verifyRequest extracts and verifies the bearer token. On failure it
// writes the error response and returns ok=false.
func verifyRequest(w http.ResponseWriter, r *http.Request, oidcProvider *oidc.Provider, jwksManager *oidc.JWKSManager, providerName string) (*models.JWTClaims, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		respondError(w, http.StatusUnauthorized, "Missing Authorization header")
		return nil, false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		respondError(w, http.StatusUnauthorized, "Invalid Authorization header format")
		return nil, false
	}

	ctx := r.Context()
	oidcConfig, err := oidcProvider.GetConfig(ctx, providerName)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to get OIDC configuration")
		return nil, false
	}

	if oidcConfig.JWKSUrl == nil {
		respondError(w, http.StatusInternalServerError, "JWKS URL not configured")
		return nil, false
	}

	verifier := oidc.NewVerifier(jwksManager, oidcConfig.Issuer)
	claims, err := verifier.Verify(ctx, parts[1], *oidcConfig.JWKSUrl)
	if err != nil {
		log.Printf("Token verification failed: %v (issuer: %s, jwks_url: %s)", err, oidcConfig.Issuer, *oidcConfig.JWKSUrl)
		respondError(w, http.StatusUnauthorized, "Invalid or expired token")
		return nil, false
	}

	return claims, true
}

func identityFromClaims(claims *models.JWTClaims, providerName string) identity.ExternalIdentity {
	return identity.ExternalIdentity{
		ID:       claims.Sub,
		Email:    claims.Email,
		Name:     claims.Name,
		Image:    claims.Picture,
		Provider: providerName,
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success": false,
		"error":   message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}
