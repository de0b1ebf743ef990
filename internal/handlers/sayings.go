package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/twokinds/twokinds-api/internal/middleware"
	"github.com/twokinds/twokinds-api/internal/models"
	"github.com/twokinds/twokinds-api/internal/services/sayings"
	"github.com/twokinds/twokinds-api/internal/validation"
)

// SayingHandler handles saying-related requests
type SayingHandler struct {
	service *sayings.Service
}

// NewSayingHandler creates a new saying handler
func NewSayingHandler(service *sayings.Service) *SayingHandler {
	return &SayingHandler{service: service}
}

// RegisterRoutes registers saying routes on the given router. The read
// routes are public; the router wiring applies optional auth so liked-state
// flags work for signed-in viewers.
func (h *SayingHandler) RegisterRoutes(public, authed *mux.Router) {
	public.HandleFunc("", h.ListSayings).Methods("GET")
	public.HandleFunc("/{id:[0-9]+}", h.GetSaying).Methods("GET")
	authed.HandleFunc("", h.CreateSaying).Methods("POST")
	authed.HandleFunc("/{id:[0-9]+}", h.DeleteSaying).Methods("DELETE")
	authed.HandleFunc("/{id:[0-9]+}/like", h.LikeSaying).Methods("POST")
}

// CreateSayingRequest represents a create saying request. Exactly one of
// type_id and new_type_name must be set.
type CreateSayingRequest struct {
	IntroID     int64  `json:"intro_id" validate:"required"`
	TypeID      int64  `json:"type_id,omitempty"`
	NewTypeName string `json:"new_type_name,omitempty" validate:"omitempty,min=3,max=100"`
	FirstKind   string `json:"first_kind" validate:"required,min=3,max=100"`
	SecondKind  string `json:"second_kind" validate:"required,min=3,max=100"`
}

// LikeSayingRequest represents a like toggle request. Action is optional;
// when omitted the like state is inverted.
type LikeSayingRequest struct {
	Action string `json:"action,omitempty" validate:"like_action"`
}

// ListSayingsResponse represents the paginated feed response
type ListSayingsResponse struct {
	Sayings    any `json:"sayings"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// ListSayings returns the public feed, newest first
func (h *SayingHandler) ListSayings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed > 0 {
			page = parsed
		}
	}

	pageSize := sayings.DefaultPageSize
	if ps := r.URL.Query().Get("page_size"); ps != "" {
		if parsed, err := strconv.Atoi(ps); err == nil && parsed > 0 {
			pageSize = parsed
		}
	}

	views, total, err := h.service.List(ctx, viewerID(r), page, pageSize)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve sayings")
		return
	}
	if pageSize > sayings.MaxPageSize {
		pageSize = sayings.MaxPageSize
	}

	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}

	respondJSON(w, http.StatusOK, ListSayingsResponse{
		Sayings:    views,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	})
}

// GetSaying returns one saying with its like state for the viewer
func (h *SayingHandler) GetSaying(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	view, err := h.service.Get(r.Context(), id, viewerID(r))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// CreateSaying creates a new saying for the authenticated user
func (h *SayingHandler) CreateSaying(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateSayingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !validateStruct(w, req) {
		return
	}

	view, err := h.service.CreateSaying(r.Context(), user.ID, sayings.CreateSayingInput{
		IntroID:     req.IntroID,
		TypeID:      req.TypeID,
		NewTypeName: validation.SanitizeText(req.NewTypeName),
		FirstKind:   validation.SanitizeText(req.FirstKind),
		SecondKind:  validation.SanitizeText(req.SecondKind),
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, view)
}

// DeleteSaying deletes a saying owned by the authenticated user
func (h *SayingHandler) DeleteSaying(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id, user.ID, user.Role); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// LikeSaying toggles or sets the caller's like on a saying
func (h *SayingHandler) LikeSaying(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	// An empty body means toggle
	var req LikeSayingRequest
	if r.ContentLength != 0 {
		if !decodeBody(w, r, &req) {
			return
		}
		if err := validation.ValidateLikeAction(req.Action); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
	}

	result, err := h.service.ToggleLike(r.Context(), user.ID, id, models.LikeAction(req.Action))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// respondServiceError maps service errors onto HTTP statuses
func (h *SayingHandler) respondServiceError(w http.ResponseWriter, err error) {
	var valErr *sayings.ValidationError
	var limitErr *sayings.RateLimitError
	var modErr *sayings.ModerationError

	switch {
	case errors.As(err, &valErr):
		respondJSONError(w, http.StatusBadRequest, "Bad Request", valErr.Error())
	case errors.As(err, &limitErr):
		respondJSONError(w, http.StatusTooManyRequests, "Too Many Requests", limitErr.Message)
	case errors.As(err, &modErr):
		respondJSONError(w, http.StatusUnprocessableEntity, "Content Rejected", modErr.Reason)
	case errors.Is(err, sayings.ErrSayingNotFound):
		respondJSONError(w, http.StatusNotFound, "Not Found", "Saying not found")
	case errors.Is(err, sayings.ErrForbidden):
		respondJSONError(w, http.StatusForbidden, "Forbidden", "You do not own this saying")
	default:
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Request failed")
	}
}

// viewerID returns the authenticated user's ID, or 0 for anonymous viewers
func viewerID(r *http.Request) int64 {
	if user := middleware.UserFromContext(r); user != nil {
		return user.ID
	}
	return 0
}

// pathID parses the {id} path variable
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid saying ID")
		return 0, false
	}
	return id, true
}

// decodeBody decodes a JSON request body, reporting size and syntax errors
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return false
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return false
	}
	return true
}

// validateStruct runs the shared validator over a request struct
func validateStruct(w http.ResponseWriter, req any) bool {
	if err := validation.Validate.Struct(req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fieldError := range validationErrors {
				respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %s", fieldError.Error()))
				return false
			}
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
		return false
	}
	return true
}
