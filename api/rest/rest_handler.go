package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rezzza07/artmart/models"
	"github.com/rezzza07/artmart/service"
)

type Handler struct {
	Service *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{Service: svc}
}

type loginRequest struct {
	Provider string `json:"provider"`
	Code     string `json:"code"`
}

type loginResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Token string `json:"token"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := h.Service.Login(r.Context(), req.Provider, req.Code)
	if err != nil {
		slog.Warn("login failed", "provider", req.Provider, "error", err)
		h.sendError(w, http.StatusUnauthorized, "login failed")
		return
	}

	h.sendResponse(w, loginResponse{
		Email: user.Email,
		Name:  user.Name,
		Token: token,
	})
}

type registerResponse struct {
	Message string      `json:"message"`
	User    models.User `json:"user"`
}

func (h *Handler) HandleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var user models.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, created, err := h.Service.RegisterUser(r.Context(), user)
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	// Duplicate registration is a success with a message, not an error
	message := "user registered"
	if !created {
		message = "user already exists"
	}
	h.sendResponse(w, registerResponse{Message: message, User: user})
}

func (h *Handler) HandleUpsertUser(w http.ResponseWriter, r *http.Request) {
	actorEmail, err := h.Service.AuthenticateToken(r.Context(), h.getTokenFromAuthHeader(r))
	if err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	email := chi.URLParam(r, "email")

	var patch service.ProfilePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.Service.UpsertProfile(r.Context(), actorEmail, email, patch)
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendResponse(w, user)
}

type listArtworksResponse struct {
	Artworks []models.Artwork `json:"artworks"`
	Total    int              `json:"total"`
}

func (h *Handler) HandleListArtworks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	params := service.ListParams{
		OwnerEmail: query.Get("email"),
		Category:   query.Get("category"),
	}
	if limit := query.Get("limit"); limit != "" {
		value, err := strconv.Atoi(limit)
		if err != nil || value < 0 {
			h.sendError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		params.Limit = value
	}
	if page := query.Get("page"); page != "" {
		value, err := strconv.Atoi(page)
		if err != nil || value < 1 {
			h.sendError(w, http.StatusBadRequest, "invalid page")
			return
		}
		params.Page = value
	}

	result, err := h.Service.ListArtworks(r.Context(), params)
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendResponse(w, listArtworksResponse{Artworks: result.Artworks, Total: result.Total})
}

func (h *Handler) HandleFeaturedArtworks(w http.ResponseWriter, r *http.Request) {
	artworks, err := h.Service.FeaturedArtworks(r.Context())
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendResponse(w, artworks)
}

func (h *Handler) HandleGetArtwork(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Service.AuthenticateToken(r.Context(), h.getTokenFromAuthHeader(r)); err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	artwork, err := h.Service.GetArtwork(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendResponse(w, artwork)
}

func (h *Handler) HandleCreateArtwork(w http.ResponseWriter, r *http.Request) {
	ownerEmail, err := h.Service.AuthenticateToken(r.Context(), h.getTokenFromAuthHeader(r))
	if err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var input service.ArtworkInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	artwork, err := h.Service.CreateArtwork(r.Context(), ownerEmail, input)
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(artwork)
}

func (h *Handler) HandleUpdateArtwork(w http.ResponseWriter, r *http.Request) {
	actorEmail, err := h.Service.AuthenticateToken(r.Context(), h.getTokenFromAuthHeader(r))
	if err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var patch service.ArtworkPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	artwork, err := h.Service.UpdateArtwork(r.Context(), actorEmail, chi.URLParam(r, "id"), patch)
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendResponse(w, artwork)
}

type deleteArtworkResponse struct {
	Success bool `json:"success"`
}

func (h *Handler) HandleDeleteArtwork(w http.ResponseWriter, r *http.Request) {
	actorEmail, err := h.Service.AuthenticateToken(r.Context(), h.getTokenFromAuthHeader(r))
	if err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.Service.DeleteArtwork(r.Context(), actorEmail, chi.URLParam(r, "id")); err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendResponse(w, deleteArtworkResponse{Success: true})
}

type toggleLikeRequest struct {
	Email string `json:"email"`
}

func (h *Handler) HandleToggleLike(w http.ResponseWriter, r *http.Request) {
	var req toggleLikeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status, err := h.Service.ToggleLike(r.Context(), chi.URLParam(r, "id"), req.Email)
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendResponse(w, status)
}

type toggleFavoriteRequest struct {
	ArtId string `json:"artId"`
	Email string `json:"email"`
}

type toggleFavoriteResponse struct {
	Status string `json:"status"`
}

func (h *Handler) HandleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	var req toggleFavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status, err := h.Service.ToggleFavorite(r.Context(), req.ArtId, req.Email)
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendResponse(w, toggleFavoriteResponse{Status: status})
}

type checkFavoriteResponse struct {
	IsFavorite bool `json:"isFavorite"`
}

func (h *Handler) HandleCheckFavorite(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	isFavorite, err := h.Service.IsFavorite(r.Context(), query.Get("artId"), query.Get("email"))
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendResponse(w, checkFavoriteResponse{IsFavorite: isFavorite})
}

func (h *Handler) HandleMyFavorites(w http.ResponseWriter, r *http.Request) {
	artworks, err := h.Service.ListFavorites(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendResponse(w, artworks)
}

func (h *Handler) HandleUserStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.UserStats(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendResponse(w, stats)
}

func (h *Handler) sendResponse(w http.ResponseWriter, resp any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

type errorResponse struct {
	Message string `json:"message"`
}

func (h *Handler) sendError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Message: message})
}

// sendServiceError translates service failures to status codes. Store
// failures become a generic 500; their detail stays in the logs.
func (h *Handler) sendServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidIdentifier):
		h.sendError(w, http.StatusBadRequest, "invalid identifier")
	case errors.Is(err, service.ErrMissingParameter):
		h.sendError(w, http.StatusBadRequest, "missing required parameter")
	case errors.Is(err, service.ErrNotFound):
		h.sendError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrForbidden):
		h.sendError(w, http.StatusForbidden, "forbidden")
	default:
		slog.Error("request failed", "error", err)
		h.sendError(w, http.StatusInternalServerError, "something went wrong")
	}
}

func (h *Handler) getTokenFromAuthHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(authHeader, prefix) {
		return ""
	}
	return strings.TrimPrefix(authHeader, prefix)
}
