package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Carlos-mc14/elhtcrls-sub000/internal/core/domain"
	"github.com/Carlos-mc14/elhtcrls-sub000/internal/core/service"
)

type HTTPHandler struct {
	carts *service.CartService
}

func NewHTTPHandler(carts *service.CartService) *HTTPHandler {
	return &HTTPHandler{carts: carts}
}

func (h *HTTPHandler) Register(r chi.Router) {
	r.Get("/health", h.HealthCheck)
	r.Route("/api/carts", func(r chi.Router) {
		r.Get("/", h.ListActiveCarts)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Post("/", h.SaveCart)
			r.Delete("/", h.DeleteCart)
			r.Get("/validate", h.ValidateCart)
			r.Post("/finalize", h.FinalizeCart)
		})
	})
}

type SaveCartRequest struct {
	Items         []domain.CartItem `json:"items"`
	CustomerName  string            `json:"customerName"`
	CustomerPhone string            `json:"customerPhone"`
}

type FinalizeCartRequest struct {
	OperatorID string `json:"operatorId"`
}

type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.GetCart(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, StatusResponse{Message: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *HTTPHandler) SaveCart(w http.ResponseWriter, r *http.Request) {
	var req SaveCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, StatusResponse{Message: "invalid request body"})
		return
	}

	cart, err := h.carts.SaveCart(r.Context(), chi.URLParam(r, "id"), req.Items, req.CustomerName, req.CustomerPhone)
	if err != nil {
		writeCartError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *HTTPHandler) DeleteCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.DeleteCart(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeJSON(w, http.StatusInternalServerError, StatusResponse{Message: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Success: true, Message: "cart deleted"})
}

func (h *HTTPHandler) ValidateCart(w http.ResponseWriter, r *http.Request) {
	result, err := h.carts.ValidateCart(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, StatusResponse{Message: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *HTTPHandler) FinalizeCart(w http.ResponseWriter, r *http.Request) {
	var req FinalizeCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, StatusResponse{Message: "invalid request body"})
		return
	}
	if req.OperatorID == "" {
		writeJSON(w, http.StatusBadRequest, StatusResponse{Message: "operatorId is required"})
		return
	}

	cart, err := h.carts.FinalizeCart(r.Context(), chi.URLParam(r, "id"), req.OperatorID)
	if err != nil {
		writeCartError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *HTTPHandler) ListActiveCarts(w http.ResponseWriter, r *http.Request) {
	carts, err := h.carts.ListActiveCarts(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, StatusResponse{Message: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, carts)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeCartError maps the engine's error taxonomy onto HTTP statuses.
// Structured failures keep their user-facing message; infrastructure errors
// stay generic.
func writeCartError(w http.ResponseWriter, err error) {
	var stockErr *service.StockError
	var partialErr *service.PartialFinalizeError

	switch {
	case errors.As(err, &partialErr):
		writeJSON(w, http.StatusBadGateway, StatusResponse{Message: partialErr.Error()})
	case errors.As(err, &stockErr):
		status := http.StatusConflict
		if stockErr.NotFound {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, StatusResponse{Message: stockErr.Error()})
	case errors.Is(err, service.ErrCartNotFound):
		writeJSON(w, http.StatusNotFound, StatusResponse{Message: "cart not found"})
	case errors.Is(err, service.ErrCartNotActive):
		writeJSON(w, http.StatusConflict, StatusResponse{Message: "cart not active"})
	case errors.Is(err, service.ErrInvalidQuantity):
		writeJSON(w, http.StatusBadRequest, StatusResponse{Message: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, StatusResponse{Message: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
