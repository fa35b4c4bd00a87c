// Package rest provides HTTP handlers for the storefront API.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/storefront/internal/order"
	"github.com/abgdnv/storefront/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

type OrderHandler struct {
	service  order.OrderService
	authMW   func(next http.Handler) http.Handler
	validate *validator.Validate
	logger   *slog.Logger
}

// NewOrderHandler creates a new OrderHandler with the provided service.
func NewOrderHandler(service order.OrderService, authMW func(next http.Handler) http.Handler, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		service:  service,
		authMW:   authMW,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// orderCreateRequest is the POST /orders body: a list of {id, quantity}.
type orderCreateRequest struct {
	Products []order.LineRequest `json:"products" validate:"required,gt=0,dive"`
}

// RegisterRoutes registers the HTTP routes for orders.
func (h *OrderHandler) RegisterRoutes(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(h.authMW)
		r.Route("/api/v1/orders", func(r chi.Router) {
			r.Get("/", h.FindUserOrders)
			r.Post("/", h.Create)
			r.Get("/{id}", h.FindByID)
		})
	})
}

// FindUserOrders returns a page of the caller's orders, newest first.
func (h *OrderHandler) FindUserOrders(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	userID, ok := web.GetUserID(w, r, mLogger)
	if !ok {
		return
	}
	page, ok := web.ParseOptionalGt(r, w, mLogger, "page", 0, 1)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to list orders", "page", page)
	result, err := h.service.FindUserOrders(r.Context(), userID, page)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving order list", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch orders")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, result)
}

// Create handles the placement of a new order.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	userID, ok := web.GetUserID(w, r, mLogger)
	if !ok {
		return
	}

	var req orderCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !h.validateStruct(w, r, mLogger, req) {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to create order", "lines", len(req.Products))
	created, err := h.service.Create(r.Context(), userID, req.Products)
	if err != nil {
		if errors.Is(err, order.ErrEmptyOrder) {
			web.RespondError(w, mLogger, http.StatusBadRequest, err.Error())
			return
		}
		// Transactional failures roll back completely; the caller is expected
		// to resubmit.
		mLogger.ErrorContext(r.Context(), "Error creating order", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to place order")
		return
	}
	mLogger.InfoContext(r.Context(), "Order created successfully", slog.String("ID", created.ID.String()))
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// FindByID retrieves an order by its ID, rejecting access to foreign orders.
func (h *OrderHandler) FindByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	userID, ok := web.GetUserID(w, r, mLogger)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to find order by ID", "ID", id)
	found, err := h.service.FindByID(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Order with ID %s not found", id))
			return
		} else if errors.Is(err, order.ErrAccessDenied) {
			mLogger.WarnContext(r.Context(), "Access denied to order", "ID", id, "UserID", userID)
			web.RespondError(w, mLogger, http.StatusForbidden, fmt.Sprintf("Access denied to order with ID %s", id))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error retrieving order", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve order with ID %s", id))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// validateStruct runs struct validation and writes field-specific errors.
func (h *OrderHandler) validateStruct(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, payload any) bool {
	if err := h.validate.Struct(payload); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			errorResponse := make(map[string]string)
			for _, fieldErr := range validationErrors {
				errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
			}
			mLogger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
			web.RespondJSON(w, mLogger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
			return false
		}
		mLogger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *OrderHandler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}
