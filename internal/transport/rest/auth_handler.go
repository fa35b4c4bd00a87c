package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/abgdnv/storefront/internal/auth"
	"github.com/abgdnv/storefront/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

type AuthHandler struct {
	service  auth.AuthService
	authMW   func(next http.Handler) http.Handler
	validate *validator.Validate
	logger   *slog.Logger
}

// NewAuthHandler creates a new AuthHandler with the provided service.
func NewAuthHandler(service auth.AuthService, authMW func(next http.Handler) http.Handler, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service:  service,
		authMW:   authMW,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRoutes registers the HTTP routes for authentication.
func (h *AuthHandler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.authMW)
			r.Post("/logout", h.Logout)
			r.Get("/user", h.CurrentUser)
		})
	})
}

// Register creates a new user and returns a fresh session.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !h.validateStruct(w, r, mLogger, req) {
		return
	}

	session, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			web.RespondError(w, mLogger, http.StatusConflict, err.Error())
			return
		}
		mLogger.ErrorContext(r.Context(), "Error registering user", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to register")
		return
	}
	mLogger.InfoContext(r.Context(), "User registered", slog.String("ID", session.User.ID.String()))
	web.RespondJSON(w, mLogger, http.StatusCreated, session)
}

// Login verifies credentials and returns a fresh session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !h.validateStruct(w, r, mLogger, req) {
		return
	}

	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			web.RespondError(w, mLogger, http.StatusUnauthorized, err.Error())
			return
		}
		mLogger.ErrorContext(r.Context(), "Error logging in", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to log in")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, session)
}

// Logout revokes the presented token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	token, ok := bearerToken(r)
	if !ok {
		web.RespondError(w, mLogger, http.StatusUnauthorized, "Unauthorized: Missing bearer token")
		return
	}
	if err := h.service.Logout(r.Context(), token); err != nil {
		mLogger.ErrorContext(r.Context(), "Error logging out", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to log out")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CurrentUser returns the authenticated identity.
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	token, ok := bearerToken(r)
	if !ok {
		web.RespondError(w, mLogger, http.StatusUnauthorized, "Unauthorized: Missing bearer token")
		return
	}
	user, err := h.service.UserByToken(r.Context(), token)
	if err != nil {
		web.RespondError(w, mLogger, http.StatusUnauthorized, "Unauthorized: Invalid or expired token")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]any{"user": user})
}

// validateStruct runs struct validation and writes field-specific errors.
func (h *AuthHandler) validateStruct(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, payload any) bool {
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
func (h *AuthHandler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}
