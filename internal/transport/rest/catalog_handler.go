package rest

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/abgdnv/storefront/internal/catalog"
	"github.com/abgdnv/storefront/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CatalogHandler struct {
	service catalog.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new CatalogHandler with the provided service.
func NewCatalogHandler(service catalog.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the catalog.
func (h *CatalogHandler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", h.FindProducts)
		r.Get("/{id}", h.FindProduct)
	})
	r.Get("/api/v1/categories", h.FindCategories)
}

// FindProducts returns a filtered, paginated product listing.
func (h *CatalogHandler) FindProducts(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	page, ok := web.ParseOptionalGt(r, w, mLogger, "page", 0, 1)
	if !ok {
		return
	}
	filter, ok := h.parseFilter(w, r, mLogger)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to list products", "page", page)
	result, err := h.service.FindProducts(r.Context(), filter, page)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving product list", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, result)
}

// FindProduct retrieves a single product by its ID.
func (h *CatalogHandler) FindProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	found, err := h.service.FindProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product with ID %s not found", id))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error retrieving product", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve product with ID %s", id))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// FindCategories returns all categories.
func (h *CatalogHandler) FindCategories(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	categories, err := h.service.FindCategories(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving categories", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch categories")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]any{"categories": categories})
}

// parseFilter builds a catalog.Filter from query parameters: search, a
// comma-separated categories list, and an inclusive min_price/max_price range.
func (h *CatalogHandler) parseFilter(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger) (catalog.Filter, bool) {
	query := r.URL.Query()
	filter := catalog.Filter{Search: query.Get("search")}

	if raw := query.Get("categories"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := uuid.Parse(strings.TrimSpace(part))
			if err != nil {
				web.RespondError(w, mLogger, http.StatusBadRequest, fmt.Sprintf("Invalid category ID: %s", part))
				return catalog.Filter{}, false
			}
			filter.CategoryIDs = append(filter.CategoryIDs, id)
		}
	}

	var ok bool
	if filter.MinPrice, ok = h.parsePrice(w, mLogger, query.Get("min_price"), "min_price"); !ok {
		return catalog.Filter{}, false
	}
	if filter.MaxPrice, ok = h.parsePrice(w, mLogger, query.Get("max_price"), "max_price"); !ok {
		return catalog.Filter{}, false
	}
	return filter, true
}

func (h *CatalogHandler) parsePrice(w http.ResponseWriter, mLogger *slog.Logger, raw, key string) (*decimal.Decimal, bool) {
	if raw == "" {
		return nil, true
	}
	price, err := decimal.NewFromString(raw)
	if err != nil || price.IsNegative() {
		web.RespondError(w, mLogger, http.StatusBadRequest, fmt.Sprintf("Invalid %s: %s", key, raw))
		return nil, false
	}
	return &price, true
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *CatalogHandler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}
