// Package rest provides HTTP handlers for vending machine operations.
package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	perrors "github.com/abgdnv/vendingmachine/internal/errors"
	"github.com/abgdnv/vendingmachine/internal/service"
	"github.com/abgdnv/vendingmachine/internal/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// LaneService defines the service methods used by the HTTP handlers.
type LaneService interface {
	Register(ctx context.Context, lane service.LaneCreateDto) (*service.LaneDto, error)
	Unregister(ctx context.Context, laneCode string) error
	FindByCode(ctx context.Context, laneCode string) (*service.LaneDto, error)
	FindAll(ctx context.Context) ([]service.LaneDto, error)
	Restock(ctx context.Context, laneCode string, quantity int) (*service.LaneDto, error)
	Purchase(ctx context.Context, laneCode string) (*service.LaneDto, error)
	Stats(ctx context.Context) (*service.StatsDto, error)
	MostPopular(ctx context.Context) (*service.ProductDto, error)
	Catalog(ctx context.Context) ([]string, error)
}

type Handler struct {
	service LaneService
	logger  *slog.Logger
}

// NewHandler creates a new instance of Handler with the provided service.
func NewHandler(service LaneService, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the vending machine.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/lanes", func(r chi.Router) {
		r.Get("/", h.FindAll)
		r.Post("/", h.Register)

		r.Route("/{code}", func(r chi.Router) {
			r.Get("/", h.FindByCode)
			r.Delete("/", h.Unregister)
			r.Post("/items", h.Restock)
			r.Post("/purchase", h.Purchase)
		})
	})

	r.Route("/api/v1/machine", func(r chi.Router) {
		r.Get("/stats", h.Stats)
		r.Get("/most-popular", h.MostPopular)
		r.Get("/catalog", h.Catalog)
	})

	r.Get("/healthz", h.HealthCheck)
}

// Register places a new product in a lane.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var laneCreateDto service.LaneCreateDto
	if !web.DecodeJSON(w, r, mLogger, &laneCreateDto) {
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to register product", "lane", laneCreateDto)

	created, err := h.service.Register(r.Context(), laneCreateDto)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			mLogger.WarnContext(r.Context(), "Request body failed validation", "error", err)
			web.RespondValidationError(w, mLogger, validationErrors)
			return
		}
		h.respondServiceError(w, r, mLogger, err, laneCreateDto.LaneCode, "register product in")
		return
	}
	mLogger.InfoContext(r.Context(), "Product registered successfully", "laneCode", created.LaneCode, "description", created.Description)
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// FindAll lists every registered lane.
func (h *Handler) FindAll(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	list, err := h.service.FindAll(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving lane list", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch lanes")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved lane list", "count", len(list))
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// FindByCode retrieves a lane by its code.
func (h *Handler) FindByCode(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	code := r.PathValue("code")
	found, err := h.service.FindByCode(r.Context(), code)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, code, "retrieve")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// Unregister empties a lane.
func (h *Handler) Unregister(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	code := r.PathValue("code")
	if err := h.service.Unregister(r.Context(), code); err != nil {
		h.respondServiceError(w, r, mLogger, err, code, "unregister")
		return
	}
	mLogger.InfoContext(r.Context(), "Lane unregistered successfully", "laneCode", code)
	w.WriteHeader(http.StatusNoContent)
}

// Restock adds the quantity url parameter worth of items to a lane.
func (h *Handler) Restock(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	code := r.PathValue("code")
	quantity, ok := web.ParseIntInRange(r, w, mLogger, "quantity", 1, service.MaxRestockQuantity)
	if !ok {
		return
	}
	updated, err := h.service.Restock(r.Context(), code, quantity)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, code, "restock")
		return
	}
	mLogger.InfoContext(r.Context(), "Lane restocked successfully", "laneCode", updated.LaneCode, "numberAvailable", updated.NumberAvailable)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// Purchase sells one item from a lane.
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	code := r.PathValue("code")
	updated, err := h.service.Purchase(r.Context(), code)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, code, "buy item from")
		return
	}
	mLogger.InfoContext(r.Context(), "Item purchased successfully", "laneCode", updated.LaneCode, "numberOfSales", updated.NumberOfSales)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// Stats returns machine-wide counters.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving machine stats", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch machine stats")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, stats)
}

// MostPopular returns the best selling product.
func (h *Handler) MostPopular(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	product, err := h.service.MostPopular(r.Context())
	if err != nil {
		if errors.Is(err, perrors.ErrLaneCodeNotRegistered) {
			mLogger.WarnContext(r.Context(), "No products registered")
			web.RespondError(w, mLogger, http.StatusNotFound, "No products registered in machine")
			return
		}
		mLogger.ErrorContext(r.Context(), "Error finding most popular product", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to find most popular product")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, product)
}

// Catalog returns every product description ever registered.
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	catalog, err := h.service.Catalog(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving catalog", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch catalog")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, catalog)
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// respondServiceError maps domain errors to HTTP status codes.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, code, action string) {
	switch {
	case errors.Is(err, perrors.ErrInvalidArgument):
		logger.WarnContext(r.Context(), "Invalid argument", "laneCode", code, "error", err)
		web.RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid lane code or argument: %s", code))
	case errors.Is(err, perrors.ErrLaneCodeNotRegistered):
		logger.WarnContext(r.Context(), "Lane not registered", "laneCode", code)
		web.RespondError(w, logger, http.StatusNotFound, fmt.Sprintf("Lane %s is not registered", code))
	case errors.Is(err, perrors.ErrLaneCodeAlreadyInUse):
		logger.WarnContext(r.Context(), "Lane already in use", "laneCode", code)
		web.RespondError(w, logger, http.StatusConflict, fmt.Sprintf("Lane %s is already in use", code))
	case errors.Is(err, perrors.ErrProductUnavailable):
		logger.WarnContext(r.Context(), "Product unavailable", "laneCode", code)
		web.RespondError(w, logger, http.StatusConflict, fmt.Sprintf("Product in lane %s is sold out", code))
	default:
		logger.ErrorContext(r.Context(), "Service error", "laneCode", code, "error", err)
		web.RespondError(w, logger, http.StatusInternalServerError, fmt.Sprintf("Failed to %s lane %s", action, code))
	}
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID, found := web.GetRequestID(r.Context())
	if !found {
		reqID = "unknown"
	}
	return h.logger.With("request_id", reqID)
}
