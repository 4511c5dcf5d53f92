package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Mady2005/multi-modal-price-prediction/internal/domain"
	"github.com/Mady2005/multi-modal-price-prediction/internal/usecase"
)

// ServiceName and ServiceVersion are reported by the health check
const (
	ServiceName    = "price-prediction"
	ServiceVersion = "1.0.0"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	pricing *usecase.PricingService
}

// NewHandler creates a new HTTP handler
func NewHandler(pricing *usecase.PricingService) *Handler {
	return &Handler{pricing: pricing}
}

// HealthCheck returns the health status of the API and the active model
func (h *Handler) HealthCheck(c *gin.Context) {
	resp := gin.H{
		"status":  "healthy",
		"service": ServiceName,
		"version": ServiceVersion,
	}
	if h.pricing != nil {
		if lineage, err := h.pricing.ActiveModel(); err == nil {
			resp["model_version"] = lineage
		} else {
			resp["status"] = "degraded"
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Predict handles POST /api/v1/predict
func (h *Handler) Predict(c *gin.Context) {
	if h.pricing == nil {
		errorResponse(c, http.StatusServiceUnavailable, "pricing service not configured")
		return
	}

	var req domain.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.pricing.Predict(c.Request.Context(), req.CatalogContent)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrModelNotLoaded):
			errorResponse(c, http.StatusServiceUnavailable, "model not loaded")
		case errors.Is(err, domain.ErrSchemaMismatch):
			errorResponse(c, http.StatusInternalServerError, "model configuration error")
		default:
			errorResponse(c, http.StatusInternalServerError, "prediction failed")
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// ReloadModel handles POST /api/v1/model/reload
func (h *Handler) ReloadModel(c *gin.Context) {
	if h.pricing == nil {
		errorResponse(c, http.StatusServiceUnavailable, "pricing service not configured")
		return
	}

	lineage, err := h.pricing.ReloadModel(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrArtifactMissing),
			errors.Is(err, domain.ErrArtifactCorrupt),
			errors.Is(err, domain.ErrArtifactIncompatible),
			errors.Is(err, domain.ErrSchemaMismatch):
			errorResponse(c, http.StatusUnprocessableEntity, err.Error())
		default:
			errorResponse(c, http.StatusInternalServerError, "model reload failed")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "success",
		"model_version": lineage,
	})
}

func errorResponse(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{
		"status": "error",
		"error":  msg,
	})
}
