package wine

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Chikiwuapo/Predicciones-Proyecto/internal/metrics"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewHandler(service Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
		metrics: metrics,
	}
}

func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.POST("/wine-analysis", h.CreateAnalysis)
	router.GET("/wine-analysis", h.GetAllAnalyses)
	router.GET("/wine-analysis/:id", h.GetAnalysis)
	router.DELETE("/wine-analysis/:id", h.DeleteAnalysis)
	router.GET("/wine-statistics", h.GetStatistics)
	router.GET("/real-time-data/:id", h.GetRealTimeData)
}

func (h *Handler) CreateAnalysis(c *gin.Context) {
	var input Input
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	h.logger.InfoContext(c.Request.Context(), "creating wine analysis", "alcohol", input.Alcohol)
	analysis, err := h.service.CreateAnalysis(c.Request.Context(), input)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.metrics.RecordAnalysisCreated(c.Request.Context(), "wine")

	c.JSON(http.StatusCreated, analysis)
}

func (h *Handler) GetAllAnalyses(c *gin.Context) {
	h.logger.InfoContext(c.Request.Context(), "fetching all wine analyses")

	analyses, err := h.service.GetAllAnalyses(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.metrics.RecordListViewed(c.Request.Context(), "wine")

	c.JSON(http.StatusOK, analyses)
}

func (h *Handler) GetAnalysis(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid analysis ID"})
		return
	}

	h.logger.InfoContext(c.Request.Context(), "fetching wine analysis by ID")
	analysis, err := h.service.GetAnalysisByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.metrics.RecordAnalysisViewed(c.Request.Context(), "wine")

	c.JSON(http.StatusOK, analysis)
}

func (h *Handler) DeleteAnalysis(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid analysis ID"})
		return
	}

	h.logger.InfoContext(c.Request.Context(), "deleting wine analysis")
	if err := h.service.DeleteAnalysis(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.metrics.RecordAnalysisDeleted(c.Request.Context(), "wine", 1)

	c.Status(http.StatusNoContent)
}

func (h *Handler) GetStatistics(c *gin.Context) {
	h.logger.InfoContext(c.Request.Context(), "fetching wine statistics")

	stats, err := h.service.Statistics(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetRealTimeData(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid analysis ID"})
		return
	}

	data, err := h.service.RealTimeData(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, data)
}

func (h *Handler) handleServiceError(c *gin.Context, err error) {
	if errors.Is(err, ErrAnalysisNotFound) {
		h.logger.Info("wine analysis not found")
		c.JSON(http.StatusNotFound, gin.H{"error": "Análisis no encontrado"})
		return
	}
	if errors.Is(err, ErrInvalidInput) {
		h.logger.Info("invalid input")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.logger.Error("internal error", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
