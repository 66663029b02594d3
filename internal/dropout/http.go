package dropout

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Chikiwuapo/Predicciones-Proyecto/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service  Service
	validate *validator.Validate
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewHandler(service Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
		metrics:  metrics,
	}
}

func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.POST("/student-dropout-analysis", h.CreateAnalysis)
	router.GET("/student-dropout-analysis", h.GetAllAnalyses)
	router.GET("/student-dropout-analysis/:id", h.GetAnalysis)
	router.DELETE("/student-dropout-analysis/clear-all", h.ClearAllAnalyses)
	router.DELETE("/student-dropout-analysis/:id", h.DeleteAnalysis)
	router.GET("/student-dropout-statistics", h.GetStatistics)
	router.GET("/basic-chart-data", h.GetBasicChartData)
	router.GET("/available-dates", h.GetAvailableDates)
	router.POST("/implement-database-data", h.ImportLegacyRecords)
	router.GET("/attendance-trend", h.trendHandler(TrendAttendance))
	router.GET("/risk-trend", h.trendHandler(TrendRisk))
	router.GET("/income-trend", h.trendHandler(TrendIncome))
	router.GET("/study-time-trend", h.trendHandler(TrendStudyTime))
	router.GET("/dropout-rate-trend", h.trendHandler(TrendDropoutRate))
}

func (h *Handler) CreateAnalysis(c *gin.Context) {
	var input Input
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if missing := h.missingFields(input); len(missing) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":          "Missing required fields",
			"missing_fields": missing,
		})
		return
	}

	h.logger.InfoContext(c.Request.Context(), "creating dropout analysis", "age", *input.Age)
	analysis, err := h.service.CreateAnalysis(c.Request.Context(), input)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.metrics.RecordAnalysisCreated(c.Request.Context(), "dropout")

	c.JSON(http.StatusCreated, analysis)
}

// missingFields reports the JSON names of every absent required field, in
// declaration order.
func (h *Handler) missingFields(input Input) []string {
	err := h.validate.Struct(input)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []string{"invalid"}
	}

	missing := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		if name, ok := jsonFieldNames[fieldErr.Field()]; ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func (h *Handler) GetAllAnalyses(c *gin.Context) {
	h.logger.InfoContext(c.Request.Context(), "fetching all dropout analyses")

	analyses, err := h.service.GetAllAnalyses(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.metrics.RecordListViewed(c.Request.Context(), "dropout")

	c.JSON(http.StatusOK, analyses)
}

func (h *Handler) GetAnalysis(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid analysis ID"})
		return
	}

	h.logger.InfoContext(c.Request.Context(), "fetching dropout analysis by ID")
	analysis, err := h.service.GetAnalysisByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.metrics.RecordAnalysisViewed(c.Request.Context(), "dropout")

	c.JSON(http.StatusOK, analysis)
}

func (h *Handler) DeleteAnalysis(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid analysis ID"})
		return
	}

	h.logger.InfoContext(c.Request.Context(), "deleting dropout analysis")
	if err := h.service.DeleteAnalysis(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.metrics.RecordAnalysisDeleted(c.Request.Context(), "dropout", 1)

	c.Status(http.StatusNoContent)
}

func (h *Handler) ClearAllAnalyses(c *gin.Context) {
	h.logger.InfoContext(c.Request.Context(), "clearing all dropout analyses")

	deleted, err := h.service.ClearAllAnalyses(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.metrics.RecordAnalysisDeleted(c.Request.Context(), "dropout", deleted)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Se eliminaron todos los análisis",
		"deleted": deleted,
	})
}

func (h *Handler) GetStatistics(c *gin.Context) {
	h.logger.InfoContext(c.Request.Context(), "fetching dropout statistics")

	stats, err := h.service.Statistics(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetBasicChartData(c *gin.Context) {
	year, month, ok := h.dateFilters(c)
	if !ok {
		return
	}

	data, err := h.service.BasicChartData(c.Request.Context(), year, month)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, data)
}

func (h *Handler) GetAvailableDates(c *gin.Context) {
	dates, err := h.service.AvailableDates(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dates)
}

type importRequest struct {
	RecordsCount int `json:"records_count"`
}

func (h *Handler) ImportLegacyRecords(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	h.logger.InfoContext(c.Request.Context(), "importing legacy records", "records_count", req.RecordsCount)
	result, err := h.service.ImportLegacyRecords(c.Request.Context(), req.RecordsCount)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.metrics.RecordRecordsImported(c.Request.Context(), int64(result.Count))

	c.JSON(http.StatusOK, result)
}

func (h *Handler) trendHandler(metric string) gin.HandlerFunc {
	return func(c *gin.Context) {
		year, month, ok := h.dateFilters(c)
		if !ok {
			return
		}

		series, err := h.service.Trend(c.Request.Context(), metric, year, month)
		if err != nil {
			h.handleServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, series)
	}
}

// dateFilters parses the optional year/month query parameters. On a malformed
// value it writes the 400 response and reports !ok.
func (h *Handler) dateFilters(c *gin.Context) (year, month int, ok bool) {
	if v := c.Query("year"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid year parameter"})
			return 0, 0, false
		}
		year = parsed
	}
	if v := c.Query("month"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 12 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid month parameter"})
			return 0, 0, false
		}
		month = parsed
	}
	return year, month, true
}

func (h *Handler) handleServiceError(c *gin.Context, err error) {
	if errors.Is(err, ErrAnalysisNotFound) {
		h.logger.Info("dropout analysis not found")
		c.JSON(http.StatusNotFound, gin.H{"error": "Análisis no encontrado"})
		return
	}
	if errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrUnknownMetric) {
		h.logger.Info("invalid input")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.logger.Error("internal error", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
