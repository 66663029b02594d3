package wine_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Chikiwuapo/Predicciones-Proyecto/internal/db"
	"github.com/Chikiwuapo/Predicciones-Proyecto/internal/logger"
	"github.com/Chikiwuapo/Predicciones-Proyecto/internal/metrics"
	"github.com/Chikiwuapo/Predicciones-Proyecto/internal/testdb"
	"github.com/Chikiwuapo/Predicciones-Proyecto/internal/wine"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWineHandler_Shared(t *testing.T) {
	gin.SetMode(gin.TestMode)

	pgContainer := testdb.SetupSharedPostgres(t)
	defer pgContainer.Cleanup(t)

	pgContainer.RunMigrations(t,
		db.Migration{Model: (*wine.Analysis)(nil)},
		db.Migration{
			Model: (*wine.Classification)(nil),
			ForeignKeys: []string{
				`("analysis_id") REFERENCES "wine_analyses" ("id") ON DELETE CASCADE`,
			},
		},
		db.Migration{
			Model: (*wine.Component)(nil),
			ForeignKeys: []string{
				`("analysis_id") REFERENCES "wine_analyses" ("id") ON DELETE CASCADE`,
			},
		},
	)

	// Handler is created once and reused across subtests
	repo := wine.NewRepository(pgContainer.DB, metrics.NewMock())
	service := wine.NewService(repo, nil, logger.New())
	handler := wine.NewHandler(service, logger.New(), metrics.NewMock())
	router := gin.New()
	handler.RegisterRoutes(router.Group("/api"))

	cleanup := func(t *testing.T) {
		testdb.CleanupTables(t, pgContainer.DB, "wine_analyses")
	}

	createAnalysis := func(t *testing.T, payload map[string]interface{}) wine.Analysis {
		t.Helper()
		body, err := json.Marshal(payload)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/wine-analysis", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)

		var created wine.Analysis
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		return created
	}

	goodSample := map[string]interface{}{
		"fixedAcidity":       7.4,
		"volatileAcidity":    0.2,
		"citricAcid":         0.3,
		"residualSugar":      2.1,
		"chlorides":          0.08,
		"freeSulfurDioxide":  15.0,
		"totalSulfurDioxide": 46.0,
		"density":            0.996,
		"pH":                 3.2,
		"sulphates":          0.58,
		"alcohol":            13.0,
	}

	t.Run("CreateAnalysis", func(t *testing.T) {
		cleanup(t)

		created := createAnalysis(t, goodSample)

		assert.Greater(t, created.ID, int64(0))
		assert.Equal(t, wine.QualityAlta, created.Quality)
		assert.GreaterOrEqual(t, created.Confidence, 70.0)
		assert.LessOrEqual(t, created.Confidence, 95.0)
		assert.Len(t, created.Components, 10)
		assert.False(t, created.CreatedAt.IsZero())

		sugarTags := 0
		for _, tag := range created.Classifications {
			if tag.ClassificationType == wine.ClassificationSugar {
				sugarTags++
			}
		}
		assert.Equal(t, 1, sugarTags)
	})

	t.Run("CreateAnalysisInvalidBody", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/wine-analysis", bytes.NewReader([]byte("{not json")))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("GetAllAnalyses", func(t *testing.T) {
		cleanup(t)

		createAnalysis(t, goodSample)
		createAnalysis(t, goodSample)

		req := httptest.NewRequest(http.MethodGet, "/api/wine-analysis", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var analyses []wine.Analysis
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analyses))
		assert.Len(t, analyses, 2)
	})

	t.Run("GetAnalysisByID", func(t *testing.T) {
		cleanup(t)

		created := createAnalysis(t, goodSample)

		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/wine-analysis/%d", created.ID), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var fetched wine.Analysis
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
		assert.Equal(t, created.ID, fetched.ID)
		assert.Equal(t, created.Quality, fetched.Quality)
		assert.Len(t, fetched.Components, 10)
	})

	t.Run("GetAnalysisNotFound", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/wine-analysis/999999", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Análisis no encontrado", body["error"])
	})

	t.Run("GetAnalysisInvalidID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/wine-analysis/abc", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("DeleteAnalysisCascades", func(t *testing.T) {
		cleanup(t)

		created := createAnalysis(t, goodSample)

		req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/wine-analysis/%d", created.ID), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusNoContent, rec.Code)

		// Child rows must be gone with the parent
		ctx := context.Background()
		classifications, err := pgContainer.DB.NewSelect().Model((*wine.Classification)(nil)).Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, classifications)

		components, err := pgContainer.DB.NewSelect().Model((*wine.Component)(nil)).Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, components)

		req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/wine-analysis/%d", created.ID), nil)
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("DeleteAnalysisNotFound", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/wine-analysis/999999", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Statistics", func(t *testing.T) {
		cleanup(t)

		createAnalysis(t, goodSample)
		createAnalysis(t, map[string]interface{}{
			"volatileAcidity": 1.0,
			"pH":              2.5,
			"alcohol":         9.0,
		})

		req := httptest.NewRequest(http.MethodGet, "/api/wine-statistics", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var stats wine.Statistics
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))

		assert.Equal(t, 2, stats.TotalAnalyses)
		assert.Equal(t, 2, stats.RecentAnalysesCount)
		assert.Len(t, stats.QualityDistribution, 2)
		assert.Len(t, stats.TimeSeriesData, 2)
		require.NotNil(t, stats.AlcoholStats)
		assert.InDelta(t, 11.0, stats.AlcoholStats.AvgAlcohol, 0.001)
		assert.NotEmpty(t, stats.ComponentStats)
		assert.NotEmpty(t, stats.ClassificationStats)
	})

	t.Run("RealTimeData", func(t *testing.T) {
		cleanup(t)

		created := createAnalysis(t, goodSample)

		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/real-time-data/%d", created.ID), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var data wine.RealTimeData
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data))

		assert.Equal(t, created.ID, data.AnalysisID)
		assert.True(t, data.Simulated)
		assert.InDelta(t, 13.0, data.CurrentAlcohol, 0.1)
		assert.InDelta(t, 3.2, data.CurrentPH, 0.05)
		assert.GreaterOrEqual(t, data.Temperature, 15.0)
		assert.LessOrEqual(t, data.Temperature, 25.0)
		assert.GreaterOrEqual(t, data.Humidity, 40.0)
		assert.LessOrEqual(t, data.Humidity, 80.0)
		assert.Len(t, data.Components, 10)
	})

	t.Run("RealTimeDataNotFound", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/real-time-data/999999", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
