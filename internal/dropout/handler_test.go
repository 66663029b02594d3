package dropout_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Chikiwuapo/Predicciones-Proyecto/internal/db"
	"github.com/Chikiwuapo/Predicciones-Proyecto/internal/dropout"
	"github.com/Chikiwuapo/Predicciones-Proyecto/internal/logger"
	"github.com/Chikiwuapo/Predicciones-Proyecto/internal/metrics"
	"github.com/Chikiwuapo/Predicciones-Proyecto/internal/testdb"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacyTable = "estudiantes"

func TestDropoutHandler_Shared(t *testing.T) {
	gin.SetMode(gin.TestMode)

	pgContainer := testdb.SetupSharedPostgres(t)
	defer pgContainer.Cleanup(t)

	pgContainer.RunMigrations(t, db.Migration{Model: (*dropout.Analysis)(nil)})
	pgContainer.CreateLegacyTable(t, legacyTable)

	repo := dropout.NewRepository(pgContainer.DB, metrics.NewMock())
	service := dropout.NewService(repo, nil, logger.New(), legacyTable, 500)
	handler := dropout.NewHandler(service, logger.New(), metrics.NewMock())
	router := gin.New()
	handler.RegisterRoutes(router.Group("/api"))

	cleanup := func(t *testing.T) {
		testdb.CleanupTables(t, pgContainer.DB, "student_dropout_analyses", legacyTable)
	}

	doJSON := func(t *testing.T, method, path string, payload interface{}) *httptest.ResponseRecorder {
		t.Helper()
		var body *bytes.Reader
		if payload != nil {
			raw, err := json.Marshal(payload)
			require.NoError(t, err)
			body = bytes.NewReader(raw)
		} else {
			body = bytes.NewReader(nil)
		}

		req := httptest.NewRequest(method, path, body)
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	highRiskPayload := func() map[string]interface{} {
		return map[string]interface{}{
			"age":               30,
			"gender":            "M",
			"familyIncome":      400.0,
			"location":          "rural",
			"economicSituation": "bajo",
			"studyTime":         2.0,
			"schoolSupport":     false,
			"familySupport":     false,
			"attendance":        false,
		}
	}

	lowRiskPayload := func() map[string]interface{} {
		return map[string]interface{}{
			"age":                     14,
			"gender":                  "F",
			"familyIncome":            5000.0,
			"location":                "urbana",
			"economicSituation":       "alto",
			"studyTime":               8.0,
			"schoolSupport":           true,
			"familySupport":           true,
			"extraEducationalSupport": true,
			"attendance":              true,
		}
	}

	createAnalysis := func(t *testing.T, payload map[string]interface{}) dropout.Analysis {
		t.Helper()
		rec := doJSON(t, http.MethodPost, "/api/student-dropout-analysis", payload)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var created dropout.Analysis
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		return created
	}

	t.Run("CreateAnalysis", func(t *testing.T) {
		cleanup(t)

		created := createAnalysis(t, highRiskPayload())

		assert.Greater(t, created.ID, int64(0))
		assert.Equal(t, dropout.RiskAlto, created.RiskLevel)
		assert.GreaterOrEqual(t, created.Confidence, 70.0)
		assert.LessOrEqual(t, created.Confidence, 95.0)
		assert.Equal(t, 30, created.Age)
		assert.False(t, created.AnalysisDate.IsZero())
	})

	t.Run("CreateAnalysisLowRisk", func(t *testing.T) {
		cleanup(t)

		created := createAnalysis(t, lowRiskPayload())
		assert.Equal(t, dropout.RiskBajo, created.RiskLevel)
	})

	t.Run("CreateAnalysisMissingFields", func(t *testing.T) {
		rec := doJSON(t, http.MethodPost, "/api/student-dropout-analysis", map[string]interface{}{
			"gender":   "F",
			"location": "rural",
		})

		require.Equal(t, http.StatusBadRequest, rec.Code)

		var body struct {
			Error         string   `json:"error"`
			MissingFields []string `json:"missing_fields"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Missing required fields", body.Error)
		assert.Equal(t, []string{"age", "familyIncome", "economicSituation", "studyTime"}, body.MissingFields)
	})

	t.Run("CreateAnalysisZeroValuesAreNotMissing", func(t *testing.T) {
		cleanup(t)

		payload := highRiskPayload()
		payload["familyIncome"] = 0.0
		payload["studyTime"] = 0.0

		rec := doJSON(t, http.MethodPost, "/api/student-dropout-analysis", payload)
		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})

	t.Run("CreateAnalysisWithExplicitDate", func(t *testing.T) {
		cleanup(t)

		payload := highRiskPayload()
		payload["analysisDate"] = "2024-03-10"

		created := createAnalysis(t, payload)
		assert.Equal(t, 2024, created.AnalysisDate.Year())
		assert.Equal(t, 3, int(created.AnalysisDate.Month()))
	})

	t.Run("GetAnalysisByID", func(t *testing.T) {
		cleanup(t)

		created := createAnalysis(t, highRiskPayload())

		rec := doJSON(t, http.MethodGet, fmt.Sprintf("/api/student-dropout-analysis/%d", created.ID), nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var fetched dropout.Analysis
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
		assert.Equal(t, created.ID, fetched.ID)
		assert.Equal(t, created.RiskLevel, fetched.RiskLevel)
	})

	t.Run("GetAnalysisNotFound", func(t *testing.T) {
		rec := doJSON(t, http.MethodGet, "/api/student-dropout-analysis/999999", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Análisis no encontrado", body["error"])
	})

	t.Run("DeleteAnalysis", func(t *testing.T) {
		cleanup(t)

		created := createAnalysis(t, highRiskPayload())

		rec := doJSON(t, http.MethodDelete, fmt.Sprintf("/api/student-dropout-analysis/%d", created.ID), nil)
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = doJSON(t, http.MethodGet, fmt.Sprintf("/api/student-dropout-analysis/%d", created.ID), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("ClearAllAnalyses", func(t *testing.T) {
		cleanup(t)

		createAnalysis(t, highRiskPayload())
		createAnalysis(t, lowRiskPayload())

		rec := doJSON(t, http.MethodDelete, "/api/student-dropout-analysis/clear-all", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Success bool  `json:"success"`
			Deleted int64 `json:"deleted"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.True(t, body.Success)
		assert.Equal(t, int64(2), body.Deleted)

		rec = doJSON(t, http.MethodGet, "/api/student-dropout-analysis", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var analyses []dropout.Analysis
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analyses))
		assert.Empty(t, analyses)
	})

	t.Run("Statistics", func(t *testing.T) {
		cleanup(t)

		createAnalysis(t, highRiskPayload())
		createAnalysis(t, lowRiskPayload())

		rec := doJSON(t, http.MethodGet, "/api/student-dropout-statistics", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var stats dropout.Statistics
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))

		assert.Equal(t, 2, stats.TotalAnalyses)
		assert.Equal(t, 2, stats.RecentAnalysesCount)
		assert.Len(t, stats.RiskDistribution, 2)
		assert.Len(t, stats.TimeSeriesData, 2)
		assert.InDelta(t, 22.0, stats.AgeStats.Avg, 0.001)
		assert.InDelta(t, 14.0, stats.AgeStats.Min, 0.001)
		assert.InDelta(t, 30.0, stats.AgeStats.Max, 0.001)

		// One student per edge bucket
		byLabel := map[string]int{}
		for _, b := range stats.AgeRanges {
			byLabel[b.Label] = b.Count
		}
		assert.Equal(t, 1, byLabel["<15"])
		assert.Equal(t, 1, byLabel["25+"])

		assert.NotEmpty(t, stats.LocationRisk)
		assert.NotEmpty(t, stats.GenderRisk)
	})

	t.Run("BasicChartData", func(t *testing.T) {
		cleanup(t)

		attending := lowRiskPayload()
		attending["analysisDate"] = "2024-03-10"
		createAnalysis(t, attending)

		absent := highRiskPayload()
		absent["analysisDate"] = "2024-03-12"
		createAnalysis(t, absent)

		outOfRange := highRiskPayload()
		outOfRange["analysisDate"] = "2023-05-01"
		createAnalysis(t, outOfRange)

		rec := doJSON(t, http.MethodGet, "/api/basic-chart-data?year=2024", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var data dropout.BasicChartData
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data))

		assert.Equal(t, 2, data.TotalAnalyses)
		assert.InDelta(t, 50.0, data.AttendancePercentage, 0.001)
		assert.InDelta(t, 50.0, data.AbsencePercentage, 0.001)
		assert.Equal(t, map[string]int{"year": 2024}, data.FiltersApplied)

		require.Len(t, data.ChartData, 2)
		assert.Equal(t, "Asistencia", data.ChartData[0].Label)
		assert.Equal(t, "#4CAF50", data.ChartData[0].Color)
		assert.Equal(t, "Inasistencia", data.ChartData[1].Label)
		assert.Equal(t, "#F44336", data.ChartData[1].Color)
	})

	t.Run("BasicChartDataEmpty", func(t *testing.T) {
		cleanup(t)

		rec := doJSON(t, http.MethodGet, "/api/basic-chart-data", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var data dropout.BasicChartData
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data))
		assert.Equal(t, 0, data.TotalAnalyses)
		assert.Equal(t, 0.0, data.AttendancePercentage)
		assert.Empty(t, data.FiltersApplied)
	})

	t.Run("BasicChartDataInvalidMonth", func(t *testing.T) {
		rec := doJSON(t, http.MethodGet, "/api/basic-chart-data?month=13", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("AvailableDates", func(t *testing.T) {
		cleanup(t)

		first := highRiskPayload()
		first["analysisDate"] = "2024-03-10"
		createAnalysis(t, first)

		second := lowRiskPayload()
		second["analysisDate"] = "2023-05-01"
		createAnalysis(t, second)

		rec := doJSON(t, http.MethodGet, "/api/available-dates", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var dates dropout.AvailableDates
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dates))

		assert.Equal(t, 2, dates.TotalAnalyses)
		assert.Contains(t, dates.AvailableYears, 2024)
		assert.Contains(t, dates.AvailableYears, 2023)

		names := map[int]string{}
		for _, m := range dates.AvailableMonths {
			names[m.Number] = m.Name
		}
		assert.Equal(t, "Marzo", names[3])
		assert.Equal(t, "Mayo", names[5])
	})

	t.Run("ImportLegacyRecords", func(t *testing.T) {
		cleanup(t)

		seedLegacyRows(t, pgContainer)

		rec := doJSON(t, http.MethodPost, "/api/implement-database-data", map[string]interface{}{
			"records_count": 10,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var result dropout.ImportResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

		assert.True(t, result.Success)
		assert.Equal(t, 3, result.Count)
		assert.Equal(t, 1, result.Skipped)
		assert.NotEmpty(t, result.Message)

		rec = doJSON(t, http.MethodGet, "/api/student-dropout-analysis", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var analyses []dropout.Analysis
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analyses))
		require.Len(t, analyses, 3)

		for _, a := range analyses {
			assert.Contains(t, []string{dropout.RiskAlto, dropout.RiskMedio, dropout.RiskBajo}, a.RiskLevel)
			assert.GreaterOrEqual(t, a.Confidence, 70.0)
			assert.LessOrEqual(t, a.Confidence, 95.0)
			assert.False(t, a.AnalysisDate.IsZero())
		}
	})

	t.Run("ImportLegacyRecordsInvalidCount", func(t *testing.T) {
		rec := doJSON(t, http.MethodPost, "/api/implement-database-data", map[string]interface{}{
			"records_count": 0,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("TrendEndpoints", func(t *testing.T) {
		cleanup(t)

		createAnalysis(t, highRiskPayload())
		createAnalysis(t, lowRiskPayload())

		endpoints := map[string]string{
			"/api/attendance-trend":   dropout.TrendAttendance,
			"/api/risk-trend":         dropout.TrendRisk,
			"/api/income-trend":       dropout.TrendIncome,
			"/api/study-time-trend":   dropout.TrendStudyTime,
			"/api/dropout-rate-trend": dropout.TrendDropoutRate,
		}

		for path, metric := range endpoints {
			rec := doJSON(t, http.MethodGet, path, nil)
			require.Equal(t, http.StatusOK, rec.Code, path)

			var series dropout.TrendSeries
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &series))

			assert.Equal(t, metric, series.Metric, path)
			assert.True(t, series.Simulated, path)
			assert.Len(t, series.Points, 30, path)
		}
	})

	t.Run("TrendInvalidYear", func(t *testing.T) {
		rec := doJSON(t, http.MethodGet, "/api/attendance-trend?year=abc", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

// seedLegacyRows inserts three valid flat-table rows and one with a zero age
// the importer must skip.
func seedLegacyRows(t *testing.T, pgContainer *testdb.PostgresContainer) {
	t.Helper()
	ctx := context.Background()

	_, err := pgContainer.DB.ExecContext(ctx, `
		INSERT INTO `+legacyTable+`
			(nombre, apellido, edad, genero, ingreso_familiar, ubicacion,
			 situacion_economica, tiempo_estudio, apoyo_escolar, apoyo_familiar, apoyo_educativo_extra)
		VALUES
			('Ana', 'Quispe', 23, 'F', 900, 'rural', 'bajo', 2, false, false, false),
			('Luis', 'Mamani', 17, 'M', 2000, 'urbana', 'medio', 5, true, true, false),
			('Rosa', 'Flores', 28, 'F', 350, 'rural', 'bajo', 1, false, true, false),
			('Malo', 'Registro', 0, 'M', 100, 'rural', 'bajo', 1, false, false, false)
	`)
	require.NoError(t, err)
}
