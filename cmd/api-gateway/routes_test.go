package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/handler"
	"github.com/noah-isme/sma-timetable-api/internal/scheduler"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Env: config.EnvProduction, APIPrefix: "/api/v1"}
	metrics := service.NewMetricsService()
	runner := scheduler.New(scheduler.DefaultOptions(), zap.NewNop())
	generator := service.NewTimetableGeneratorService(runner, nil, nil, metrics, nil, nil, service.TimetableGeneratorConfig{})
	return newRouter(routeDeps{
		cfg:       cfg,
		logger:    zap.NewNop(),
		metrics:   metrics,
		tokens:    service.NewTokenService(service.TokenConfig{Secret: "test"}),
		timetable: handler.NewTimetableHandler(generator, nil),
		probes:    handler.NewMetricsHandler(metrics, nil),
	})
}

func TestRouterGenerateContract(t *testing.T) {
	router := testRouter(t)
	payload := `{
		"years": {"FY": {"divisions": 1, "daysPerWeek": 5, "periodsPerDay": 6,
			"subjects": [{"code": "MATH", "type": "Theory", "hours": 3}]}},
		"teachers": [{"name": "Ann", "subjects": [{"code": "MATH"}], "maxHoursPerDay": 4}],
		"rooms": [{"id": "r1", "name": "C-1", "type": "Classroom"}]
	}`

	for _, path := range []string{"/generate", "/api/v1/timetables/generate"} {
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte(payload)))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, path)
		var body struct {
			Status         string                                                    `json:"status"`
			ClassTimetable map[string]map[string]map[string]map[string][]interface{} `json:"class_timetable"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "success", body.Status)

		placed := 0
		for _, slots := range body.ClassTimetable["FY"]["1"] {
			for _, entries := range slots {
				placed += len(entries)
			}
		}
		assert.Equal(t, 3, placed)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	}
}

func TestRouterGenerateWithoutTeachers(t *testing.T) {
	router := testRouter(t)
	payload := `{"years": {"FY": {"subjects": [{"code": "MATH", "hours": 2}]}}, "rooms": [{"name": "C-1", "type": "Classroom"}]}`
	req := httptest.NewRequest(http.MethodPost, "/generate", bytes.NewReader([]byte(payload)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "error", body["status"])
	assert.NotEmpty(t, body["critical_issues"])
}

func TestRouterWithoutPersistence(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/timetables", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/docs/index.html", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
