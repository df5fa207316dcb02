package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fulfillment-scheduler/pkg/errors"
	"github.com/wms-platform/fulfillment-scheduler/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter() *gin.Engine {
	router := gin.New()
	Setup(router, DefaultConfig("test", slog.New(slog.NewTextHandler(io.Discard, nil))))
	router.NoRoute(NoRoute())
	return router
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) APIErrorResponse {
	t.Helper()
	var body APIErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestActorExtractor(t *testing.T) {
	router := newRouter()
	var got Actor
	router.GET("/who", func(c *gin.Context) {
		got = GetActor(c)
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set(HeaderUserID, "supervisor-7")
	req.Header.Set(HeaderUserEmail, "sup@example.com")
	req.Header.Set("User-Agent", "scanner/1.0")
	router.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "supervisor-7", got.UserID)
	assert.Equal(t, "sup@example.com", got.UserEmail)
	assert.Equal(t, "scanner/1.0", got.UserAgent)
	assert.NotEmpty(t, got.IPAddress)
}

func TestActorExtractor_DefaultsToSystem(t *testing.T) {
	router := newRouter()
	var got Actor
	router.GET("/who", func(c *gin.Context) {
		got = GetActor(c)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/who", nil))

	assert.Equal(t, SystemUserID, got.UserID)
}

func TestRequestAndCorrelationIDs(t *testing.T) {
	router := newRouter()
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderCorrelationID, "corr-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
	assert.Equal(t, "corr-123", w.Header().Get(HeaderCorrelationID))
}

func TestRecovery(t *testing.T) {
	router := newRouter()
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, errors.CodeInternalError, decodeError(t, w).Code)
}

func TestErrorHandler_MapsAttachedErrors(t *testing.T) {
	router := newRouter()
	router.GET("/fail", func(c *gin.Context) {
		_ = c.Error(errors.ErrInvalidState("wave is not planned"))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, errors.CodeInvalidState, decodeError(t, w).Code)
}

func TestNoRoute(t *testing.T) {
	router := newRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ROUTE_NOT_FOUND", decodeError(t, w).Code)
}

func TestReadinessCheck(t *testing.T) {
	router := newRouter()
	healthy := func(context.Context) error { return nil }
	down := func(context.Context) error { return stderrors.New("circuit open") }
	router.GET("/ready", ReadinessCheck("test", map[string]DependencyCheck{
		"mongodb":  {Check: healthy},
		"kafka":    {Check: down},
		"temporal": {Check: down, Optional: true},
	}))
	router.GET("/ready-ok", ReadinessCheck("test", map[string]DependencyCheck{"mongodb": {Check: healthy}}))
	router.GET("/ready-degraded", ReadinessCheck("test", map[string]DependencyCheck{
		"mongodb":  {Check: healthy},
		"temporal": {Check: down, Optional: true},
	}))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body.Status)
	assert.Equal(t, "ok", body.Checks["mongodb"])
	assert.Equal(t, "circuit open", body.Checks["kafka"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready-ok", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready-degraded", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "circuit open", body.Checks["temporal"])
}

func TestContentType_RejectsNonJSON(t *testing.T) {
	router := newRouter()
	router.POST("/waves", func(c *gin.Context) { c.Status(http.StatusCreated) })

	req := httptest.NewRequest(http.MethodPost, "/waves", strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

type assignBody struct {
	PickerID string `json:"pickerId" binding:"required,picker_id"`
}

type zoneURI struct {
	ZoneID string `uri:"zoneId" binding:"required,zone_id"`
}

func TestBindAndValidate(t *testing.T) {
	router := newRouter()
	router.POST("/zones/:zoneId/pickers", func(c *gin.Context) {
		var uri zoneURI
		if appErr := BindURI(c, &uri); appErr != nil {
			NewErrorResponder(c, slog.Default()).RespondWithAppError(appErr)
			return
		}
		var body assignBody
		if appErr := BindAndValidate(c, &body); appErr != nil {
			NewErrorResponder(c, slog.Default()).RespondWithAppError(appErr)
			return
		}
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name   string
		zone   string
		body   string
		status int
		field  string
	}{
		{"valid", "A", `{"pickerId":"P-001"}`, http.StatusOK, ""},
		{"missing picker", "A", `{}`, http.StatusBadRequest, "pickerId"},
		{"bad picker", "A", `{"pickerId":"!!"}`, http.StatusBadRequest, "pickerId"},
		{"bad zone", "a1", `{"pickerId":"P-001"}`, http.StatusBadRequest, "zoneId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/zones/"+tt.zone+"/pickers", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.field != "" {
				body := decodeError(t, w)
				assert.Equal(t, errors.CodeValidationError, body.Code)
				assert.Contains(t, body.Details, tt.field)
			}
		})
	}
}

func TestMetricsMiddleware(t *testing.T) {
	m := metrics.New(metrics.DefaultConfig("test"))
	router := gin.New()
	router.Use(MetricsMiddleware(m))
	router.GET("/api/v1/waves/:waveId", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", MetricsEndpoint(m))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/waves/WAVE-ABCDEFGH", nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), `path="/api/v1/waves/:waveId"`)
}
