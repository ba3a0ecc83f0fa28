package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "fintrack/internal/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func doRequest(r *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, http.NoBody)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result), rec.Body.String())
	return result
}

func TestRequestLogging(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogging())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, RequestID(c))
	})

	t.Run("assigns an ID", func(t *testing.T) {
		rec := doRequest(r, http.MethodGet, "/ping", nil)

		id := rec.Header().Get("X-Request-ID")
		assert.NotEmpty(t, id)
		assert.Equal(t, id, rec.Body.String())
	})

	t.Run("keeps a caller supplied ID", func(t *testing.T) {
		rec := doRequest(r, http.MethodGet, "/ping", http.Header{"X-Request-Id": {"abc-123"}})

		assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
	})
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/app", func(c *gin.Context) {
		_ = c.Error(apperrors.ErrTransactionNotFound)
	})
	r.GET("/plain", func(c *gin.Context) {
		_ = c.Error(errors.New("db exploded"))
	})
	r.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	rec := doRequest(r, http.MethodGet, "/app", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := parseBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Transaction not found", body["message"])
	assert.Contains(t, body, "data")
	assert.Nil(t, body["data"])

	rec = doRequest(r, http.MethodGet, "/plain", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "An internal error occurred", parseBody(t, rec)["message"])

	rec = doRequest(r, http.MethodGet, "/ok", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	rec := doRequest(r, http.MethodGet, "/panic", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := parseBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "An internal error occurred", body["message"])
}

func TestNotFound(t *testing.T) {
	r := gin.New()
	r.NoRoute(NotFound())

	rec := doRequest(r, http.MethodGet, "/nowhere", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, parseBody(t, rec)["success"])
}

func TestTimeout(t *testing.T) {
	t.Run("sets a deadline", func(t *testing.T) {
		r := gin.New()
		r.Use(Timeout(time.Minute))
		r.GET("/", func(c *gin.Context) {
			deadline, ok := c.Request.Context().Deadline()
			assert.True(t, ok)
			assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
			c.Status(http.StatusNoContent)
		})

		rec := doRequest(r, http.MethodGet, "/", nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("disabled when zero", func(t *testing.T) {
		r := gin.New()
		r.Use(Timeout(0))
		r.GET("/", func(c *gin.Context) {
			_, ok := c.Request.Context().Deadline()
			assert.False(t, ok)
			c.Status(http.StatusNoContent)
		})

		doRequest(r, http.MethodGet, "/", nil)
	})
}
