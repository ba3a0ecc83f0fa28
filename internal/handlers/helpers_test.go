package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/validator"
)

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// assertEnvelope checks the success flag and message of a response and
// returns its data field.
func assertEnvelope(t *testing.T, rec *httptest.ResponseRecorder, success bool, message string) interface{} {
	t.Helper()
	result := parseJSON(t, rec)
	if result["success"] != success {
		t.Errorf("expected success=%v, got %v", success, result["success"])
	}
	if message != "" && result["message"] != message {
		t.Errorf("expected message %q, got %q", message, result["message"])
	}
	data, ok := result["data"]
	if !ok {
		t.Errorf("expected data key in envelope, got %v", result)
	}
	if !success && data != nil {
		t.Errorf("expected null data on failure, got %v", data)
	}
	return data
}

func TestRespondWithError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"app error", apperrors.ErrCategoryExists, http.StatusConflict, "Category already exists"},
		{"custom message", apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than 0"), http.StatusBadRequest, "amount must be greater than 0"},
		{"wrapped internal", apperrors.Wrap(apperrors.ErrInternalServer, errors.New("db gone")), http.StatusInternalServerError, "An internal error occurred"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "An internal error occurred"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/", func(c *gin.Context) { respondWithError(c, tc.err) })

			rec := doRequest(r, "GET", "/", "")

			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			assertEnvelope(t, rec, false, tc.message)
		})
	}
}

func TestParseFlexibleTime(t *testing.T) {
	got, err := parseFlexibleTime("2024-03-05")
	if err != nil || !got.Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected result %v, %v", got, err)
	}

	got, err = parseFlexibleTime("2024-03-05T10:00:00+01:00")
	if err != nil || !got.Equal(time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected result %v, %v", got, err)
	}

	if _, err := parseFlexibleTime("05/03/2024"); err == nil {
		t.Error("expected error for unsupported format")
	}
}
