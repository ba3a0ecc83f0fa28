package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"fintrack/internal/models"
	"fintrack/internal/services"
	"fintrack/internal/testutil"
	"fintrack/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.SetupTestDB(t)
	audit := services.NewAuditRecorder(nil)
	router := NewRouter(Services{
		Categories:   services.NewCategoryService(db, audit),
		Transactions: services.NewTransactionService(db, audit),
		Reports:      services.NewReportService(db),
	}, RouterOptions{RequestTimeout: 5 * time.Second})
	return &testServer{t: t, db: db, router: router}
}

func (s *testServer) do(method, path, body string) (int, envelope) {
	s.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func (s *testServer) createTransaction(title string, amount float64, txType, category, date string) string {
	s.t.Helper()
	body := fmt.Sprintf(`{"title":%q,"amount":%v,"type":%q,"category":%q,"date":%q}`, title, amount, txType, category, date)
	code, env := s.do(http.MethodPost, "/api/v1/transactions", body)
	require.Equal(s.t, http.StatusCreated, code, env.Message)

	var tx models.Transaction
	require.NoError(s.t, json.Unmarshal(env.Data, &tx))
	return tx.ID
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(http.MethodGet, "/api/health", "")

	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
}

type failingPinger struct{}

func (failingPinger) PingContext(context.Context) error { return errors.New("down") }

func TestHealthUnavailable(t *testing.T) {
	router := NewRouter(Services{}, RouterOptions{Health: failingPinger{}})

	req := httptest.NewRequest(http.MethodGet, "/api/health", http.NoBody)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(http.MethodGet, "/api/v1/nothing", "")

	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, env.Success)
	assert.Equal(t, "null", string(env.Data))
}

func TestCategoryFlow(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(http.MethodPost, "/api/v1/categories", `{"name":" Food ","type":"expense"}`)
	require.Equal(t, http.StatusCreated, code, env.Message)

	code, env = s.do(http.MethodPost, "/api/v1/categories", `{"name":"food","type":"expense"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, env.Success)
	assert.Equal(t, "null", string(env.Data))

	code, env = s.do(http.MethodGet, "/api/v1/categories", "")
	require.Equal(t, http.StatusOK, code)
	var cats []models.Category
	require.NoError(t, json.Unmarshal(env.Data, &cats))
	require.Len(t, cats, 1)
	assert.Equal(t, "food", cats[0].Name)

	code, env = s.do(http.MethodPatch, "/api/v1/categories/FOOD", `{"description":"groceries and eating out"}`)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, "Updated", env.Message)

	code, _ = s.do(http.MethodPatch, "/api/v1/categories/ghost", `{"description":"x"}`)
	assert.Equal(t, http.StatusNotFound, code)

	id := s.createTransaction("Lunch out", 12.5, "expense", "food", "2024-03-05")

	code, env = s.do(http.MethodDelete, "/api/v1/categories/food", "")
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.JSONEq(t, `{"reassigned_transactions":1}`, string(env.Data))

	code, env = s.do(http.MethodGet, "/api/v1/transactions/"+id, "")
	require.Equal(t, http.StatusOK, code)
	var tx models.Transaction
	require.NoError(t, json.Unmarshal(env.Data, &tx))
	assert.Equal(t, models.UncategorizedCategory, tx.Category)

	assert.Equal(t, int64(4), testutil.CountRows(t, s.db, &models.AuditLog{}))
}

func TestTransactionFlow(t *testing.T) {
	s := newTestServer(t)
	yesterday := time.Now().UTC().AddDate(0, 0, -1)

	coffee := s.createTransaction("Coffee", 4.5, "expense", "Food", yesterday.Format(time.RFC3339))
	s.createTransaction("Salary", 3000, "income", "salary", yesterday.Format(time.RFC3339))

	code, env := s.do(http.MethodPost, "/api/v1/transactions",
		fmt.Sprintf(`{"title":"Later","amount":1,"type":"expense","category":"food","date":%q}`, time.Now().Add(24*time.Hour).Format(time.RFC3339)))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, env.Success)

	code, env = s.do(http.MethodGet, "/api/v1/transactions?category=FOOD", "")
	require.Equal(t, http.StatusOK, code)
	var txs []models.Transaction
	require.NoError(t, json.Unmarshal(env.Data, &txs))
	require.Len(t, txs, 1)
	assert.Equal(t, "food", txs[0].Category)
	assert.Equal(t, []string{}, txs[0].Tags)

	code, env = s.do(http.MethodGet, "/api/v1/transactions/search?q=coffee", "")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &txs))
	require.Len(t, txs, 1)
	assert.Equal(t, coffee, txs[0].ID)

	code, env = s.do(http.MethodGet, "/api/v1/transactions/summary?month="+yesterday.Format("2006-01"), "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Summary", env.Message)
	var summary services.MonthlySummary
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Contains(t, summary.CategoryBreakdown, services.CategoryTotal{Category: "food", Total: 4.5})

	code, env = s.do(http.MethodGet, "/api/v1/transactions/summary?month=1999-01", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "No data found", env.Message)
	assert.JSONEq(t, `{}`, string(env.Data))

	code, _ = s.do(http.MethodGet, "/api/v1/transactions/summary?month=1999-13", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(http.MethodPatch, "/api/v1/transactions/"+coffee, `{"amount":5.25,"tags":["cafe"]}`)
	require.Equal(t, http.StatusOK, code, env.Message)
	var updated models.Transaction
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, 5.25, updated.Amount)
	assert.Equal(t, []string{"cafe"}, updated.Tags)

	code, env = s.do(http.MethodDelete, "/api/v1/transactions/bulk?category=food", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"count":1}`, string(env.Data))

	code, _ = s.do(http.MethodGet, "/api/v1/transactions/"+coffee, "")
	assert.Equal(t, http.StatusNotFound, code)

	code, env = s.do(http.MethodDelete, "/api/v1/transactions/bulk", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"count":1}`, string(env.Data))

	code, _ = s.do(http.MethodDelete, "/api/v1/transactions/"+coffee, "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRunShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, addr, http.NotFoundHandler(), time.Second)
	}()

	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
