package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing/internal/core/apperror"
	"billing/internal/core/numerator"
	"billing/internal/domain/documents/certificate"
	"billing/internal/domain/documents/challan"
	"billing/internal/domain/documents/estimate"
	"billing/internal/domain/documents/invoice"
	infranumerator "billing/internal/infrastructure/numerator"
	"billing/internal/infrastructure/storage/sqlite"
	"billing/pkg/logger"
)

var ist = time.FixedZone("IST", 5*3600+1800)

type testAPI struct {
	router http.Handler
	txm    *sqlite.TxManager
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	txm := sqlite.NewTxManager(db)
	reg := prometheus.NewRegistry()
	gen := infranumerator.New(sqlite.NewNumberStore(txm), infranumerator.Options{
		Org:      "JMD",
		Location: ist,
		Metrics:  infranumerator.NewMetrics(reg),
	})

	router := NewRouter(RouterConfig{
		AppName:      "billing",
		Logger:       logger.Nop(),
		DB:           txm,
		Driver:       "sqlite",
		Numbering:    gen,
		Invoices:     invoice.NewService(sqlite.NewInvoiceRepo(txm), gen, txm),
		Challans:     challan.NewService(sqlite.NewChallanRepo(txm), gen, txm),
		Estimates:    estimate.NewService(sqlite.NewEstimateRepo(txm), gen, txm),
		Certificates: certificate.NewService(sqlite.NewCertificateRepo(txm), gen, txm, "JMD Interiors"),
		Registry:     reg,
	})
	return &testAPI{router: router, txm: txm}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type docResp struct {
	ID          string `json:"id"`
	Number      string `json:"number"`
	Version     int    `json:"version"`
	Total       string `json:"total"`
	CompanyName string `json:"companyName"`
}

type errResp struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

func invoiceBody(number string) map[string]any {
	return map[string]any{
		"number":     number,
		"date":       "2025-07-01",
		"clientName": "Acme Stores",
		"tax":        "18",
		"items": []map[string]any{
			{"description": "Wall panelling", "qty": "2", "rate": "50"},
		},
	}
}

func TestInvoiceLifecycle(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/invoices", invoiceBody(""))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decode[docResp](t, rec)
	assert.Equal(t, "JMD/2025-26/1", first.Number)
	assert.Equal(t, "118", first.Total)

	rec = api.do(t, http.MethodPost, "/api/v1/invoices", invoiceBody(""))
	require.Equal(t, http.StatusCreated, rec.Code)
	second := decode[docResp](t, rec)
	assert.Equal(t, "JMD/2025-26/2", second.Number)

	// A taken number is replaced by the next free one
	rec = api.do(t, http.MethodPost, "/api/v1/invoices", invoiceBody("JMD/2025-26/1"))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "JMD/2025-26/3", decode[docResp](t, rec).Number)

	rec = api.do(t, http.MethodGet, "/api/v1/invoices?number=JMD/2025-26/2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, second.ID, decode[docResp](t, rec).ID)

	rec = api.do(t, http.MethodGet, "/api/v1/invoices/"+first.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, first.Number, decode[docResp](t, rec).Number)

	// Renumbering onto another document's number conflicts
	update := invoiceBody("JMD/2025-26/2")
	update["version"] = first.Version
	rec = api.do(t, http.MethodPut, "/api/v1/invoices/"+first.ID, update)
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	assert.Equal(t, apperror.CodeDuplicate, decode[errResp](t, rec).Code)

	// Blank number keeps the stored one
	update = invoiceBody("")
	update["version"] = first.Version
	rec = api.do(t, http.MethodPut, "/api/v1/invoices/"+first.ID, update)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[docResp](t, rec)
	assert.Equal(t, first.Number, updated.Number)
	assert.Equal(t, first.Version+1, updated.Version)

	// Stale version
	rec = api.do(t, http.MethodPut, "/api/v1/invoices/"+first.ID, update)
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	assert.Equal(t, apperror.CodeConcurrentModification, decode[errResp](t, rec).Code)

	rec = api.do(t, http.MethodDelete, "/api/v1/invoices/"+second.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Deleted numbers stay reserved
	rec = api.do(t, http.MethodPost, "/api/v1/invoices", invoiceBody(""))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "JMD/2025-26/4", decode[docResp](t, rec).Number)

	rec = api.do(t, http.MethodGet, "/api/v1/invoices?numberPrefix=JMD/2025-26/&orderBy=number", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Items      []docResp `json:"items"`
		TotalCount int64     `json:"totalCount"`
	}](t, rec)
	assert.EqualValues(t, 3, list.TotalCount)
}

func TestDocumentTypesUseTheirOwnNumbering(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/challans", map[string]any{
		"date":       "2026-02-10",
		"clientName": "Acme Stores",
		"items":      []map[string]any{{"description": "Paint", "qty": "4"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "JMD/2025-26/001", decode[docResp](t, rec).Number)

	rec = api.do(t, http.MethodPost, "/api/v1/estimates", map[string]any{
		"date":       "2026-04-01",
		"clientName": "Acme Stores",
		"subject":    "Store refit",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "JMD/2026-27/141", decode[docResp](t, rec).Number)

	rec = api.do(t, http.MethodPost, "/api/v1/certificates", map[string]any{
		"date":       "2025-09-15",
		"clientName": "Acme Stores",
		"storeName":  "Acme Bandra",
		"items":      []map[string]any{{"activity": "False ceiling", "qty": "1"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cert := decode[docResp](t, rec)
	assert.Equal(t, "JMD/2025-26/1", cert.Number)
	assert.Equal(t, "JMD Interiors", cert.CompanyName)
}

func TestCreateValidation(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/invoices", map[string]any{
		"date":       "2025-07-01",
		"clientName": "Acme Stores",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperror.CodeValidation, decode[errResp](t, rec).Code)

	rec = api.do(t, http.MethodGet, "/api/v1/invoices/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/invoices?dateFrom=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNumberingEndpoints(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/v1/numbering/fiscal-year?date=2026-02-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2025-26", decode[map[string]any](t, rec)["fiscalYear"])

	rec = api.do(t, http.MethodGet, "/api/v1/numbering/challan/next?date=2025-07-01", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	next := decode[map[string]any](t, rec)
	assert.Equal(t, "JMD/2025-26/001", next["number"])
	assert.Equal(t, "JMD/2025-26/", next["prefix"])
	assert.Nil(t, next["explicitAccepted"])

	rec = api.do(t, http.MethodGet, "/api/v1/numbering/challan/next?date=2025-07-01&number=CUSTOM-9", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	next = decode[map[string]any](t, rec)
	assert.Equal(t, "CUSTOM-9", next["number"])
	assert.Equal(t, true, next["explicitAccepted"])

	rec = api.do(t, http.MethodGet, "/api/v1/numbering/receipt/next", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/numbering/fiscal-year?date=31-03-2026", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSequenceExhaustedIsServiceUnavailable(t *testing.T) {
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	txm := sqlite.NewTxManager(db)

	gen := &numerator.MockGenerator{
		AllocateAndStoreFunc: func(ctx context.Context, req numerator.Request, persist numerator.PersistFunc) (string, error) {
			return "", apperror.NewSequenceExhausted(string(req.DocumentType), "JMD/2025-26/", 5).
				WithCause(numerator.ErrSequenceExhausted)
		},
	}
	router := NewRouter(RouterConfig{
		Logger:   logger.Nop(),
		DB:       txm,
		Invoices: invoice.NewService(sqlite.NewInvoiceRepo(txm), gen, txm),
	})
	api := &testAPI{router: router, txm: txm}

	rec := api.do(t, http.MethodPost, "/api/v1/invoices", invoiceBody(""))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code, rec.Body.String())
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	body := decode[errResp](t, rec)
	assert.Equal(t, apperror.CodeSequenceExhausted, body.Code)
	assert.Equal(t, "could not assign a document number, please retry", body.Message)
}

func TestStoreFailureIsInternalError(t *testing.T) {
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	txm := sqlite.NewTxManager(db)
	gen := infranumerator.New(sqlite.NewNumberStore(txm), infranumerator.Options{Org: "JMD"})
	router := NewRouter(RouterConfig{
		Logger:   logger.Nop(),
		DB:       txm,
		Invoices: invoice.NewService(sqlite.NewInvoiceRepo(txm), gen, txm),
	})
	require.NoError(t, db.Close())

	api := &testAPI{router: router, txm: txm}
	rec := api.do(t, http.MethodPost, "/api/v1/invoices", invoiceBody(""))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode[errResp](t, rec)
	assert.Equal(t, apperror.CodeInternal, body.Code)
	assert.NotContains(t, rec.Body.String(), "sql")

	rec = api.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/invoices", invoiceBody(""))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "numerator_allocations_total")
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="POST",route="/api/v1/invoices",status="201"}`)

	rec = api.do(t, http.MethodGet, "/health/info", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sqlite", decode[map[string]any](t, rec)["database"])

	rec = api.do(t, http.MethodGet, "/api/v1/invoices", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
