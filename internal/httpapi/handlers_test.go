package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"shopledger/internal/billshare"
	"shopledger/internal/domain"
	"shopledger/internal/service"
	"shopledger/internal/store/memory"
)

// newTestAPI builds a full API with an in-memory store, real AuthManager and
// real Service so handler tests exercise the complete request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	repo := memory.NewSeeded()
	svc := service.New(repo, billshare.NewMemoryCache(), "http://127.0.0.1:3000/bill")
	auth := NewAuthManager("test-secret-key", time.Hour, repo)

	return New(svc, auth, "*")
}

// mustHashPassword generates a bcrypt hash of the given password or fails the test.
func mustHashPassword(t *testing.T, plain string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return string(hash)
}

// loginAs obtains an access token through the real login handler.
func loginAs(t *testing.T, handler http.Handler, username, password string) string {
	t.Helper()

	payload, _ := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("login as %s failed: %d %s", username, rec.Code, rec.Body.String())
	}
	var resp domain.LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp.AccessToken
}

// doJSON issues an authenticated JSON request with a fresh CSRF token.
func doJSON(t *testing.T, api *API, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("X-CSRF-Token", api.generateCSRFToken())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestHandleLogin_Success(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	token := loginAs(t, handler, "admin", "admin123")
	if token == "" {
		t.Fatalf("expected access token")
	}
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	payload, _ := json.Marshal(map[string]string{
		"username": "admin",
		"password": "wrongpassword",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleLogin_RateLimit(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	// The loginLimiter allows 5 attempts per minute.
	// Fire 6 requests from the same "IP" (httptest uses RemoteAddr "192.0.2.1:1234").
	payload, _ := json.Marshal(map[string]string{
		"username": "admin",
		"password": "badpass",
	})

	var lastCode int
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "192.0.2.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		lastCode = rec.Code
	}

	if lastCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after 6 attempts, got %d", lastCode)
	}
}

func TestHandleItems_RequiresAuth(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/items", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHandleItems_ListWithValidToken(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, handler, "admin", "admin123")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/items", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["items"] == nil {
		t.Fatalf("expected items key in response, got %v", body)
	}
}

func TestHandleItems_CreateAndFetch(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, handler, "admin", "admin123")

	rec := doJSON(t, api, handler, http.MethodPost, "/api/v1/items", token, map[string]any{
		"name":     "Rice",
		"category": "Grocery",
		"price":    50,
		"quantity": 20,
		"unit":     "kg",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var created struct {
		Item domain.Item `json:"item"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode created item: %v", err)
	}
	if created.Item.ID < 1 {
		t.Fatalf("expected assigned item id, got %+v", created.Item)
	}

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/items/%d", created.Item.ID), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	getRec := httptest.NewRecorder()
	handler.ServeHTTP(getRec, req)

	if getRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", getRec.Code, getRec.Body.String())
	}
}

func TestHandleItems_CreateForbiddenForCashier(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, handler, "cashier", "cashier123")

	rec := doJSON(t, api, handler, http.MethodPost, "/api/v1/items", token, map[string]any{
		"name":     "Sugar",
		"category": "Grocery",
		"price":    42,
		"quantity": 10,
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleItems_GetUnknownIs404(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, handler, "admin", "admin123")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/items/9999", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleBill_CompleteFlow(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	admin := loginAs(t, handler, "admin", "admin123")
	cashier := loginAs(t, handler, "cashier", "cashier123")

	rec := doJSON(t, api, handler, http.MethodPost, "/api/v1/items", admin, map[string]any{
		"name":     "Milk",
		"category": "Dairy",
		"price":    30,
		"quantity": 10,
		"unit":     "liters",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create item failed: %d %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Item domain.Item `json:"item"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode created item: %v", err)
	}

	rec = doJSON(t, api, handler, http.MethodPost, "/api/v1/bill/lines", cashier, map[string]any{
		"item_id":  created.Item.ID,
		"quantity": 2,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("add bill line failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, api, handler, http.MethodPost, "/api/v1/bill/complete", cashier, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete sale failed: %d %s", rec.Code, rec.Body.String())
	}
	var resp domain.CompleteSaleResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode complete response: %v", err)
	}
	if resp.LinesRecorded != 1 || resp.Total != 60 {
		t.Fatalf("unexpected complete response: %+v", resp)
	}
	if !strings.HasPrefix(resp.TransactionID, "TXN-") {
		t.Fatalf("unexpected transaction id format: %s", resp.TransactionID)
	}
}

func TestHandleBill_CompleteEmptyIs400(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	cashier := loginAs(t, handler, "cashier", "cashier123")

	rec := doJSON(t, api, handler, http.MethodPost, "/api/v1/bill/complete", cashier, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty bill, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleSharedBill_PublicAccess(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	admin := loginAs(t, handler, "admin", "admin123")

	rec := doJSON(t, api, handler, http.MethodPost, "/api/v1/items", admin, map[string]any{
		"name":     "Tea",
		"category": "Beverages",
		"price":    120,
		"quantity": 30,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create item failed: %d %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Item domain.Item `json:"item"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode created item: %v", err)
	}

	rec = doJSON(t, api, handler, http.MethodPost, "/api/v1/bill/lines", admin, map[string]any{
		"item_id":  created.Item.ID,
		"quantity": 1,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("add bill line failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, api, handler, http.MethodPost, "/api/v1/bill/share", admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("share bill failed: %d %s", rec.Code, rec.Body.String())
	}
	var shared domain.ShareBillResponse
	if err := json.NewDecoder(rec.Body).Decode(&shared); err != nil {
		t.Fatalf("decode share response: %v", err)
	}

	// No Authorization header: shared bills are viewable by anyone with the key.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/bill/shared/"+shared.Key, nil)
	viewRec := httptest.NewRecorder()
	handler.ServeHTTP(viewRec, req)

	if viewRec.Code != http.StatusOK {
		t.Fatalf("expected 200 for public shared bill, got %d (body: %s)", viewRec.Code, viewRec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/bill/shared/unknown-key", nil)
	missRec := httptest.NewRecorder()
	handler.ServeHTTP(missRec, req)
	if missRec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown key, got %d", missRec.Code)
	}
}

func TestHandleSalesReport_CSVFormat(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, handler, "admin", "admin123")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/sales?format=csv", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/csv") {
		t.Fatalf("expected csv content type, got %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "section,field,value") {
		t.Fatalf("unexpected csv header: %q", rec.Body.String())
	}
}

func TestHandleSalesReport_SingleBoundDefaultsToSameDay(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, handler, "admin", "admin123")

	for _, path := range []string{
		"/api/v1/reports/sales?from=2026-04-01",
		"/api/v1/reports/sales?to=2026-04-01",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d (body: %s)", path, rec.Code, rec.Body.String())
		}
		var report struct {
			From string `json:"from"`
			To   string `json:"to"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
			t.Fatalf("%s: decode report: %v", path, err)
		}
		if report.From != "2026-04-01" || report.To != "2026-04-01" {
			t.Fatalf("%s: expected single-day range, got %s..%s", path, report.From, report.To)
		}
	}
}

func TestHandleExport_RequiresAdminRole(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	cashier := loginAs(t, handler, "cashier", "cashier123")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/data/export", nil)
	req.Header.Set("Authorization", "Bearer "+cashier)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for cashier export, got %d", rec.Code)
	}
}

// TestMustHashPassword verifies that the test helper produces valid bcrypt hashes
// (used to confirm test infrastructure is sound).
func TestMustHashPassword(t *testing.T) {
	hash := mustHashPassword(t, "secret")
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("secret")); err != nil {
		t.Fatalf("hash verification failed: %v", err)
	}
}
