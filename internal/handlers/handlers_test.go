package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/paulcherng/SecretSantaPlatform/internal/mailer"
	"github.com/paulcherng/SecretSantaPlatform/internal/middleware"
	"github.com/paulcherng/SecretSantaPlatform/internal/service"
	"github.com/paulcherng/SecretSantaPlatform/internal/storage"
	"github.com/paulcherng/SecretSantaPlatform/internal/storage/sqlite"
)

const testAdminSecret = "test-secret"

// nopMailer accepts every delivery.
type nopMailer struct{}

func (nopMailer) Send(context.Context, mailer.Message) error { return nil }

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	kv, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { kv.Close() })

	svc := service.New(storage.NewEventStore(kv), nopMailer{}, "")
	handler := NewHTTPHandler(svc)

	router := gin.New()
	handler.RegisterPublicRoutes(router)
	adminRoutes := router.Group("/")
	adminRoutes.Use(middleware.RequireAdmin(testAdminSecret))
	handler.RegisterAdminRoutes(adminRoutes)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

// doJSON performs a request with an optional JSON body and admin secret,
// decoding the JSON response into a map.
func doJSON(t *testing.T, method, url string, body any, secret string) (int, map[string]any) {
	t.Helper()

	var reqBody bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&reqBody).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &reqBody)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("Authorization", "Bearer "+secret)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	decoded := map[string]any{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp.StatusCode, decoded
}

func createEvent(t *testing.T, server *httptest.Server) string {
	t.Helper()
	status, body := doJSON(t, http.MethodPost, server.URL+"/api/events", map[string]any{
		"eventName":  "測試活動",
		"giftAmount": "NT$300",
		"groups": []map[string]any{
			{"id": 1, "name": "A組", "limit": 1},
			{"id": 2, "name": "B組", "limit": 1},
		},
	}, testAdminSecret)
	if status != http.StatusCreated {
		t.Fatalf("create event status = %d, body = %v", status, body)
	}
	event := body["event"].(map[string]any)
	return event["id"].(string)
}

func TestAdminRoutesRequireSecret(t *testing.T) {
	server := setupTestServer(t)

	tests := []struct {
		name   string
		secret string
	}{
		{"missing secret", ""},
		{"wrong secret", "not-the-secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := doJSON(t, http.MethodGet, server.URL+"/api/events", nil, tt.secret)
			if status != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", status)
			}
		})
	}
}

func TestPublicRoutesNeedNoSecret(t *testing.T) {
	server := setupTestServer(t)
	eventID := createEvent(t, server)

	status, body := doJSON(t, http.MethodGet, server.URL+"/api/events/"+eventID+"/config", nil, "")
	if status != http.StatusOK {
		t.Fatalf("config status = %d", status)
	}
	if body["eventName"] != "測試活動" {
		t.Errorf("config = %v", body)
	}
	if _, hasID := body["id"]; hasID {
		t.Error("public config leaks internal id field")
	}

	status, body = doJSON(t, http.MethodGet, server.URL+"/api/events/"+eventID+"/status", nil, "")
	if status != http.StatusOK {
		t.Fatalf("status status = %d", status)
	}
	if body["count"].(float64) != 0 || body["state"] != "open" {
		t.Errorf("status = %v", body)
	}
}

func TestSubmitFlow(t *testing.T) {
	server := setupTestServer(t)
	eventID := createEvent(t, server)
	submitURL := server.URL + "/api/events/" + eventID + "/submissions"

	status, body := doJSON(t, http.MethodPost, submitURL, map[string]any{
		"name": "Alice", "email": "alice@example.com", "group_id": 1, "wish": "一本書",
	}, "")
	if status != http.StatusCreated {
		t.Fatalf("submit status = %d, body = %v", status, body)
	}

	// Resubmission of the same (email, group) updates in place.
	status, body = doJSON(t, http.MethodPost, submitURL, map[string]any{
		"name": "Alice", "email": "alice@example.com", "group_id": 1, "wish": "一副手套",
	}, "")
	if status != http.StatusOK || body["updated"] != true {
		t.Fatalf("resubmit status = %d, body = %v", status, body)
	}

	// Unknown group is a 400, full group a 409.
	status, _ = doJSON(t, http.MethodPost, submitURL, map[string]any{
		"name": "Bob", "email": "bob@example.com", "group_id": 9, "wish": "w",
	}, "")
	if status != http.StatusBadRequest {
		t.Errorf("unknown group status = %d, want 400", status)
	}
	status, _ = doJSON(t, http.MethodPost, submitURL, map[string]any{
		"name": "Bob", "email": "bob@example.com", "group_id": 1, "wish": "w",
	}, "")
	if status != http.StatusConflict {
		t.Errorf("full group status = %d, want 409", status)
	}
}

func TestDrawAndNotifyOverHTTP(t *testing.T) {
	server := setupTestServer(t)
	eventID := createEvent(t, server)
	drawURL := server.URL + "/api/events/" + eventID + "/draw"

	// Draw before the event is full is a conflict.
	status, _ := doJSON(t, http.MethodPost, drawURL, nil, testAdminSecret)
	if status != http.StatusConflict {
		t.Fatalf("early draw status = %d, want 409", status)
	}

	for i, groupID := range []int{1, 2} {
		status, body := doJSON(t, http.MethodPost, server.URL+"/api/events/"+eventID+"/submissions", map[string]any{
			"name":  fmt.Sprintf("p%d", i),
			"email": fmt.Sprintf("p%d@example.com", i),
			"group_id": groupID, "wish": "w",
		}, "")
		if status != http.StatusCreated {
			t.Fatalf("submit status = %d, body = %v", status, body)
		}
	}

	status, _ = doJSON(t, http.MethodPost, drawURL, nil, testAdminSecret)
	if status != http.StatusOK {
		t.Fatalf("draw status = %d, want 200", status)
	}
	status, _ = doJSON(t, http.MethodPost, drawURL, nil, testAdminSecret)
	if status != http.StatusConflict {
		t.Errorf("repeat draw status = %d, want 409", status)
	}

	status, body := doJSON(t, http.MethodPost, server.URL+"/api/events/"+eventID+"/notify", nil, testAdminSecret)
	if status != http.StatusOK || body["sent"].(float64) != 2 {
		t.Fatalf("notify status = %d, body = %v", status, body)
	}
	status, _ = doJSON(t, http.MethodPost, server.URL+"/api/events/"+eventID+"/notify", nil, testAdminSecret)
	if status != http.StatusConflict {
		t.Errorf("repeat notify status = %d, want 409", status)
	}

	// Admin status shows both flags and the assignments.
	status, body = doJSON(t, http.MethodGet, server.URL+"/api/events/"+eventID+"/status/full", nil, testAdminSecret)
	if status != http.StatusOK {
		t.Fatalf("full status = %d", status)
	}
	if body["draw_completed"] != true || body["emails_sent"] != true {
		t.Errorf("full status flags = %v", body)
	}
}

func TestUnknownEventIs404(t *testing.T) {
	server := setupTestServer(t)

	status, _ := doJSON(t, http.MethodGet, server.URL+"/api/events/evt_missing/config", nil, "")
	if status != http.StatusNotFound {
		t.Errorf("config status = %d, want 404", status)
	}
	status, _ = doJSON(t, http.MethodDelete, server.URL+"/api/events/evt_missing", nil, testAdminSecret)
	if status != http.StatusNotFound {
		t.Errorf("delete status = %d, want 404", status)
	}
}

func TestDeleteParticipantOverHTTP(t *testing.T) {
	server := setupTestServer(t)
	eventID := createEvent(t, server)

	status, body := doJSON(t, http.MethodPost, server.URL+"/api/events/"+eventID+"/submissions", map[string]any{
		"name": "Alice", "email": "alice@example.com", "group_id": 1, "wish": "w",
	}, "")
	if status != http.StatusCreated {
		t.Fatalf("submit status = %d, body = %v", status, body)
	}

	status, _ = doJSON(t, http.MethodDelete, server.URL+"/api/events/"+eventID+"/participants/abc", nil, testAdminSecret)
	if status != http.StatusBadRequest {
		t.Errorf("bad participant id status = %d, want 400", status)
	}
	status, _ = doJSON(t, http.MethodDelete, server.URL+"/api/events/"+eventID+"/participants/1", nil, testAdminSecret)
	if status != http.StatusOK {
		t.Errorf("delete participant status = %d, want 200", status)
	}
	status, _ = doJSON(t, http.MethodDelete, server.URL+"/api/events/"+eventID+"/participants/1", nil, testAdminSecret)
	if status != http.StatusNotFound {
		t.Errorf("delete missing participant status = %d, want 404", status)
	}
}
