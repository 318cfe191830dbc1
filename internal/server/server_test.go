package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goodtune/silentspaces/internal/api"
	"github.com/goodtune/silentspaces/internal/checkin"
	"github.com/goodtune/silentspaces/internal/clock"
	"github.com/goodtune/silentspaces/internal/presence"
	"github.com/goodtune/silentspaces/internal/storage"
	"github.com/goodtune/silentspaces/internal/storage/memory"
	"github.com/rs/zerolog"
)

func setupTestServer(t *testing.T) (*Server, *memory.Store, *clock.TestClock) {
	t.Helper()

	clk := &clock.TestClock{CurrentTime: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)}
	store := memory.New(clk)
	if _, err := storage.SeedZones(context.Background(), store.Zones(), nil); err != nil {
		t.Fatalf("Failed to seed zones: %v", err)
	}

	cfg := Config{
		ListenAddr:     "127.0.0.1:0",
		AllowedOrigins: []string{"http://localhost:5173"},
		PollIntervals:  api.PollIntervals{Zones: 30 * time.Second, Presence: 10 * time.Second},
		Clock:          clk,
	}
	logger := zerolog.Nop()

	return NewServer(cfg, store, checkin.NewService(store, logger), logger), store, clk
}

func doRequest(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func zoneCounts(t *testing.T, s *Server) []int {
	t.Helper()

	rec := doRequest(t, s, http.MethodGet, "/api/zones", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/zones: expected 200, got %d", rec.Code)
	}
	var zones []storage.Zone
	decode(t, rec, &zones)

	counts := make([]int, len(zones))
	for i, z := range zones {
		counts[i] = z.ActiveUsers
	}
	return counts
}

func TestCheckInCheckOutFlow(t *testing.T) {
	s, _, clk := setupTestServer(t)

	// Check in to zone 1
	rec := doRequest(t, s, http.MethodPost, "/api/checkin", map[string]interface{}{
		"name": "Alice", "zoneId": 1, "duration": "25 minutes (Pomodoro)",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var first checkin.Result
	decode(t, rec, &first)
	if first.Zone.ActiveUsers != 1 {
		t.Errorf("Expected returned zone to have 1 active user, got %d", first.Zone.ActiveUsers)
	}

	if counts := zoneCounts(t, s); counts[0] != 1 {
		t.Errorf("Expected zone 1 to have 1 active user, got %v", counts)
	}

	clk.Advance(2 * time.Minute)
	rec = doRequest(t, s, http.MethodGet, "/api/presence", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/presence: expected 200, got %d", rec.Code)
	}
	var snapshot []presence.ZonePresence
	decode(t, rec, &snapshot)
	if len(snapshot) != 6 {
		t.Fatalf("Expected 6 presence entries, got %d", len(snapshot))
	}
	if snapshot[0].Count != 1 || len(snapshot[0].Users) != 1 || snapshot[0].Users[0].Name != "Alice" {
		t.Fatalf("Expected zone 1 presence to be [Alice], got %+v", snapshot[0])
	}
	if snapshot[0].Members[0].ElapsedSeconds != 120 {
		t.Errorf("Expected 120 elapsed seconds, got %d", snapshot[0].Members[0].ElapsedSeconds)
	}

	// Switch to zone 2
	rec = doRequest(t, s, http.MethodPost, "/api/checkin", map[string]interface{}{
		"name": "Alice", "zoneId": 2, "duration": "1 hour",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var second checkin.Result
	decode(t, rec, &second)
	if second.User.ID != first.User.ID {
		t.Errorf("Expected user %d to be reused, got %d", first.User.ID, second.User.ID)
	}

	counts := zoneCounts(t, s)
	if counts[0] != 0 || counts[1] != 1 {
		t.Errorf("Expected zone counts [0 1 ...], got %v", counts)
	}

	// Check out
	rec = doRequest(t, s, http.MethodPost, "/api/checkout", map[string]interface{}{"userId": first.User.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var msg api.MessageResponse
	decode(t, rec, &msg)
	if msg.Message != "Checked out successfully" {
		t.Errorf("Unexpected message %q", msg.Message)
	}

	if counts := zoneCounts(t, s); counts[1] != 0 {
		t.Errorf("Expected zone 2 to be empty, got %v", counts)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/sessions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/sessions: expected 200, got %d", rec.Code)
	}
	if got := bytes.TrimSpace(rec.Body.Bytes()); string(got) != "[]" {
		t.Errorf("Expected empty array, got %s", got)
	}
}

func TestCheckInErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "unknown zone",
			body:       map[string]interface{}{"name": "Alice", "zoneId": 99, "duration": "1 hour"},
			wantStatus: http.StatusNotFound,
			wantMsg:    "Zone not found",
		},
		{
			name:       "empty name",
			body:       map[string]interface{}{"name": "", "zoneId": 1, "duration": "1 hour"},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Name is required",
		},
		{
			name:       "missing duration",
			body:       map[string]interface{}{"name": "Alice", "zoneId": 1},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Duration is required",
		},
		{
			name:       "malformed body",
			body:       "{not json",
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, store, _ := setupTestServer(t)

			rec := doRequest(t, s, http.MethodPost, "/api/checkin", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("Expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}

			var errResp api.ErrorResponse
			decode(t, rec, &errResp)
			if errResp.Message != tt.wantMsg {
				t.Errorf("Expected message %q, got %q", tt.wantMsg, errResp.Message)
			}
			if errResp.Code != tt.wantStatus {
				t.Errorf("Expected code %d, got %d", tt.wantStatus, errResp.Code)
			}

			// No user or session created
			if _, err := store.Users().Get(context.Background(), 1); err != storage.ErrNotFound {
				t.Errorf("Expected no user to be created, got %v", err)
			}
			sessions, _ := store.Sessions().ListActive(context.Background())
			if len(sessions) != 0 {
				t.Errorf("Expected no sessions, got %d", len(sessions))
			}
		})
	}
}

func TestCheckOutErrors(t *testing.T) {
	s, _, _ := setupTestServer(t)

	for _, body := range []interface{}{
		map[string]interface{}{},
		map[string]interface{}{"userId": 0},
		map[string]interface{}{"userId": "abc"},
	} {
		rec := doRequest(t, s, http.MethodPost, "/api/checkout", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Body %v: expected 400, got %d", body, rec.Code)
		}
	}

	// Unknown user still succeeds
	rec := doRequest(t, s, http.MethodPost, "/api/checkout", map[string]interface{}{"userId": 42})
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 for unknown user, got %d", rec.Code)
	}
}

func TestGetZone(t *testing.T) {
	s, _, _ := setupTestServer(t)

	tests := []struct {
		path       string
		wantStatus int
	}{
		{path: "/api/zones/3", wantStatus: http.StatusOK},
		{path: "/api/zones/99", wantStatus: http.StatusNotFound},
		{path: "/api/zones/abc", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := doRequest(t, s, http.MethodGet, tt.path, nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("Expected %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}

	rec := doRequest(t, s, http.MethodGet, "/api/zones/3", nil)
	var zone storage.Zone
	decode(t, rec, &zone)
	if zone.Name != "Forest Retreat" {
		t.Errorf("Expected Forest Retreat, got %q", zone.Name)
	}
}

func TestZonesJSONShape(t *testing.T) {
	s, _, _ := setupTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/zones", nil)
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected application/json, got %q", ct)
	}

	var raw []map[string]interface{}
	decode(t, rec, &raw)
	for _, key := range []string{"id", "name", "description", "icon", "color", "youtubeUrl", "activeUsers"} {
		if _, ok := raw[0][key]; !ok {
			t.Errorf("Expected key %q in zone JSON", key)
		}
	}
}

func TestUserJSONNulls(t *testing.T) {
	s, _, _ := setupTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/checkin", map[string]interface{}{
		"name": "Bob", "zoneId": 4, "duration": "45m",
	})
	var raw map[string]map[string]interface{}
	decode(t, rec, &raw)

	user := raw["user"]
	if v, ok := user["email"]; !ok || v != nil {
		t.Errorf("Expected email to be null, got %v", v)
	}
	if v, ok := raw["session"]["checkedOutAt"]; !ok || v != nil {
		t.Errorf("Expected checkedOutAt to be null, got %v", v)
	}
}

func TestHealth(t *testing.T) {
	s, _, _ := setupTestServer(t)

	_ = doRequest(t, s, http.MethodPost, "/api/checkin", map[string]interface{}{
		"name": "Carol", "zoneId": 5, "duration": "2 hours",
	})

	rec := doRequest(t, s, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body struct {
		Status         string         `json:"status"`
		ActiveSessions int            `json:"activeSessions"`
		PollIntervals  map[string]int `json:"pollIntervals"`
	}
	decode(t, rec, &body)

	if body.Status != "healthy" || body.ActiveSessions != 1 {
		t.Errorf("Unexpected health body: %+v", body)
	}
	if body.PollIntervals["zonesSeconds"] != 30 || body.PollIntervals["presenceSeconds"] != 10 {
		t.Errorf("Unexpected poll intervals: %v", body.PollIntervals)
	}
}

func TestCORSPreflight(t *testing.T) {
	s, _, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/checkin", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Expected allowed origin header, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/zones", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Expected no CORS header for unknown origin, got %q", got)
	}
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	s, _, _ := setupTestServer(t)

	if rec := doRequest(t, s, http.MethodGet, "/api/unknown", nil); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
	for _, path := range []string{"/api/checkin", "/api/checkout"} {
		rec := doRequest(t, s, http.MethodGet, path, nil)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s: Expected 405, got %d", path, rec.Code)
			continue
		}
		var resp api.ErrorResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("Failed to decode: %v", err)
		}
		if resp.Code != http.StatusMethodNotAllowed || resp.Message != "Method not allowed" {
			t.Errorf("%s: unexpected error body %+v", path, resp)
		}
	}
	if rec := doRequest(t, s, http.MethodPost, "/api/zones", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /api/zones: Expected 405, got %d", rec.Code)
	}
}
