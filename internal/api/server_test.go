package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/moviweb/moviweb/internal/config"
	"github.com/moviweb/moviweb/internal/metadata/mock"
	"github.com/moviweb/moviweb/internal/testutil"
	"github.com/moviweb/moviweb/internal/websocket"
)

func setupTestServer(t *testing.T) (*Server, func()) {
	t.Helper()

	tdb := testutil.NewTestDB(t)

	cfg := &config.Config{
		OMDB: config.OMDBConfig{
			BaseURL: "http://www.omdbapi.com/",
			Timeout: 5,
		},
	}

	hub := websocket.NewHub(tdb.Logger)
	go hub.Run()

	server := NewServer(tdb.DB, hub, mock.NewOMDBClient(), cfg, tdb.Logger)

	return server, tdb.Close
}

func doJSON(t *testing.T, server *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	rec := doJSON(t, server, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("HealthCheck status = %d, want %d", rec.Code, http.StatusOK)
	}

	var response map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response["status"] != "ok" {
		t.Errorf("HealthCheck status = %q, want %q", response["status"], "ok")
	}
}

func TestGetStatus(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	rec := doJSON(t, server, http.MethodGet, "/api/v1/status", "")
	if rec.Code != http.StatusOK {
		t.Errorf("GetStatus status = %d, want %d", rec.Code, http.StatusOK)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if _, ok := response["version"]; !ok {
		t.Error("GetStatus missing version field")
	}
	if _, ok := response["userCount"]; !ok {
		t.Error("GetStatus missing userCount field")
	}
	if response["lookupProvider"] != "omdb-mock" {
		t.Errorf("lookupProvider = %v, want omdb-mock", response["lookupProvider"])
	}
}

func TestUserLifecycle(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	rec := doJSON(t, server, http.MethodPost, "/api/v1/users", `{"name":"Ada"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("CreateUser status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var created struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if created.Name != "Ada" {
		t.Errorf("created.Name = %q, want %q", created.Name, "Ada")
	}

	// Same name, different case: conflict.
	rec = doJSON(t, server, http.MethodPost, "/api/v1/users", `{"name":"ada"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate CreateUser status = %d, want %d", rec.Code, http.StatusConflict)
	}

	rec = doJSON(t, server, http.MethodGet, "/api/v1/users", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("ListUsers status = %d, want %d", rec.Code, http.StatusOK)
	}
	var users []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &users); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("ListUsers returned %d users, want 1", len(users))
	}

	rec = doJSON(t, server, http.MethodDelete, "/api/v1/users/1", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("DeleteUser status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	rec = doJSON(t, server, http.MethodGet, "/api/v1/users/1", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("GetUser after delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestCreateMovieValidation(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	rec := doJSON(t, server, http.MethodPost, "/api/v1/users", `{"name":"Ada"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("CreateUser status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, server, http.MethodPost, "/api/v1/users/1/movies",
		`{"name":"The Godfather","director":"Francis Ford Coppola","year":"1972","rating":"9.2"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("CreateMovie status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	// Out-of-range rating is rejected with the failing field named.
	rec = doJSON(t, server, http.MethodPost, "/api/v1/users/1/movies",
		`{"name":"Bad Rating","director":"Someone","rating":"15"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("CreateMovie status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	var response map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response["field"] != "rating" {
		t.Errorf("response field = %q, want %q", response["field"], "rating")
	}

	// Duplicate title for the same user conflicts.
	rec = doJSON(t, server, http.MethodPost, "/api/v1/users/1/movies",
		`{"name":"the godfather","director":"Someone Else"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate CreateMovie status = %d, want %d", rec.Code, http.StatusConflict)
	}

	rec = doJSON(t, server, http.MethodPost, "/api/v1/users/999/movies",
		`{"name":"Orphan","director":"Nobody"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("CreateMovie for missing user status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestUpdateAndDeleteMovie(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	doJSON(t, server, http.MethodPost, "/api/v1/users", `{"name":"Ada"}`)
	rec := doJSON(t, server, http.MethodPost, "/api/v1/users/1/movies",
		`{"name":"The Godfather","director":"Francis Ford Coppola","year":"1972"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("CreateMovie status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, server, http.MethodPut, "/api/v1/movies/1", `{"rating":"9.2"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("UpdateMovie status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var movie map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &movie); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if movie["rating"] != 9.2 {
		t.Errorf("rating = %v, want 9.2", movie["rating"])
	}

	rec = doJSON(t, server, http.MethodPut, "/api/v1/movies/1", `{"year":"abc"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("UpdateMovie with bad year status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = doJSON(t, server, http.MethodDelete, "/api/v1/movies/1", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("DeleteMovie status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	rec = doJSON(t, server, http.MethodDelete, "/api/v1/movies/1", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second DeleteMovie status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestSearchAndImport(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	doJSON(t, server, http.MethodPost, "/api/v1/users", `{"name":"Ada"}`)

	rec := doJSON(t, server, http.MethodGet, "/api/v1/search?title=godfather", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Search status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var results []map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &results); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Search returned %d results, want 2", len(results))
	}

	rec = doJSON(t, server, http.MethodGet, "/api/v1/search", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Search without title status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = doJSON(t, server, http.MethodPost, "/api/v1/users/1/import",
		`{"imdbIds":["tt0068646","tt0068646","tt9999999"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Import status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var report struct {
		Added      int `json:"added"`
		Duplicates int `json:"duplicates"`
		Failed     int `json:"failed"`
		Items      []struct {
			Status string `json:"status"`
		} `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if report.Added != 1 || report.Duplicates != 1 || report.Failed != 1 {
		t.Errorf("report = added %d, duplicates %d, failed %d; want 1, 1, 1",
			report.Added, report.Duplicates, report.Failed)
	}

	rec = doJSON(t, server, http.MethodPost, "/api/v1/users/999/import", `{"imdbIds":["tt0068646"]}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Import for missing user status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestGetPlot(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	rec := doJSON(t, server, http.MethodGet, "/api/v1/plot/tt0068646", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GetPlot status = %d, want %d", rec.Code, http.StatusOK)
	}
	var response map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response["plot"] == "" {
		t.Error("GetPlot returned empty plot")
	}

	rec = doJSON(t, server, http.MethodGet, "/api/v1/plot/tt9999999", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("GetPlot for unknown id status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestListTasks(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	// No scheduler wired: the endpoint still answers with an empty list.
	rec := doJSON(t, server, http.MethodGet, "/api/v1/tasks", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("ListTasks status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = doJSON(t, server, http.MethodPost, "/api/v1/tasks/db-maintenance/run", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("RunTask without scheduler status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}
