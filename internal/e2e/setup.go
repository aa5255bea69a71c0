//go:build integration

package e2e

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/agendapp/office-service/internal/config"
	httpserver "github.com/agendapp/office-service/internal/http"
	"github.com/agendapp/office-service/internal/testutil"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// TestServer is the full router in front of a real PostgreSQL database.
// The broker and object store are in-memory doubles.
type TestServer struct {
	Server        *httptest.Server
	DB            *sql.DB
	MockPublisher *testutil.MockPublisher
	Store         *testutil.MockStore
}

// SetupE2ETest needs TEST_DATABASE_URL pointing at a disposable database;
// the test is skipped without it.
func SetupE2ETest(t *testing.T) *TestServer {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	schema, err := os.ReadFile("../../migrations/0001_init.up.sql")
	if err != nil {
		t.Fatalf("Failed to read migration: %v", err)
	}
	if _, err := db.Exec(string(schema)); err != nil {
		t.Fatalf("Failed to apply migration: %v", err)
	}

	ts := &TestServer{
		DB:            db,
		MockPublisher: testutil.NewMockPublisher(),
		Store:         testutil.NewMockStore(),
	}
	cfg := config.Config{
		App:      config.App{Timezone: "America/Sao_Paulo"},
		Document: config.Document{EscapeHTML: true},
	}
	ts.Server = httptest.NewServer(httpserver.SetupRouter(httpserver.Dependencies{
		Config:    cfg,
		DB:        db,
		Verifier:  testutil.NewTestVerifier(),
		Perms:     testutil.TestPermissions(),
		Publisher: ts.MockPublisher,
		Store:     ts.Store,
		Logger:    zap.NewNop(),
	}))
	return ts
}

// Cleanup removes every row the test owner created.
func (ts *TestServer) Cleanup(t *testing.T, ownerID string) {
	t.Helper()

	ts.Server.Close()
	for _, table := range []string{"appointments", "clinical_records", "evolutions", "document_history", "incomes", "expenses", "templates", "profiles", "patients"} {
		if _, err := ts.DB.Exec(`DELETE FROM `+table+` WHERE owner_id = $1`, ownerID); err != nil {
			t.Errorf("Failed to clean %s: %v", table, err)
		}
	}
	ts.DB.Close()
}

// Client sends JSON requests as one owner.
type Client struct {
	base  string
	token string
}

func (ts *TestServer) NewClient(t *testing.T, ownerID string) *Client {
	return &Client{base: ts.Server.URL, token: testutil.GenerateTestJWT(t, ownerID, ownerID+"@example.com")}
}

// Do sends body as JSON, checks the status and decodes the response into out
// when out is not nil.
func (c *Client) Do(t *testing.T, method, path string, body interface{}, wantStatus int, out interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		var raw bytes.Buffer
		raw.ReadFrom(resp.Body)
		t.Fatalf("%s %s: expected %d, got %d: %s", method, path, wantStatus, resp.StatusCode, raw.String())
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("Failed to decode %s %s response: %v", method, path, err)
		}
	}
}

// Upload posts a multipart form with a "name" field and a "file" part.
func (c *Client) Upload(t *testing.T, path, name, filename string, content []byte, wantStatus int, out interface{}) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("name", name)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	part.Write(content)
	mw.Close()

	req, err := http.NewRequest(http.MethodPost, c.base+path, &buf)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		t.Fatalf("POST %s: expected %d, got %d", path, wantStatus, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
	}
}
