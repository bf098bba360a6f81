package bootstrap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf"

	"schoolpress-backend/internal/shared/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Env:             "dev",
		Port:            "0",
		UploadsDir:      t.TempDir(),
		CORSAllowOrigin: []string{"http://localhost:5173"},
		AdminEmails:     []string{"admin@example.com"},
		Personalization: config.Personalization{
			HeaderHeightMm:    18,
			LogoMaxHeightMm:   12,
			CacheTTLSeconds:   600,
			TimeoutSeconds:    8,
			MaxPages:          30,
			DefaultSchoolName: "SchoolPress",
		},
	}
}

func buildTestApp(t *testing.T) *App {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ENV", "dev")

	app, err := Build(testConfig(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return app
}

func doJSON(t *testing.T, app *App, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	return resp
}

func signup(t *testing.T, app *App, email string) string {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email":    email,
		"password": "password123",
		"fullName": "Test Account",
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("signup %s: status %d body %s", email, resp.Code, resp.Body.String())
	}
	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode signup response: %v", err)
	}
	if payload.Token == "" {
		t.Fatal("signup returned no token")
	}
	return payload.Token
}

func uploadWorksheet(t *testing.T, app *App, token, title string) int64 {
	t.Helper()
	doc := gofpdf.New("P", "pt", "A4", "")
	doc.SetFont("Helvetica", "", 12)
	for i := 1; i <= 2; i++ {
		doc.AddPage()
		doc.Text(72, 72, fmt.Sprintf("question set %d", i))
	}
	var pdfBuf bytes.Buffer
	if err := doc.Output(&pdfBuf); err != nil {
		t.Fatalf("build pdf: %v", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("title", title); err != nil {
		t.Fatalf("write field: %v", err)
	}
	fw, err := mw.CreateFormFile("file", "sheet.pdf")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(pdfBuf.Bytes()); err != nil {
		t.Fatalf("write file part: %v", err)
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/worksheets", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("upload worksheet: status %d body %s", resp.Code, resp.Body.String())
	}

	var payload struct {
		WorksheetID int64 `json:"worksheetId"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if payload.WorksheetID == 0 {
		t.Fatal("upload returned no worksheet id")
	}
	return payload.WorksheetID
}

func TestPersonalizedDeliveryFlow(t *testing.T) {
	app := buildTestApp(t)

	teacherToken := signup(t, app, "teacher@example.com")
	worksheetID := uploadWorksheet(t, app, teacherToken, "Fractions Practice")

	// Branding so the overlay has something user-specific to draw.
	resp := doJSON(t, app, http.MethodPut, "/api/v1/users/me/branding", teacherToken, map[string]any{
		"schoolName":                "Northside Primary",
		"worksheetWatermarkOpacity": 0.4,
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("branding update: status %d body %s", resp.Code, resp.Body.String())
	}

	path := fmt.Sprintf("/api/v1/worksheets/%d/personalized", worksheetID)
	resp = doJSON(t, app, http.MethodGet, path, teacherToken, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("personalized delivery: status %d body %s", resp.Code, resp.Body.String())
	}
	if got := resp.Header().Get("X-Personalized"); got != "true" {
		t.Fatalf("X-Personalized = %q, want true", got)
	}
	if got := resp.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("Content-Type = %q, want application/pdf", got)
	}
	if got := resp.Header().Get("Content-Disposition"); !strings.HasPrefix(got, "inline") {
		t.Fatalf("Content-Disposition = %q, want inline", got)
	}
	if !bytes.HasPrefix(resp.Body.Bytes(), []byte("%PDF")) {
		t.Fatal("response body is not a PDF")
	}

	resp = doJSON(t, app, http.MethodGet, path+"?disposition=download", teacherToken, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("download delivery: status %d", resp.Code)
	}
	if got := resp.Header().Get("Content-Disposition"); !strings.HasPrefix(got, "attachment") {
		t.Fatalf("Content-Disposition = %q, want attachment", got)
	}
}

func TestPersonalizedDeliveryRequiresAuth(t *testing.T) {
	app := buildTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/worksheets/1/personalized", "", nil)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.Code)
	}
}

func TestPersonalizedDeliveryUnknownWorksheet(t *testing.T) {
	app := buildTestApp(t)
	token := signup(t, app, "teacher@example.com")

	resp := doJSON(t, app, http.MethodGet, "/api/v1/worksheets/9999/personalized", token, nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.Code)
	}
}

func TestWorksheetDeletionIsAdminOnly(t *testing.T) {
	app := buildTestApp(t)

	teacherToken := signup(t, app, "teacher@example.com")
	adminToken := signup(t, app, "admin@example.com")
	worksheetID := uploadWorksheet(t, app, teacherToken, "Fractions Practice")
	path := fmt.Sprintf("/api/v1/worksheets/%d", worksheetID)

	resp := doJSON(t, app, http.MethodDelete, path, teacherToken, nil)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("teacher delete: status %d, want 403", resp.Code)
	}

	resp = doJSON(t, app, http.MethodDelete, path, adminToken, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("admin delete: status %d body %s", resp.Code, resp.Body.String())
	}

	// The personalized route must stop serving the deleted worksheet.
	resp = doJSON(t, app, http.MethodGet, path+"/personalized", teacherToken, nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("personalized after delete: status %d, want 404", resp.Code)
	}
}

func TestSubjectAdministration(t *testing.T) {
	app := buildTestApp(t)

	teacherToken := signup(t, app, "teacher@example.com")
	adminToken := signup(t, app, "admin@example.com")

	resp := doJSON(t, app, http.MethodPost, "/api/v1/subjects", teacherToken, map[string]string{"name": "Mathematics"})
	if resp.Code != http.StatusForbidden {
		t.Fatalf("teacher create subject: status %d, want 403", resp.Code)
	}

	resp = doJSON(t, app, http.MethodPost, "/api/v1/subjects", adminToken, map[string]string{"name": "Mathematics"})
	if resp.Code != http.StatusCreated {
		t.Fatalf("admin create subject: status %d body %s", resp.Code, resp.Body.String())
	}

	resp = doJSON(t, app, http.MethodGet, "/api/v1/subjects", teacherToken, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("list subjects: status %d", resp.Code)
	}
	var titles []map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &titles); err != nil {
		t.Fatalf("decode subjects: %v", err)
	}
	if len(titles) != 1 {
		t.Fatalf("len(subjects) = %d, want 1", len(titles))
	}
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	app := buildTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/health", "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("health: status %d", resp.Code)
	}
	resp = doJSON(t, app, http.MethodGet, "/api/v1/metrics", "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("metrics: status %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "personalize_requests_total") {
		t.Fatalf("metrics output missing counters: %s", resp.Body.String())
	}
}

func TestLogoAssetsArePublic(t *testing.T) {
	app := buildTestApp(t)

	// Stored logo URLs point back at this mount; browsers fetch them
	// without credentials.
	logoDir := filepath.Join(app.Config.UploadsDir, "logos")
	if err := os.MkdirAll(logoDir, 0o755); err != nil {
		t.Fatalf("mkdir logos: %v", err)
	}
	want := []byte("logo bytes")
	if err := os.WriteFile(filepath.Join(logoDir, "acme.png"), want, 0o644); err != nil {
		t.Fatalf("write logo: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/uploads/logos/acme.png", nil)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("logo fetch: status %d body %s", resp.Code, resp.Body.String())
	}
	if !bytes.Equal(resp.Body.Bytes(), want) {
		t.Fatalf("logo body = %q, want %q", resp.Body.Bytes(), want)
	}
}
