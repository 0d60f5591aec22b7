package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/xelth-com/saisun/internal/archiver"
	"github.com/xelth-com/saisun/internal/catalog"
	"github.com/xelth-com/saisun/internal/export"
	"github.com/xelth-com/saisun/internal/logger"
	"github.com/xelth-com/saisun/internal/measurement"
	"github.com/xelth-com/saisun/internal/models"
	"github.com/xelth-com/saisun/internal/reference"
	"github.com/xelth-com/saisun/internal/search"
	"github.com/xelth-com/saisun/internal/session"
	"github.com/xelth-com/saisun/internal/tabular"
	"github.com/xelth-com/saisun/internal/tabular/memory"
	"github.com/xelth-com/saisun/internal/template"
	"github.com/xelth-com/saisun/internal/users"
	"github.com/xelth-com/saisun/internal/utils"
)

const testSecret = "handler-secret"

var fixedNow = time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)

type testServer struct {
	router  *Router
	catalog *catalog.Store
	staff   string
	admin   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerOn(t, memory.NewStore())
}

func newTestServerOn(t *testing.T, store tabular.Store) *testServer {
	t.Helper()
	ctx := context.Background()
	log := logger.Nop()
	tx := tabular.NewTransactor(store, tabular.NewLocalLocker())

	cat := catalog.NewStore(tx, "catalog", log)
	tmpl := template.NewResolver(tx, "templates", log)
	meas := measurement.NewStore(tx, "recent", "archive", log)
	ref := reference.NewStore(tx, "reference", log)
	usr := users.NewStore(tx, "users", log)
	for _, ensure := range []func(context.Context) error{cat.Ensure, tmpl.Ensure, meas.Ensure, ref.Ensure, usr.Ensure} {
		if err := ensure(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if err := tmpl.Upsert(ctx, []models.TemplateRule{{Genre: "シャツ", RawFields: "着丈,肩幅"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := cat.Import(ctx, catalog.Expand([]models.ImportRow{
		{ManagementID: "A1", Brand: "Acme", Genre: "シャツ", ProductName: "AB123 Oxford", Sizes: "S,M"},
		{ManagementID: "P1", Brand: "Beta", Genre: "パンツ", ProductName: "Chino", Sizes: "30"},
	})); err != nil {
		t.Fatal(err)
	}
	if _, err := usr.Upsert(ctx, "root", "rootpw", models.RoleAdmin); err != nil {
		t.Fatal(err)
	}

	clock := func() time.Time { return fixedNow }
	rec := session.NewRecorder(cat, tmpl, meas, log,
		session.WithReference(ref), session.WithClock(clock), session.WithLocation(time.UTC))
	r := NewRouter(Services{
		Catalog:       cat,
		Templates:     tmpl,
		Measurements:  meas,
		Reference:     ref,
		Users:         usr,
		Recorder:      rec,
		Archiver:      archiver.New(meas, log, archiver.WithClock(clock), archiver.WithLocation(time.UTC)),
		Search:        search.NewService(meas, tmpl),
		Renderer:      export.Renderer{},
		JWTSecret:     testSecret,
		RetentionDays: 30,
		Log:           log,
		Now:           clock,
	})

	staff, _, _ := utils.GenerateTokens(models.User{Username: "kana", Role: models.RoleStaff}, testSecret)
	admin, _, _ := utils.GenerateTokens(models.User{Username: "root", Role: models.RoleAdmin}, testSecret)
	return &testServer{router: r, catalog: cat, staff: staff, admin: admin}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) upload(t *testing.T, path, token, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(content))
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// quotaStore fails appends to table after limit of them succeeded.
type quotaStore struct {
	*memory.Store
	table   string
	limit   int
	appends int
}

func (q *quotaStore) AppendRow(ctx context.Context, table string, row tabular.Row) error {
	if table == q.table {
		if q.appends >= q.limit {
			return errors.New("quota exceeded")
		}
		q.appends++
	}
	return q.Store.AppendRow(ctx, table, row)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestHealthAndAuth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, "GET", "/health", "", nil)
	var health map[string]string
	decode(t, rec, &health)
	if rec.Code != http.StatusOK || health["status"] != "ok" || health["version"] == "" {
		t.Errorf("health = %d %v", rec.Code, health)
	}
	if rec := s.do(t, "GET", "/api/catalog/brands", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated = %d", rec.Code)
	}

	rec = s.do(t, "POST", "/auth/login", "", LoginRequest{Username: "root", Password: "rootpw"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login = %d %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Tokens map[string]string `json:"tokens"`
		User   models.User       `json:"user"`
	}
	decode(t, rec, &resp)
	if resp.User.Role != models.RoleAdmin || resp.Tokens["accessToken"] == "" {
		t.Errorf("login response = %+v", resp)
	}
	if strings.Contains(rec.Body.String(), "$2a$") {
		t.Error("password hash leaked in login response")
	}

	if rec := s.do(t, "POST", "/auth/login", "", LoginRequest{Username: "root", Password: "nope"}); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad password = %d", rec.Code)
	}
}

func TestCatalogSelection(t *testing.T) {
	s := newTestServer(t)

	var brands []string
	decode(t, s.do(t, "GET", "/api/catalog/brands", s.staff, nil), &brands)
	if strings.Join(brands, ",") != "Acme,Beta" {
		t.Errorf("brands = %v", brands)
	}
	var ids []string
	decode(t, s.do(t, "GET", "/api/catalog/brands/Acme/ids", s.staff, nil), &ids)
	if strings.Join(ids, ",") != "A1" {
		t.Errorf("ids = %v", ids)
	}
	var sizes []string
	decode(t, s.do(t, "GET", "/api/catalog/ids/A1/sizes", s.staff, nil), &sizes)
	if len(sizes) != 2 {
		t.Errorf("sizes = %v", sizes)
	}
	var entries []models.CatalogEntry
	decode(t, s.do(t, "GET", "/api/catalog?brand=Beta", s.staff, nil), &entries)
	if len(entries) != 1 || entries[0].ManagementID != "P1" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestMeasurementFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, "GET", "/api/measurements/form?id=A1&sizes=S", s.staff, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("form = %d %s", rec.Code, rec.Body.String())
	}
	var form struct {
		State  string             `json:"state"`
		Fields []string           `json:"fields"`
		Forms  []session.SizeForm `json:"forms"`
	}
	decode(t, rec, &form)
	if form.State != "reviewing" || len(form.Forms) != 1 {
		t.Fatalf("form = %+v", form)
	}

	body := SaveRequest{
		ManagementID: "A1",
		RequestID:    "req-1",
		Inputs: map[string]session.Input{
			"S": {Values: map[string]string{"肩幅": "44", "着丈": "70"}},
		},
	}
	rec = s.do(t, "POST", "/api/measurements", s.staff, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("save = %d %s", rec.Code, rec.Body.String())
	}
	var res session.CommitResult
	decode(t, rec, &res)
	if len(res.Committed) != 1 || res.Committed[0].Size != "S" {
		t.Errorf("commit = %+v", res)
	}

	var sizes []string
	decode(t, s.do(t, "GET", "/api/catalog/ids/A1/sizes", s.staff, nil), &sizes)
	if strings.Join(sizes, ",") != "M" {
		t.Errorf("pending sizes = %v", sizes)
	}

	// S is no longer pending.
	if rec := s.do(t, "POST", "/api/measurements", s.staff, body); rec.Code != http.StatusNotFound {
		t.Errorf("resave = %d", rec.Code)
	}

	rec = s.do(t, "GET", "/api/search?id=A1", s.staff, nil)
	var result search.Result
	decode(t, rec, &result)
	if result.Len() != 1 {
		t.Fatalf("search = %+v", result)
	}
	if got := strings.Join(result.Columns, ","); !strings.Contains(got, "着丈,肩幅") && !strings.Contains(got, "肩幅,着丈") {
		t.Errorf("columns = %v", result.Columns)
	}

	rec = s.do(t, "GET", "/api/export?format=csv&id=A1", s.staff, nil)
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv") {
		t.Fatalf("export = %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), "AB123 Oxford") {
		t.Errorf("export body = %q", rec.Body.String())
	}
}

func TestErrorStatuses(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   interface{}
		status int
	}{
		{"template not found", "GET", "/api/measurements/form?id=P1", s.staff, nil, http.StatusNotFound},
		{"unknown id", "GET", "/api/measurements/form?id=ZZ", s.staff, nil, http.StatusNotFound},
		{"missing id", "GET", "/api/measurements/form", s.staff, nil, http.StatusBadRequest},
		{"template fields missing", "GET", "/api/templates/%E3%82%B3%E3%83%BC%E3%83%88/fields", s.staff, nil, http.StatusNotFound},
		{"bad export format", "GET", "/api/export?format=doc", s.staff, nil, http.StatusBadRequest},
		{"save without artifact store", "GET", "/api/export?save=true", s.staff, nil, http.StatusBadRequest},
		{"archive needs admin", "POST", "/api/archive", s.staff, nil, http.StatusForbidden},
		{"bad days", "POST", "/api/archive?days=x", s.admin, nil, http.StatusBadRequest},
		{"odoo not configured", "POST", "/api/catalog/import/odoo", s.admin, nil, http.StatusServiceUnavailable},
		{"no reference", "GET", "/api/reference?id=A1&size=S", s.staff, nil, http.StatusNotFound},
		{"unselected size", "POST", "/api/measurements", s.staff, SaveRequest{
			ManagementID: "A1", Sizes: []string{"S"},
			Inputs: map[string]session.Input{"M": {Values: map[string]string{"肩幅": "1"}}},
		}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := s.do(t, tt.method, tt.path, tt.token, tt.body); rec.Code != tt.status {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestImports(t *testing.T) {
	s := newTestServer(t)

	csv := "管理番号,ブランド,ジャンル,商品名,サイズ\nC9,Core,シャツ,Tee,\"L、XL\"\n"
	if rec := s.upload(t, "/api/catalog/import", s.staff, "list.csv", csv); rec.Code != http.StatusForbidden {
		t.Errorf("staff import = %d", rec.Code)
	}
	rec := s.upload(t, "/api/catalog/import", s.admin, "list.csv", csv)
	if rec.Code != http.StatusOK {
		t.Fatalf("import = %d %s", rec.Code, rec.Body.String())
	}
	var res catalog.ImportResult
	decode(t, rec, &res)
	if res.Added != 2 {
		t.Errorf("import result = %+v", res)
	}

	if rec := s.upload(t, "/api/catalog/import", s.admin, "list.txt", csv); rec.Code != http.StatusBadRequest {
		t.Errorf("unsupported file = %d", rec.Code)
	}
	if rec := s.upload(t, "/api/catalog/import", s.admin, "list.csv", "brand\nAcme\n"); rec.Code != http.StatusBadRequest {
		t.Errorf("missing columns = %d", rec.Code)
	}

	rec = s.upload(t, "/api/reference/import", s.admin, "ref.csv", "管理番号,サイズ,肩幅\nA1,S,45\n")
	if rec.Code != http.StatusOK {
		t.Fatalf("reference import = %d %s", rec.Code, rec.Body.String())
	}
	rec = s.do(t, "GET", "/api/reference?id=A1&size=S", s.staff, nil)
	var ref models.ReferenceStandard
	decode(t, rec, &ref)
	if v, _ := ref.Fields.Get("肩幅"); v != "45" {
		t.Errorf("reference = %+v", ref)
	}
}

func TestArchiveAndLabels(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, "POST", "/api/archive?days=0", s.admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("archive = %d %s", rec.Code, rec.Body.String())
	}
	var out map[string]interface{}
	decode(t, rec, &out)
	if out["moved"].(float64) != 0 || out["cutoff"] != "2024-05-20" {
		t.Errorf("archive = %v", out)
	}

	rec = s.do(t, "GET", "/api/catalog/labels?id=A1", s.staff, nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("labels = %d", rec.Code)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Error("labels body is not a PDF")
	}
	if rec := s.do(t, "GET", "/api/catalog/labels?id=ZZ", s.staff, nil); rec.Code != http.StatusNotFound {
		t.Errorf("empty labels = %d", rec.Code)
	}
}

func TestSavePartialFailureReportsPendingSizes(t *testing.T) {
	s := newTestServerOn(t, &quotaStore{Store: memory.NewStore(), table: "recent", limit: 1})

	body := SaveRequest{
		ManagementID: "A1",
		RequestID:    "req-quota",
		Inputs: map[string]session.Input{
			"S": {Values: map[string]string{"肩幅": "44"}},
			"M": {Values: map[string]string{"肩幅": "46"}},
		},
	}
	rec := s.do(t, "POST", "/api/measurements", s.staff, body)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("save = %d %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Error     string            `json:"error"`
		Committed []models.EntryKey `json:"committed"`
		Failed    string            `json:"failed"`
		Pending   []string          `json:"pending"`
	}
	decode(t, rec, &out)
	if len(out.Committed) != 1 || out.Committed[0].Size != "M" || out.Failed != "S" {
		t.Errorf("partial commit = %+v", out)
	}
	if strings.Join(out.Pending, ",") != "S" {
		t.Errorf("pending = %v", out.Pending)
	}
}
