package app

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/simp-lee/order360/internal/middleware"
)

// routeTestFS returns a minimal template filesystem for route handler tests.
func routeTestFS() fstest.MapFS {
	page := func(body string) *fstest.MapFile {
		return &fstest.MapFile{Data: []byte(`{{ template "base" . }}{{ define "content" }}` + body + `{{ end }}`)}
	}
	return fstest.MapFS{
		"templates/layouts/base.html": &fstest.MapFile{
			Data: []byte(`{{ define "base" }}{{ block "content" . }}{{ end }}{{ end }}`),
		},
		"templates/partials/nav.html": &fstest.MapFile{Data: []byte(`{{ define "nav" }}{{ end }}`)},
		"templates/errors/404.html":   page(`404`),
		"templates/errors/500.html":   page(`500:{{ .Message }}`),
		"templates/errors/502.html":   page(`502:{{ .Message }}`),
	}
}

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	r := gin.New()
	renderer, err := NewTemplateRenderer(routeTestFS(), false)
	if err != nil {
		t.Fatalf("setup renderer: %v", err)
	}
	r.HTMLRender = renderer
	return r
}

func openTestSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}
	return db
}

// sessionModule registers a page route that echoes the view session and CSRF
// token set by the page middleware, and an API route without them.
type sessionModule struct{ called bool }

func (m *sessionModule) Name() string { return "session" }

func (m *sessionModule) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	m.called = true
	api.GET("/orders", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"session": middleware.GetViewSession(c)})
	})
	pages.GET("/orders", func(c *gin.Context) {
		c.String(http.StatusOK, "%t:%t", middleware.GetViewSession(c) != "", middleware.GetCSRFToken(c) != "")
	})
}

func TestRegisterRoutes_Validation(t *testing.T) {
	tests := []struct {
		name    string
		router  *gin.Engine
		deps    *RouteDeps
		wantErr string
	}{
		{"nil router", nil, &RouteDeps{}, "router is nil"},
		{"nil deps", gin.New(), nil, "route dependencies are nil"},
		{"no modules", gin.New(), &RouteDeps{CSRFSecret: "s"}, "at least one module"},
		{"empty csrf", gin.New(), &RouteDeps{Modules: []Module{&sessionModule{}}, CSRFSecret: " "}, "csrf secret"},
		{"nil module", gin.New(), &RouteDeps{Modules: []Module{nil}, CSRFSecret: "s", Mode: gin.ReleaseMode}, "index 0 is nil"},
		{"duplicate module", gin.New(), &RouteDeps{Modules: []Module{&sessionModule{}, &sessionModule{}}, CSRFSecret: "s", Mode: gin.ReleaseMode}, "registered twice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RegisterRoutes(tt.router, tt.deps)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("RegisterRoutes() error = %v; want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestRegisterRoutes_PageAndAPIGroups(t *testing.T) {
	r := setupTestRouter(t)
	m := &sessionModule{}
	err := RegisterRoutes(r, &RouteDeps{
		Modules:    []Module{m},
		DB:         openTestSQLiteDB(t),
		Mode:       gin.ReleaseMode,
		CSRFSecret: "test-secret",
	})
	if err != nil {
		t.Fatalf("RegisterRoutes() error = %v", err)
	}
	if !m.called {
		t.Fatal("module routes not registered")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders", nil))
	if w.Body.String() != "true:true" {
		t.Errorf("page middleware = %q; want session and csrf token", w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))
	if !strings.Contains(w.Body.String(), `"session":""`) || len(w.Result().Cookies()) != 0 {
		t.Errorf("API routes must not get page middleware: %q", w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Errorf("/metrics = %d", w.Code)
	}
}

func TestHealthHandler(t *testing.T) {
	r := gin.New()
	r.GET("/health", healthHandler(openTestSQLiteDB(t)))
	r.GET("/health-nil", healthHandler(nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	var body struct {
		Status     string            `json:"status"`
		Components map[string]string `json:"components"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if w.Code != http.StatusOK || body.Status != "ok" || body.Components["database"] != "ok" {
		t.Errorf("health = %d %+v", w.Code, body)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health-nil", nil))
	if w.Code != http.StatusServiceUnavailable || !strings.Contains(w.Body.String(), "degraded") {
		t.Errorf("nil db health = %d %q", w.Code, w.Body.String())
	}
}

const blockingPingDriverName = "order360_blocking_ping"

var registerBlockingPingDriverOnce sync.Once

type blockingPingDriver struct{}

func (blockingPingDriver) Open(string) (driver.Conn, error) { return blockingPingConn{}, nil }

type blockingPingConn struct{}

func (blockingPingConn) Prepare(string) (driver.Stmt, error) { return nil, driver.ErrSkip }
func (blockingPingConn) Close() error                        { return nil }
func (blockingPingConn) Begin() (driver.Tx, error)           { return nil, driver.ErrSkip }

func (blockingPingConn) Ping(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestHealthHandler_PingTimesOut(t *testing.T) {
	registerBlockingPingDriverOnce.Do(func() {
		sql.Register(blockingPingDriverName, blockingPingDriver{})
	})
	sqlDB, err := sql.Open(blockingPingDriverName, "")
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		DisableAutomaticPing: true,
	})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}

	r := gin.New()
	r.GET("/health", healthHandler(db))

	start := time.Now()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d; want 503", w.Code)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("health check took %v; want bounded by the ping timeout", elapsed)
	}
}

func TestNoRouteHandler(t *testing.T) {
	r := setupTestRouter(t)
	r.NoRoute(noRouteHandler())

	tests := []struct {
		name, path, accept string
		wantJSON           bool
	}{
		{"api path always json", "/api/v1/missing", "text/html", true},
		{"json client", "/missing", "application/json", true},
		{"browser", "/missing", "text/html", false},
		{"wildcard", "/missing", "*/*", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("Accept", tt.accept)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusNotFound {
				t.Fatalf("status = %d; want 404", w.Code)
			}
			isJSON := strings.HasPrefix(w.Header().Get("Content-Type"), "application/json")
			if isJSON != tt.wantJSON {
				t.Errorf("json = %v; want %v (body %q)", isJSON, tt.wantJSON, w.Body.String())
			}
			if !tt.wantJSON && w.Body.String() != "404" {
				t.Errorf("body = %q; want 404 page", w.Body.String())
			}
		})
	}
}

func TestCacheStaticHandler_SetsCacheControl(t *testing.T) {
	r := gin.New()
	r.GET("/static/*filepath", cacheStaticHandler(http.FS(fstest.MapFS{
		"css/app.css": &fstest.MapFile{Data: []byte("body{}")},
	})))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/css/app.css", nil))

	if w.Code != http.StatusOK || w.Header().Get("Cache-Control") != "public, max-age=86400" {
		t.Errorf("static = %d, Cache-Control %q", w.Code, w.Header().Get("Cache-Control"))
	}
}

func TestRegisterStaticRoutes(t *testing.T) {
	for _, mode := range []string{gin.DebugMode, gin.ReleaseMode} {
		r := gin.New()
		if err := registerStaticRoutesWithError(r, mode); err != nil {
			t.Fatalf("registerStaticRoutesWithError(%s) error = %v", mode, err)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/js/app.js", nil))
		if w.Code != http.StatusOK {
			t.Errorf("%s: /static/js/app.js = %d", mode, w.Code)
		}
	}
}
