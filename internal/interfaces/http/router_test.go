package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/FigureLens/internal/application/matching"
	"github.com/turtacn/FigureLens/internal/application/recognition"
	"github.com/turtacn/FigureLens/internal/domain/catalog"
	"github.com/turtacn/FigureLens/internal/domain/feature"
	"github.com/turtacn/FigureLens/internal/domain/text"
	"github.com/turtacn/FigureLens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FigureLens/internal/interfaces/http/handlers"
	"github.com/turtacn/FigureLens/pkg/errors"
)

type staticProvider struct {
	entries []catalog.Entry
}

func (p *staticProvider) Snapshot(ctx context.Context) ([]catalog.Entry, error) {
	return p.entries, nil
}

func (p *staticProvider) Get(ctx context.Context, id string) (*catalog.Entry, error) {
	for i := range p.entries {
		if p.entries[i].ID == id {
			return &p.entries[i], nil
		}
	}
	return nil, errors.New(errors.ErrCodeNotFound, "catalog entry not found")
}

func (p *staticProvider) Search(ctx context.Context, f catalog.Filter) ([]catalog.Entry, error) {
	return p.entries, nil
}

func newTestRouter(t *testing.T, registry *prometheus.Registry) *gin.Engine {
	t.Helper()
	provider := &staticProvider{entries: []catalog.Entry{{ID: "momo-001", Name: "Momo"}}}
	engine, err := matching.New(provider, nil, matching.Options{}, nil)
	require.NoError(t, err)
	orch, err := recognition.New(
		feature.NewExtractor(feature.ExtractorConfig{}, nil),
		text.NewAnalyzer(nil, nil), engine, nil)
	require.NoError(t, err)

	log := logging.NewNopLogger()
	return NewRouter(RouterConfig{
		RecognitionHandler: handlers.NewRecognitionHandler(orch, log),
		CatalogHandler:     handlers.NewCatalogHandler(provider, log),
		HealthHandler:      handlers.NewHealthHandler(log),
		Logger:             log,
		Registry:           registry,
		Mode:               gin.TestMode,
	})
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestRouterHealthEndpoints(t *testing.T) {
	r := newTestRouter(t, nil)

	assert.Equal(t, http.StatusOK, get(r, "/healthz").Code)
	assert.Equal(t, http.StatusOK, get(r, "/readyz").Code)
}

func TestRouterMetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	r := newTestRouter(t, registry)

	w := get(r, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouterMetricsDisabledWithoutRegistry(t *testing.T) {
	r := newTestRouter(t, nil)
	assert.Equal(t, http.StatusNotFound, get(r, "/metrics").Code)
}

func TestRouterAssignsRequestID(t *testing.T) {
	r := newTestRouter(t, nil)
	w := get(r, "/api/v1/catalog")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouterCORSPreflight(t *testing.T) {
	r := newTestRouter(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/catalog", nil)
	req.Header.Set("Origin", "https://example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
