package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/data-collector/internal/api/http/handlers"
	"github.com/spec-kit/data-collector/internal/auth"
	"github.com/spec-kit/data-collector/internal/domain"
	"github.com/spec-kit/data-collector/internal/observability"
	"github.com/spec-kit/data-collector/internal/service"
	apperrors "github.com/spec-kit/data-collector/pkg/util/errorutil"
)

type fakeSearcher struct {
	mu        sync.Mutex
	listings  []domain.JobListing
	err       error
	filters   []domain.SearchFilter
	requestID string
}

func (f *fakeSearcher) Search(ctx context.Context, filter domain.SearchFilter) ([]domain.JobListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, filter)
	f.requestID, _ = service.RequestIDFromContext(ctx)
	return f.listings, f.err
}

type fakeHistory struct {
	records []domain.SearchRecord
	err     error
	limit   int
}

func (f *fakeHistory) ListRecent(_ context.Context, limit int) ([]domain.SearchRecord, error) {
	f.limit = limit
	return f.records, f.err
}

type fakeTokenSlot struct{ present bool }

func (f fakeTokenSlot) Current(context.Context) (domain.AccessToken, bool) {
	if !f.present {
		return domain.AccessToken{}, false
	}
	return domain.AccessToken{Value: "tok"}, true
}

type fakeDependency struct {
	enabled bool
	err     error
}

func (f fakeDependency) Enabled() bool { return f.enabled }

func (f fakeDependency) Ping(context.Context) error { return f.err }

type testApp struct {
	app      *fiber.App
	searcher *fakeSearcher
	history  *fakeHistory
	metrics  *observability.Metrics
}

func newTestApp(t *testing.T, deps map[string]handlers.Pinger) *testApp {
	t.Helper()
	ta := &testApp{
		searcher: &fakeSearcher{},
		history:  &fakeHistory{},
		metrics:  observability.NewMetrics(),
	}
	page, err := handlers.NewPageHandler("Data Collector")
	require.NoError(t, err)

	ta.app = fiber.New()
	RegisterMiddlewares(ta.app, zap.NewNop(), ta.metrics, 5*time.Second)
	RegisterRoutes(ta.app, RouteConfig{
		Health:  handlers.NewHealthHandler("data-collector", "test", fakeTokenSlot{present: true}, deps),
		Page:    page,
		Search:  handlers.NewSearchHandler(ta.searcher),
		History: handlers.NewHistoryHandler(ta.history),
		Metrics: ta.metrics,
	})
	return ta
}

func (ta *testApp) get(t *testing.T, target string, headers ...string) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, body []byte) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	return env
}

func strPtr(s string) *string { return &s }

func TestSearchEndpointReturnsOffers(t *testing.T) {
	ta := newTestApp(t, nil)
	ta.searcher.listings = []domain.JobListing{
		{
			Title:             "Développeur web",
			CompanyName:       strPtr("ACME"),
			Location:          strPtr("75 - PARIS 11"),
			ContractTypeLabel: "Contrat à durée indéterminée",
			OriginalURL:       strPtr("https://example.test/offre/1"),
		},
		{Title: "Développeur PHP"},
	}

	resp, body := ta.get(t, "/api/offers/search?keyword=D%C3%A9veloppeur+web&department=75&contract=CDI&limit=10",
		RequestIDHeader, "req-42")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "req-42", resp.Header.Get(RequestIDHeader))

	var data struct {
		Count  int `json:"count"`
		Offers []struct {
			Title             string  `json:"title"`
			CompanyName       *string `json:"company_name"`
			Location          *string `json:"location"`
			ContractTypeLabel string  `json:"contract_type_label"`
			OriginalURL       *string `json:"original_url"`
		} `json:"offers"`
	}
	require.NoError(t, json.Unmarshal(decode(t, body).Data, &data))
	require.Equal(t, 2, data.Count)
	assert.Equal(t, "Développeur web", data.Offers[0].Title)
	require.NotNil(t, data.Offers[0].CompanyName)
	assert.Equal(t, "ACME", *data.Offers[0].CompanyName)
	assert.Equal(t, "Développeur PHP", data.Offers[1].Title)
	assert.Nil(t, data.Offers[1].CompanyName)
	assert.Nil(t, data.Offers[1].Location)
	assert.Nil(t, data.Offers[1].OriginalURL)
	assert.Equal(t, "N/A", data.Offers[1].ContractTypeLabel)

	require.Len(t, ta.searcher.filters, 1)
	assert.Equal(t, domain.SearchFilter{Keyword: "Développeur web", Department: "75", ContractType: domain.ContractCDI, Limit: 10}, ta.searcher.filters[0])
	assert.Equal(t, "req-42", ta.searcher.requestID)
}

func TestSearchEndpointEmptyResult(t *testing.T) {
	ta := newTestApp(t, nil)
	ta.searcher.listings = []domain.JobListing{}

	resp, body := ta.get(t, "/api/offers/search?keyword=astronaute")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"count":0,"offers":[]}`, string(decode(t, body).Data))
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
}

func TestSearchEndpointErrors(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		err    error
		status int
		code   string
	}{
		{"validation", "?keyword=", apperrors.NewValidationError("invalid search filter", map[string]any{"keyword": "required"}), http.StatusBadRequest, apperrors.CodeValidation},
		{"bad limit", "?keyword=x&limit=ten", nil, http.StatusBadRequest, apperrors.CodeValidation},
		{"missing credentials", "?keyword=x", apperrors.NewConfigurationError("FT_CLIENT_ID and FT_CLIENT_SECRET must be set"), http.StatusInternalServerError, apperrors.CodeConfiguration},
		{"auth", "?keyword=x", apperrors.NewAuthError("token endpoint returned status 401", nil), http.StatusBadGateway, apperrors.CodeAuth},
		{"search", "?keyword=x", apperrors.NewSearchError("search endpoint returned status 500", map[string]any{"status": 500}, nil), http.StatusBadGateway, apperrors.CodeSearch},
		{"unexpected", "?keyword=x", errors.New("boom"), http.StatusInternalServerError, apperrors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ta := newTestApp(t, nil)
			ta.searcher.err = tt.err

			resp, body := ta.get(t, "/api/offers/search"+tt.query)
			assert.Equal(t, tt.status, resp.StatusCode)
			env := decode(t, body)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestSearchErrorIncludesUpstreamStatus(t *testing.T) {
	ta := newTestApp(t, nil)
	ta.searcher.err = apperrors.NewSearchError("search endpoint returned status 503", map[string]any{"status": 503}, nil)

	_, body := ta.get(t, "/api/offers/search?keyword=x")
	env := decode(t, body)
	require.NotNil(t, env.Error)
	assert.EqualValues(t, 503, env.Error.Details["status"])
}

func TestRecentSearches(t *testing.T) {
	ta := newTestApp(t, nil)
	ta.history.records = []domain.SearchRecord{{ID: "1", RequestID: "r1", Keyword: "soudeur", Outcome: domain.SearchOutcomeDone, ResultCount: 3}}

	resp, body := ta.get(t, "/api/searches/recent?limit=5")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 5, ta.history.limit)
	assert.Contains(t, string(decode(t, body).Data), `"keyword":"soudeur"`)

	ta.history.err = apperrors.NewServiceUnavailable("search history is disabled")
	resp, _ = ta.get(t, "/api/searches/recent")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestIndexPage(t *testing.T) {
	ta := newTestApp(t, nil)

	resp, body := ta.get(t, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html"))
	page := string(body)
	assert.Contains(t, page, "<title>Data Collector</title>")
	assert.Contains(t, page, `<option value="CDI" selected>CDI</option>`)
	assert.Contains(t, page, `<option value="MIS">Intérim</option>`)
	assert.Contains(t, page, `<option value="30">30</option>`)
	assert.Contains(t, page, "Rechercher")
}

func TestHealthEndpoints(t *testing.T) {
	ta := newTestApp(t, map[string]handlers.Pinger{
		"postgres": fakeDependency{enabled: false},
		"redis":    fakeDependency{enabled: true},
	})

	resp, _ := ta.get(t, "/health/live")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := ta.get(t, "/health/ready")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), `"postgres":"disabled"`)
	assert.Contains(t, string(body), `"redis":"ok"`)
	assert.Contains(t, string(body), `"access_token":"present"`)

	down := newTestApp(t, map[string]handlers.Pinger{"redis": fakeDependency{enabled: true, err: errors.New("connection refused")}})
	resp, body = down.get(t, "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(body), "connection refused")
}

func TestUnknownRouteAndMetrics(t *testing.T) {
	ta := newTestApp(t, nil)

	resp, body := ta.get(t, "/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, apperrors.CodeNotFound, decode(t, body).Error.Code)

	ta.searcher.listings = []domain.JobListing{}
	ta.get(t, "/api/offers/search?keyword=x")

	resp, body = ta.get(t, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `http_requests_total{method="GET",path="/api/offers/search",status="200"} 1`)
}

func TestEndToEndWithUpstream(t *testing.T) {
	var tokenCalls, searchCalls int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			atomic.AddInt32(&tokenCalls, 1)
			_, _ = w.Write([]byte(`{"access_token":"fresh","token_type":"Bearer","expires_in":1499}`))
			return
		}
		atomic.AddInt32(&searchCalls, 1)
		assert.Equal(t, "Bearer fresh", r.Header.Get("Authorization"))
		assert.Equal(t, "0-19", r.URL.Query().Get("range"))
		assert.Equal(t, "CDD", r.URL.Query().Get("typeContrat"))
		assert.False(t, r.URL.Query().Has("departement"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer upstream.Close()

	creds := domain.Credentials{ClientID: "PAR_app", ClientSecret: "secret"}
	tokens := auth.NewTokenManager(creds, auth.TokenEndpoint{URL: upstream.URL + "/token"}, nil, zap.NewNop())
	svc := service.NewSearchService(service.SearchEndpoint{URL: upstream.URL + "/search"}, service.SearchDependencies{Tokens: tokens})
	page, err := handlers.NewPageHandler("Data Collector")
	require.NoError(t, err)

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), nil, 0)
	RegisterRoutes(app, RouteConfig{
		Health: handlers.NewHealthHandler("data-collector", "test", tokens, nil),
		Page:   page,
		Search: handlers.NewSearchHandler(svc),
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/offers/search?keyword=cariste&contract=cdd&limit=20&department=+", nil), -1)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.JSONEq(t, `{"data":{"count":0,"offers":[]}}`, string(body))
	assert.Equal(t, int32(1), atomic.LoadInt32(&tokenCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&searchCalls))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil), -1)
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"access_token":"present"`)
}

func TestSearchTransportFailureShowsCause(t *testing.T) {
	closed := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	closed.Close()

	store := auth.NewMemoryTokenStore()
	require.NoError(t, store.Save(context.Background(), domain.AccessToken{Value: "kept"}))
	creds := domain.Credentials{ClientID: "PAR_app", ClientSecret: "secret"}
	tokens := auth.NewTokenManager(creds, auth.TokenEndpoint{URL: closed.URL + "/token"}, store, zap.NewNop())
	svc := service.NewSearchService(service.SearchEndpoint{URL: closed.URL + "/search"}, service.SearchDependencies{Tokens: tokens})
	page, err := handlers.NewPageHandler("Data Collector")
	require.NoError(t, err)

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), nil, 0)
	RegisterRoutes(app, RouteConfig{
		Health: handlers.NewHealthHandler("data-collector", "test", tokens, nil),
		Page:   page,
		Search: handlers.NewSearchHandler(svc),
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/offers/search?keyword=cariste", nil), -1)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	env := decode(t, body)
	require.NotNil(t, env.Error)
	assert.Equal(t, apperrors.CodeSearch, env.Error.Code)
	assert.True(t, strings.HasPrefix(env.Error.Message, "search request failed: "), env.Error.Message)
	assert.Contains(t, env.Error.Message, "dial tcp")
}

func TestInternalErrorHidesCause(t *testing.T) {
	ta := newTestApp(t, nil)
	ta.searcher.err = errors.New("pool exhausted")

	_, body := ta.get(t, "/api/offers/search?keyword=x")
	env := decode(t, body)
	require.NotNil(t, env.Error)
	assert.Equal(t, "internal server error", env.Error.Message)
}
