package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tripmate/internal/domain"
	"github.com/kailas-cloud/tripmate/internal/domain/profile"
	"github.com/kailas-cloud/tripmate/internal/domain/record"
	healthuc "github.com/kailas-cloud/tripmate/internal/usecase/health"
	"github.com/kailas-cloud/tripmate/internal/usecase/recommend"
)

type mockRecommender struct {
	handleFn func(ctx context.Context, req recommend.Request) (recommend.Response, error)
	likeFn   func(ctx context.Context, req recommend.LikeRequest) (recommend.LikeResponse, error)
	lastReq  recommend.Request
}

func (m *mockRecommender) HandleRequest(ctx context.Context, req recommend.Request) (recommend.Response, error) {
	m.lastReq = req
	if m.handleFn != nil {
		return m.handleFn(ctx, req)
	}
	return recommend.Response{Offset: req.Offset, Limit: req.Limit}, nil
}

func (m *mockRecommender) Like(ctx context.Context, req recommend.LikeRequest) (recommend.LikeResponse, error) {
	if m.likeFn != nil {
		return m.likeFn(ctx, req)
	}
	return recommend.LikeResponse{Message: "Successfully liked " + req.Name, Matched: 1, Persisted: true}, nil
}

type mockDatasets struct{ entries []recommend.Entry }

func (m *mockDatasets) Entries() []recommend.Entry { return m.entries }

type mockHealth struct{ report healthuc.Report }

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

func newTestRouter(rec Recommender, cfg RouterConfig) http.Handler {
	s := NewServer(rec, &mockDatasets{
		entries: []recommend.Entry{
			{Domain: profile.Hotels, City: "kl", Ref: record.DatasetRef{File: "final_hotels.xlsx", Sheet: "kl_hotels"}},
		},
	}, &mockHealth{report: healthuc.Report{
		Status: healthuc.Healthy,
		Checks: map[string]healthuc.CheckResult{"datasets": healthuc.CheckOK},
	}}, Limits{Chat: 3, ShowMore: 2}, zap.NewNop())
	return NewRouter(s, cfg)
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp.Error
}

func TestChat_Suggestions(t *testing.T) {
	rec := &mockRecommender{handleFn: func(_ context.Context, req recommend.Request) (recommend.Response, error) {
		return recommend.Response{
			Suggestions: []recommend.Suggestion{{
				Name:        "Sunset Cafe",
				Description: "Sea view",
				Address:     "Jalan Pantai, Kedah, Malaysia",
				Reviews:     "Not available",
				Website:     "Not available",
				Extras:      map[string]string{"cuisines": "Italian", "dietary": "Not specified"},
				Likes:       4,
				Relevance:   0.87,
			}},
			TotalResults: 1,
			Offset:       req.Offset,
			Limit:        req.Limit,
		}, nil
	}}
	h := newTestRouter(rec, RouterConfig{})

	rr := post(t, h, "/chat", `{"city":"langkawi","category":"restaurants","query":"sunset cafe","liked":["a"]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Response     string           `json:"response"`
		Suggestions  []map[string]any `json:"suggestions"`
		TotalResults int              `json:"total_results"`
		Offset       int              `json:"offset"`
		Limit        int              `json:"limit"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.TotalResults != 1 || resp.Offset != 0 || resp.Limit != 3 {
		t.Errorf("unexpected envelope: %+v", resp)
	}
	if len(resp.Suggestions) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(resp.Suggestions))
	}
	sg := resp.Suggestions[0]
	if sg["name"] != "Sunset Cafe" || sg["cuisines"] != "Italian" || sg["likes"] != float64(4) || sg["relevance"] != 0.87 {
		t.Errorf("unexpected suggestion: %v", sg)
	}
	if len(rec.lastReq.Liked) != 1 || rec.lastReq.Limit != 3 {
		t.Errorf("unexpected request passed to recommender: %+v", rec.lastReq)
	}
}

func TestChat_ConversationalReply(t *testing.T) {
	rec := &mockRecommender{handleFn: func(_ context.Context, req recommend.Request) (recommend.Response, error) {
		return recommend.Response{Reply: "Hello! How can I help you find hotels?", Offset: req.Offset, Limit: req.Limit}, nil
	}}
	h := newTestRouter(rec, RouterConfig{})

	rr := post(t, h, "/chat", `{"city":"kl","category":"hotels","query":"hi"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp recommendResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Response != "Hello! How can I help you find hotels?" {
		t.Errorf("response = %q", resp.Response)
	}
	if resp.Suggestions == nil || len(resp.Suggestions) != 0 {
		t.Errorf("expected empty suggestions array, got %v", resp.Suggestions)
	}
}

func TestChat_MissingFields(t *testing.T) {
	h := newTestRouter(&mockRecommender{}, RouterConfig{})

	for _, body := range []string{
		`{"category":"hotels","query":"x"}`,
		`{"city":"kl","query":"x"}`,
		`{"city":"kl","category":"hotels"}`,
	} {
		rr := post(t, h, "/chat", body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", body, rr.Code)
			continue
		}
		if msg := decodeError(t, rr); msg != msgMissingQuery {
			t.Errorf("%s: error = %q", body, msg)
		}
	}
}

func TestChat_InvalidBody(t *testing.T) {
	h := newTestRouter(&mockRecommender{}, RouterConfig{})

	rr := post(t, h, "/chat", `{not json`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	if msg := decodeError(t, rr); msg != "Invalid request body" {
		t.Errorf("error = %q", msg)
	}
}

func TestChat_TooManyLiked(t *testing.T) {
	h := newTestRouter(&mockRecommender{}, RouterConfig{})

	liked := make([]string, 51)
	for i := range liked {
		liked[i] = fmt.Sprintf("%q", fmt.Sprintf("place %d", i))
	}
	body := `{"city":"kl","category":"hotels","query":"x","liked":[` + strings.Join(liked, ",") + `]}`
	rr := post(t, h, "/chat", body)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	if msg := decodeError(t, rr); !strings.Contains(msg, "liked") {
		t.Errorf("error = %q", msg)
	}
}

func TestChat_DomainErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{
			name:    "unsupported category",
			err:     domain.NewInputError(domain.ErrUnsupportedDomain, "Unsupported category: museums"),
			status:  http.StatusBadRequest,
			message: "Unsupported category: museums",
		},
		{
			name:    "unknown city",
			err:     domain.NewInputError(domain.ErrUnknownCity, "No data available for Johor Bahru hotels."),
			status:  http.StatusNotFound,
			message: "No data available for Johor Bahru hotels.",
		},
		{
			name:    "dataset unavailable",
			err:     fmt.Errorf("load final_hotels.xlsx#kl_hotels: open: %w", domain.ErrDatasetUnavailable),
			status:  http.StatusInternalServerError,
			message: "Server error: dataset unavailable",
		},
		{
			name:    "provider error",
			err:     fmt.Errorf("semantic: %w", domain.ErrEmbeddingProviderError),
			status:  http.StatusBadGateway,
			message: "Server error: embedding provider error",
		},
		{
			name:    "timeout",
			err:     fmt.Errorf("semantic: %w", domain.ErrEmbeddingTimeout),
			status:  http.StatusGatewayTimeout,
			message: "Server error: embedding timeout",
		},
		{
			name:    "unexpected",
			err:     errors.New("secret internals"),
			status:  http.StatusInternalServerError,
			message: "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &mockRecommender{handleFn: func(context.Context, recommend.Request) (recommend.Response, error) {
				return recommend.Response{}, tt.err
			}}
			h := newTestRouter(rec, RouterConfig{})

			rr := post(t, h, "/chat", `{"city":"kl","category":"hotels","query":"x"}`)
			if rr.Code != tt.status {
				t.Errorf("status = %d, want %d", rr.Code, tt.status)
			}
			if msg := decodeError(t, rr); msg != tt.message {
				t.Errorf("error = %q, want %q", msg, tt.message)
			}
		})
	}
}

func TestShowMore_Defaults(t *testing.T) {
	rec := &mockRecommender{}
	h := newTestRouter(rec, RouterConfig{})

	rr := post(t, h, "/show_more", `{"city":"kl","category":"hotels","query":"pool"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if rec.lastReq.Offset != 0 || rec.lastReq.Limit != 2 {
		t.Errorf("expected offset 0 limit 2, got %+v", rec.lastReq)
	}
	if rec.lastReq.Liked != nil {
		t.Errorf("show_more must not credit likes, got %v", rec.lastReq.Liked)
	}
}

func TestShowMore_ExplicitPage(t *testing.T) {
	rec := &mockRecommender{}
	h := newTestRouter(rec, RouterConfig{})

	rr := post(t, h, "/show_more", `{"city":"kl","category":"hotels","query":"pool","offset":8,"limit":5}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if rec.lastReq.Offset != 8 || rec.lastReq.Limit != 5 {
		t.Errorf("expected offset 8 limit 5, got %+v", rec.lastReq)
	}

	var resp recommendResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Offset != 8 || resp.Limit != 5 {
		t.Errorf("offset/limit not echoed: %+v", resp)
	}
}

func TestShowMore_NegativeOffset(t *testing.T) {
	h := newTestRouter(&mockRecommender{}, RouterConfig{})

	rr := post(t, h, "/show_more", `{"city":"kl","category":"hotels","query":"pool","offset":-1}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	if msg := decodeError(t, rr); !strings.Contains(msg, "offset") {
		t.Errorf("error = %q", msg)
	}
}

func TestLike(t *testing.T) {
	h := newTestRouter(&mockRecommender{}, RouterConfig{})

	rr := post(t, h, "/like", `{"city":"kl","category":"hotels","name":"Grand Hotel"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp likeResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.Message != "Successfully liked Grand Hotel" || resp.Matched != 1 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestLike_MissingName(t *testing.T) {
	h := newTestRouter(&mockRecommender{}, RouterConfig{})

	rr := post(t, h, "/like", `{"city":"kl","category":"hotels"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	if msg := decodeError(t, rr); msg != msgMissingLike {
		t.Errorf("error = %q", msg)
	}
}

func TestDatasets(t *testing.T) {
	h := newTestRouter(&mockRecommender{}, RouterConfig{})

	req := httptest.NewRequest(http.MethodGet, "/datasets", http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp datasetsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	want := datasetItem{Category: "hotels", City: "kl", File: "final_hotels.xlsx", Sheet: "kl_hotels"}
	if len(resp.Datasets) != 1 || resp.Datasets[0] != want {
		t.Errorf("unexpected datasets: %+v", resp.Datasets)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		status healthuc.Status
		code   int
	}{
		{healthuc.Healthy, http.StatusOK},
		{healthuc.Degraded, http.StatusServiceUnavailable},
		{healthuc.Unhealthy, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		s := NewServer(&mockRecommender{}, &mockDatasets{}, &mockHealth{report: healthuc.Report{
			Status: tt.status,
			Checks: map[string]healthuc.CheckResult{"datasets": healthuc.CheckOK},
		}}, Limits{}, nil)
		h := NewRouter(s, RouterConfig{APIKeys: []string{"secret"}})

		req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		if rr.Code != tt.code {
			t.Errorf("%s: status = %d, want %d", tt.status, rr.Code, tt.code)
		}
		var resp healthResponse
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatal(err)
		}
		if resp.Status != string(tt.status) || resp.Checks["datasets"] != "ok" {
			t.Errorf("unexpected health body: %+v", resp)
		}
	}
}

func TestRouter_AuthRequired(t *testing.T) {
	h := newTestRouter(&mockRecommender{}, RouterConfig{APIKeys: []string{"secret"}})

	rr := post(t, h, "/chat", `{"city":"kl","category":"hotels","query":"x"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"city":"kl","category":"hotels","query":"x"}`))
	req.Header.Set("Authorization", "Bearer secret")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("authorized status = %d", rr.Code)
	}
}

func TestRouter_RequestIDHeader(t *testing.T) {
	h := newTestRouter(&mockRecommender{}, RouterConfig{})

	rr := post(t, h, "/chat", `{"city":"kl","category":"hotels","query":"x"}`)
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	h := newTestRouter(&mockRecommender{}, RouterConfig{CORSOrigins: []string{"http://localhost:5173"}})

	req := httptest.NewRequest(http.MethodOptions, "/chat", http.NoBody)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestRouter_RateLimit(t *testing.T) {
	h := newTestRouter(&mockRecommender{}, RouterConfig{RateLimitPerMinute: 2})

	var last int
	for range 3 {
		rr := post(t, h, "/chat", `{"city":"kl","category":"hotels","query":"x"}`)
		last = rr.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", last)
	}
}

func TestRouter_NotFound(t *testing.T) {
	h := newTestRouter(&mockRecommender{}, RouterConfig{})

	req := httptest.NewRequest(http.MethodGet, "/collections", http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
	if msg := decodeError(t, rr); msg != "not found" {
		t.Errorf("error = %q", msg)
	}
}

func TestJSONRecoverer(t *testing.T) {
	h := JSONRecoverer(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	if msg := decodeError(t, rr); msg != "internal error" {
		t.Errorf("error = %q", msg)
	}
}
