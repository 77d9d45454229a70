package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"

	"github.com/jengzang/records-activity-go/internal/analysis/analysistest"
	"github.com/jengzang/records-activity-go/internal/apperr"
	"github.com/jengzang/records-activity-go/internal/config"
	"github.com/jengzang/records-activity-go/internal/locations"
	"github.com/jengzang/records-activity-go/internal/middleware"
	"github.com/jengzang/records-activity-go/internal/models"
	"github.com/jengzang/records-activity-go/internal/service"
	"github.com/jengzang/records-activity-go/internal/spatial"
)

const secret = "test-secret"

type stubSource struct {
	fixes []models.LocationFix
	err   error
}

func (s *stubSource) ListDevices(context.Context, string) ([]string, error) {
	return []string{"phone"}, nil
}

func (s *stubSource) Locations(_ context.Context, _, _ string, from, to time.Time) ([]models.LocationFix, error) {
	if s.err != nil {
		return nil, apperr.Upstream("locations", s.err)
	}
	var out []models.LocationFix
	for _, f := range s.fixes {
		if !f.Timestamp.Before(from) && f.Timestamp.Before(to) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *stubSource) Last(context.Context, string, string) (*models.LocationFix, error) {
	if len(s.fixes) == 0 {
		return nil, nil
	}
	return &s.fixes[len(s.fixes)-1], nil
}

type testServer struct {
	router *gin.Engine
	source *stubSource
}

func newServer(t *testing.T, jwtSecret string, perSecond float64) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	home := spatial.Point{Lat: 51.5, Lon: -0.1}
	lat, lon := spatial.DestinationPoint(home.Lat, home.Lon, 90, 2000)
	office := spatial.Point{Lat: lat, Lon: lon}
	reg := locations.NewRegistry([]models.KnownLocation{
		analysistest.Location("home", models.CategoryHome, home.Lat, home.Lon, 100),
		analysistest.Location("office", models.CategoryWork, office.Lat, office.Lon, 100),
	})

	src := &stubSource{fixes: analysistest.Workday(analysistest.At(2024, 6, 4, 0, 0), home, office)}
	agent := service.NewLocationAgent(src, nil, reg, service.AgentConfig{
		User:     "me",
		Location: analysistest.London,
		Now:      func() time.Time { return analysistest.At(2024, 6, 5, 12, 0) },
	})

	cfg := &config.Config{}
	cfg.Server.JWTSecret = jwtSecret
	cfg.Analysis.CommuteDays = 20

	r := SetupRouter(cfg, Services{
		Agent:   agent,
		Trips:   service.NewTripService(agent, nil, t.TempDir()),
		Limiter: middleware.NewRateLimiter(perSecond, 2),
	})
	return testServer{router: r, source: src}
}

func (s testServer) do(method, target, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Field   string          `json:"field"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return env
}

func TestHealth(t *testing.T) {
	s := newServer(t, secret, 0)
	w := s.do(http.MethodGet, "/health", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("response has no request id")
	}
}

func TestAuth(t *testing.T) {
	s := newServer(t, secret, 0)

	if w := s.do(http.MethodGet, "/api/v1/location/current", "", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("without token: status = %d, want 401", w.Code)
	}
	if w := s.do(http.MethodGet, "/api/v1/location/current", "", "not-a-jwt"); w.Code != http.StatusUnauthorized {
		t.Errorf("malformed token: status = %d, want 401", w.Code)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "me",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	if w := s.do(http.MethodGet, "/api/v1/location/current", "", token); w.Code != http.StatusOK {
		t.Errorf("valid token: status = %d, want 200: %s", w.Code, w.Body.String())
	}

	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}).SignedString([]byte(secret))
	if w := s.do(http.MethodGet, "/api/v1/location/current", "", expired); w.Code != http.StatusUnauthorized {
		t.Errorf("expired token: status = %d, want 401", w.Code)
	}
}

func TestWhereWasI(t *testing.T) {
	s := newServer(t, "", 0)

	w := s.do(http.MethodGet, "/api/v1/location/where?date=2024-06-04&time=12:00", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var res models.Result[service.Whereabouts]
	if err := json.Unmarshal(decode(t, w).Data, &res); err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.Data.Location == nil || res.Data.Location.ID != "office" {
		t.Errorf("result = %+v", res)
	}
}

func TestValidationErrorsAreBadRequests(t *testing.T) {
	s := newServer(t, "", 0)

	tests := []struct {
		target string
		field  string
	}{
		{"/api/v1/location/where", "date"},
		{"/api/v1/location/where?date=yesterday", "date"},
		{"/api/v1/location/time-at?location=atlantis&start_date=2024-06-01&end_date=2024-06-02", "location"},
		{"/api/v1/location/commute?days=1000", "days"},
		{"/api/v1/activities/day?date=2024-06-04&format=pdf", "format"},
	}
	for _, tc := range tests {
		t.Run(tc.target, func(t *testing.T) {
			w := s.do(http.MethodGet, tc.target, "", "")
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400: %s", w.Code, w.Body.String())
			}
			if env := decode(t, w); env.Field != tc.field {
				t.Errorf("field = %q, want %q", env.Field, tc.field)
			}
		})
	}
}

func TestUpstreamFailures(t *testing.T) {
	s := newServer(t, "", 0)
	s.source.err = errors.New("recorder down")

	// agent queries degrade to an unsuccessful result
	w := s.do(http.MethodGet, "/api/v1/location/where?date=2024-06-04", "", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"success":false`) {
		t.Errorf("where: %d %s", w.Code, w.Body.String())
	}

	// a single day cannot be reported without fixes
	w = s.do(http.MethodGet, "/api/v1/activities/day?date=2024-06-04", "", "")
	if w.Code != http.StatusBadGateway {
		t.Errorf("day: status = %d, want 502", w.Code)
	}
}

func TestActivitiesDay(t *testing.T) {
	s := newServer(t, "", 0)

	w := s.do(http.MethodGet, "/api/v1/activities/day?date=2024-06-04", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var ds models.DailySummary
	if err := json.Unmarshal(decode(t, w).Data, &ds); err != nil {
		t.Fatal(err)
	}
	if ds.TotalActivities != 5 {
		t.Errorf("activities = %d, want 5", ds.TotalActivities)
	}

	w = s.do(http.MethodGet, "/api/v1/activities/day?date=2024-06-04&format=markdown", "", "")
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "## 2024-06-04 (Tuesday)") {
		t.Errorf("markdown = %s", w.Body.String())
	}
}

func TestAnalyzeTrip(t *testing.T) {
	s := newServer(t, "", 0)

	w := s.do(http.MethodPost, "/api/v1/trips/analyze",
		`{"trip_id":"work","name":"Work week","start_date":"2024-06-03","end_date":"2024-06-05"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var ta models.TripAnalysis
	if err := json.Unmarshal(decode(t, w).Data, &ta); err != nil {
		t.Fatal(err)
	}
	if ta.Period.Days != 3 || ta.Statistics.TotalActivities != 5 {
		t.Errorf("trip = %+v", ta.Period)
	}

	w = s.do(http.MethodPost, "/api/v1/trips/analyze", `{"name":"no dates"}`, "")
	if w.Code != http.StatusBadRequest || decode(t, w).Field != "start_date" {
		t.Errorf("missing dates: %d %s", w.Code, w.Body.String())
	}

	w = s.do(http.MethodPost, "/api/v1/trips/analyze", `{`, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d", w.Code)
	}
}

func TestRateLimit(t *testing.T) {
	s := newServer(t, "", 0.001)

	codes := make([]int, 0, 3)
	for range 3 {
		codes = append(codes, s.do(http.MethodGet, "/api/v1/location/current", "", "").Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want burst of 2 then 429", codes)
	}
	if w := s.do(http.MethodGet, "/health", "", ""); w.Code != http.StatusOK {
		t.Error("health must not be rate limited")
	}
}
