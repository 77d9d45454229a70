package recorder

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/jengzang/records-activity-go/internal/apperr"
)

// fakeRecorder serves /api/0/locations with the recorder's exclusive "to" date
type fakeRecorder struct {
	records []map[string]any
	calls   atomic.Int32
	fail    atomic.Bool
}

func (f *fakeRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)
	if f.fail.Load() {
		http.Error(w, "boom", http.StatusBadGateway)
		return
	}

	q := r.URL.Query()
	switch r.URL.Path {
	case "/api/0/list":
		if q.Get("user") != "alice" {
			http.Error(w, "no such user", http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"results": []string{"phone", "watch"}})
	case "/api/0/last":
		json.NewEncoder(w).Encode([]map[string]any{f.records[len(f.records)-1]})
	case "/api/0/locations":
		from, err1 := time.Parse("2006-01-02", q.Get("from"))
		to, err2 := time.Parse("2006-01-02", q.Get("to"))
		if err1 != nil || err2 != nil {
			http.Error(w, "bad dates", http.StatusBadRequest)
			return
		}
		var out []map[string]any
		for _, rec := range f.records {
			tst, ok := rec["tst"].(int64)
			if !ok {
				out = append(out, rec)
				continue
			}
			ts := time.Unix(tst, 0).UTC()
			if !ts.Before(from) && ts.Before(to) {
				out = append(out, rec)
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"count": len(out), "data": out})
	default:
		http.NotFound(w, r)
	}
}

func newFake() *fakeRecorder {
	day := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	return &fakeRecorder{records: []map[string]any{
		{"_type": "location", "lat": 51.5, "lon": -0.1, "tst": day.Add(7 * time.Hour).Unix(), "vel": 1.2, "alt": 30.0, "acc": 5.0},
		{"_type": "location", "lat": 51.51, "lon": -0.11, "tst": day.Add(6 * time.Hour).Unix(), "vel": 0.0},
		{"_type": "location", "lon": -0.1, "tst": day.Add(8 * time.Hour).Unix()},
		{"_type": "location", "lat": 51.52, "lon": -0.12, "tst": day.AddDate(0, 0, 1).Add(9 * time.Hour).Unix(), "vel": 3.0},
	}}
}

func newClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL, Timeout: 5 * time.Second, BreakerMaxFailures: 2, BreakerTimeout: time.Hour})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestLocationsExclusiveEndDate(t *testing.T) {
	c := newClient(t, newFake())
	ctx := context.Background()
	day := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)

	same, err := c.Locations(ctx, "alice", "phone", day, day)
	if err != nil {
		t.Fatalf("Locations(D, D) error = %v", err)
	}
	if len(same) != 0 {
		t.Errorf("Locations(D, D) returned %d fixes, want 0", len(same))
	}

	full, err := c.Locations(ctx, "alice", "phone", day, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("Locations(D, D+1) error = %v", err)
	}
	// the record without lat is skipped, the next day's record is excluded
	if len(full) != 2 {
		t.Fatalf("Locations(D, D+1) returned %d fixes, want 2", len(full))
	}
	if !full[0].Timestamp.Before(full[1].Timestamp) {
		t.Error("fixes should be sorted by timestamp")
	}
	if full[1].AltitudeM == nil || *full[1].AltitudeM != 30 || full[1].VelocityMPS != 1.2 {
		t.Errorf("optional fields not decoded: %+v", full[1])
	}
	if full[0].AltitudeM != nil {
		t.Error("missing altitude should stay nil")
	}
}

func TestListDevicesAndLast(t *testing.T) {
	c := newClient(t, newFake())
	ctx := context.Background()

	devices, err := c.ListDevices(ctx, "alice")
	if err != nil {
		t.Fatalf("ListDevices() error = %v", err)
	}
	if len(devices) != 2 || devices[0] != "phone" {
		t.Errorf("ListDevices() = %v", devices)
	}

	last, err := c.Last(ctx, "alice", "phone")
	if err != nil || last == nil {
		t.Fatalf("Last() = %v, %v", last, err)
	}
	if last.Lat != 51.52 {
		t.Errorf("Last().Lat = %v, want 51.52", last.Lat)
	}
}

func TestUpstreamErrors(t *testing.T) {
	fake := newFake()
	c := newClient(t, fake)
	ctx := context.Background()

	_, err := c.ListDevices(ctx, "mallory")
	if !apperr.IsUpstream(err) {
		t.Fatalf("404 should be an upstream error, got %v", err)
	}

	fake.fail.Store(true)
	for i := 0; i < 2; i++ {
		if _, err := c.ListDevices(ctx, "alice"); !apperr.IsUpstream(err) {
			t.Fatalf("call %d: want upstream error, got %v", i, err)
		}
	}

	// breaker is open now; the server is not contacted
	before := fake.calls.Load()
	if _, err := c.ListDevices(ctx, "alice"); !apperr.IsUpstream(err) {
		t.Fatalf("open breaker should surface as upstream error, got %v", err)
	}
	if fake.calls.Load() != before {
		t.Error("open breaker should short-circuit the request")
	}
}

func TestBasicAuth(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "u" || pass != "p" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"results":["phone"]}`)
	})
	srv := httptest.NewServer(h)
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL + "/", Username: "u", Password: "p"})
	if err != nil {
		t.Fatal(err)
	}
	if devices, err := c.ListDevices(context.Background(), "alice"); err != nil || len(devices) != 1 {
		t.Errorf("ListDevices() = %v, %v", devices, err)
	}
}

func TestNewRejectsBadURL(t *testing.T) {
	for _, u := range []string{"", "ftp://host", "not a url", "http://"} {
		if _, err := New(Config{BaseURL: u}); !apperr.IsConfiguration(err) {
			t.Errorf("New(%q) error = %v, want configuration error", u, err)
		}
	}
}
