package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rise-and-shine/internal/host"
	"rise-and-shine/internal/weather"
)

type fakeCollector struct {
	data       *weather.Snapshot
	refreshErr error
	refreshes  int
}

func (f *fakeCollector) GetLatestData() (weather.Snapshot, error) {
	if f.data == nil {
		return weather.Snapshot{}, weather.ErrNoData
	}
	return *f.data, nil
}

func (f *fakeCollector) Refresh(context.Context) (weather.Snapshot, error) {
	f.refreshes++
	if f.refreshErr != nil {
		return weather.Snapshot{}, f.refreshErr
	}
	snap := weather.Snapshot{Provider: "fake", ConditionLabel: "Snow", ConditionID: 601}
	f.data = &snap
	return snap, nil
}

func (f *fakeCollector) IsCollecting() bool     { return true }
func (f *fakeCollector) LastRefresh() time.Time { return time.Time{} }
func (f *fakeCollector) LastError() error       { return f.refreshErr }

type fakeHost struct {
	state host.State
}

func (f fakeHost) State() host.State { return f.state }

func request(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := NewServer(ServerConfig{Collector: &fakeCollector{}, Host: fakeHost{}})

	rec := request(t, s, http.MethodGet, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "healthy" || body["has_weather"] != false || body["ready"] != false {
		t.Errorf("unexpected health body %v", body)
	}
}

func TestWeatherUnavailableUntilData(t *testing.T) {
	collector := &fakeCollector{}
	s := NewServer(ServerConfig{Collector: collector, Host: fakeHost{}})

	if rec := request(t, s, http.MethodGet, "/api/v1/weather"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status without data = %d, want 503", rec.Code)
	}

	collector.data = &weather.Snapshot{
		Provider:       "fake",
		ConditionID:    800,
		ConditionLabel: "Clear",
		Units:          "metric",
		Sunrise:        time.Date(2024, 6, 21, 4, 0, 0, 0, time.UTC),
		Sunset:         time.Date(2024, 6, 21, 20, 0, 0, 0, time.UTC),
	}
	s.now = func() time.Time { return time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC) }

	rec := request(t, s, http.MethodGet, "/api/v1/weather")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Weather    weather.Snapshot `json:"weather"`
		Icon       weather.Icon     `json:"icon"`
		IsDaylight bool             `json:"is_daylight"`
		Unit       string           `json:"unit"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Icon.Name != "clear" || !body.IsDaylight || body.Unit != "°C" {
		t.Errorf("unexpected weather body %+v", body)
	}
}

func TestState(t *testing.T) {
	s := NewServer(ServerConfig{Collector: &fakeCollector{}, Host: fakeHost{}})
	if rec := request(t, s, http.MethodGet, "/api/v1/state"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status before ready = %d, want 503", rec.Code)
	}

	s = NewServer(ServerConfig{
		Collector: &fakeCollector{},
		Host:      fakeHost{state: host.State{Ready: true, Generation: 7, Radius: 30, Mode: host.PathHour}},
	})
	rec := request(t, s, http.MethodGet, "/api/v1/state")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var state host.State
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state.Generation != 7 || state.Radius != 30 || state.Mode != host.PathHour {
		t.Errorf("state = %+v", state)
	}
}

func TestRefresh(t *testing.T) {
	collector := &fakeCollector{}
	s := NewServer(ServerConfig{Collector: collector, Host: fakeHost{}})

	if rec := request(t, s, http.MethodGet, "/api/v1/refresh"); rec.Code != http.StatusNotFound && rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET refresh status = %d, want 404/405", rec.Code)
	}

	rec := request(t, s, http.MethodPost, "/api/v1/refresh")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if collector.refreshes != 1 {
		t.Errorf("refreshes = %d, want 1", collector.refreshes)
	}

	collector.refreshErr = errors.New("upstream down")
	if rec := request(t, s, http.MethodPost, "/api/v1/refresh"); rec.Code != http.StatusBadGateway {
		t.Errorf("failed refresh status = %d, want 502", rec.Code)
	}

	collector.refreshErr = context.DeadlineExceeded
	if rec := request(t, s, http.MethodPost, "/api/v1/refresh"); rec.Code != http.StatusGatewayTimeout {
		t.Errorf("timed out refresh status = %d, want 504", rec.Code)
	}
}
