package probe_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/securedep/watchdog/internal/probe"
	"github.com/securedep/watchdog/internal/wderr"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   string
		err    error
	}{
		{"plain", "http://api.example.com", "http://api.example.com/health", nil},
		{"trailing-slash", "http://api.example.com/", "http://api.example.com/health", nil},
		{"sub-path", "https://example.com/api/v1", "https://example.com/api/v1/health", nil},
		{"upper-host", "http://API.Example.COM", "http://api.example.com/health", nil},
		{"bad-scheme", "ftp://example.com", "", probe.ErrUnsupportedScheme},
		{"no-host", "http://", "", probe.ErrMissingHost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := probe.New(tt.target, 0)
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected error %v but got %v", tt.err, err)
			}
			if err == nil && p.Target().String() != tt.want {
				t.Errorf("expected %q but got %q", tt.want, p.Target())
			}
		})
	}
}

func TestProber_Probe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/healthy/health":
			w.Write([]byte(`{"status":"healthy","checks":{"database":{"responseTime":12.5},"memory":{"percentage":42}}}`))
		case "/degraded/health":
			w.Write([]byte(`{"status":"degraded","checks":{"external_services":{"status":"unhealthy","services":{"github":"unhealthy"}}}}`))
		case "/not-json/health":
			w.Write([]byte(`<html>maintenance</html>`))
		case "/unknown-status/health":
			w.Write([]byte(`{"status":"confused"}`))
		case "/error/health":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	t.Run("healthy", func(t *testing.T) {
		p, err := probe.New(srv.URL+"/healthy", 0)
		if err != nil {
			t.Fatalf("failed to create prober: %s", err)
		}

		snap, err := p.Probe(context.Background())
		if err != nil {
			t.Fatalf("failed to probe: %s", err)
		}

		if snap.Status != probe.StatusHealthy {
			t.Errorf("unexpected status: %s", snap.Status)
		}
		if snap.Checks.Database == nil || snap.Checks.Database.ResponseTime != 12.5 {
			t.Errorf("unexpected database check: %#v", snap.Checks.Database)
		}
		if snap.Checks.Memory == nil || snap.Checks.Memory.Percentage != 42 {
			t.Errorf("unexpected memory check: %#v", snap.Checks.Memory)
		}
		if snap.Checks.ExternalServices != nil {
			t.Errorf("expected no external services check but got %#v", snap.Checks.ExternalServices)
		}
		if snap.ResponseTime <= 0 {
			t.Errorf("expected a measured response time but got %s", snap.ResponseTime)
		}
	})

	t.Run("degraded", func(t *testing.T) {
		p, _ := probe.New(srv.URL+"/degraded", 0)

		snap, err := p.Probe(context.Background())
		if err != nil {
			t.Fatalf("failed to probe: %s", err)
		}

		if snap.Status != probe.StatusDegraded {
			t.Errorf("unexpected status: %s", snap.Status)
		}
		if snap.Checks.ExternalServices == nil || snap.Checks.ExternalServices.Status != "unhealthy" {
			t.Errorf("unexpected external services check: %#v", snap.Checks.ExternalServices)
		}
	})

	malformed := []struct {
		name string
		path string
	}{
		{"not-json", "/not-json"},
		{"unknown-status", "/unknown-status"},
		{"http-error", "/error"},
		{"not-found", "/nowhere"},
	}
	for _, tt := range malformed {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := probe.New(srv.URL+tt.path, 0)

			_, err := p.Probe(context.Background())
			if !errors.Is(err, wderr.ErrMalformedResponse) {
				t.Errorf("expected ErrMalformedResponse but got %v", err)
			}
		})
	}
}

func TestProber_Probe_timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()

	p, err := probe.New(srv.URL, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("failed to create prober: %s", err)
	}

	_, err = p.Probe(context.Background())
	if !errors.Is(err, wderr.ErrTimeout) {
		t.Errorf("expected ErrTimeout but got %v", err)
	}
}

func TestProber_Probe_transport(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p, err := probe.New(url, 0)
	if err != nil {
		t.Fatalf("failed to create prober: %s", err)
	}

	_, err = p.Probe(context.Background())
	if !errors.Is(err, wderr.ErrTransport) {
		t.Errorf("expected ErrTransport but got %v", err)
	}
}
