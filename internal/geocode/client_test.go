package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestResolve(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("format"); got != "json" {
			t.Errorf("format = %q, want json", got)
		}
		if got := r.URL.Query().Get("q"); got != "12 Harbour Rd" {
			t.Errorf("q = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"lat":"-33.9249","lon":"18.4241"},{"lat":"0","lon":"0"}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	coords, err := client.Resolve(context.Background(), "12 Harbour Rd")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	// The first candidate wins.
	if coords.Lat != -33.9249 || coords.Lng != 18.4241 {
		t.Errorf("coords = %+v", coords)
	}
}

func TestResolve_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	_, err := client.Resolve(context.Background(), "nowhere at all")
	if !errors.Is(err, ErrNoMatch) {
		t.Errorf("err = %v, want ErrNoMatch", err)
	}
}

func TestResolve_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	_, err := client.Resolve(context.Background(), "12 Harbour Rd")
	if err == nil {
		t.Fatal("expected an error on 503")
	}
	if errors.Is(err, ErrNoMatch) {
		t.Error("upstream failure must not read as no-match")
	}
}

func TestResolve_BadCoordinates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"lat":"not-a-number","lon":"18.4"}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	if _, err := client.Resolve(context.Background(), "12 Harbour Rd"); err == nil {
		t.Fatal("expected an error for malformed latitude")
	}
}
