package intel

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wardenhq/warden/schema"
)

func TestAbuseIPDBCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Key") != "test-key" {
			t.Errorf("missing Key header")
		}
		if got := r.URL.Query().Get("ipAddress"); got != "8.8.8.8" {
			t.Errorf("unexpected ipAddress: %s", got)
		}
		if got := r.URL.Query().Get("maxAgeInDays"); got != "365" {
			t.Errorf("unexpected maxAgeInDays: %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{
			"ipAddress":"8.8.8.8","abuseConfidenceScore":2,"countryCode":"US",
			"usageType":"Data Center","isp":"Google LLC","domain":"google.com",
			"totalReports":12,"numDistinctUsers":5,"lastReportedAt":"2026-08-01T00:00:00Z",
			"isPublic":true,"isWhitelisted":true}}`))
	}))
	defer server.Close()

	client := NewAbuseIPDBClient(AbuseIPDBConfig{BaseURL: server.URL, APIKey: "test-key"})
	rep, err := client.Check(context.Background(), "8.8.8.8")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}

	if rep.IP != "8.8.8.8" || rep.AbuseConfidence != 2 || rep.Country != "US" {
		t.Fatalf("unexpected reputation: %+v", rep)
	}
	if rep.Source != "AbuseIPDB" {
		t.Fatalf("unexpected source: %s", rep.Source)
	}
	if !rep.Whitelisted || rep.TotalReports != 12 {
		t.Fatalf("unexpected fields: %+v", rep)
	}
}

func TestAbuseIPDBRejections(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"rate limited", http.StatusTooManyRequests},
		{"bad key", http.StatusUnauthorized},
		{"client error", http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := NewAbuseIPDBClient(AbuseIPDBConfig{BaseURL: server.URL, APIKey: "k"})
			_, err := client.Check(context.Background(), "1.2.3.4")

			var remote *schema.RemoteError
			if !errors.As(err, &remote) {
				t.Fatalf("expected RemoteError, got %v", err)
			}
			if remote.Code != tt.status {
				t.Fatalf("expected code %d, got %d", tt.status, remote.Code)
			}
		})
	}
}

func TestAbuseIPDBMissingKey(t *testing.T) {
	client := NewAbuseIPDBClient(AbuseIPDBConfig{})
	_, err := client.Check(context.Background(), "1.2.3.4")

	var remote *schema.RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("expected RemoteError for missing key, got %v", err)
	}
}

func TestAbuseIPDBInvalidIP(t *testing.T) {
	client := NewAbuseIPDBClient(AbuseIPDBConfig{APIKey: "k"})
	_, err := client.Check(context.Background(), "not-an-ip")

	var remote *schema.RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("expected RemoteError for bad IP, got %v", err)
	}
}

func TestAbuseIPDBTimeoutIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewAbuseIPDBClient(AbuseIPDBConfig{BaseURL: server.URL, APIKey: "k", Timeout: 20 * time.Millisecond})
	_, err := client.Check(context.Background(), "1.2.3.4")
	if err == nil {
		t.Fatalf("expected timeout error")
	}

	var remote *schema.RemoteError
	if errors.As(err, &remote) {
		t.Fatalf("timeout must not be a RemoteError, got %v", err)
	}
}
