// Package intel contains clients for the external threat-intelligence
// APIs. Each client normalizes its provider's bespoke response fields into
// a tool-agnostic shape and reports explicit upstream rejections as
// *schema.RemoteError so the executor can classify failures uniformly.
package intel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/netip"
	"net/url"
	"time"

	"github.com/wardenhq/warden/schema"
)

const abuseIPDBDefaultURL = "https://api.abuseipdb.com/api/v2"

// maxAgeDays bounds how far back AbuseIPDB reports are considered.
const maxAgeDays = 365

// AbuseIPDBClient checks IP reputation against the AbuseIPDB API.
type AbuseIPDBClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// AbuseIPDBConfig configures the client.
type AbuseIPDBConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NewAbuseIPDBClient creates an AbuseIPDB client.
func NewAbuseIPDBClient(cfg AbuseIPDBConfig) *AbuseIPDBClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = abuseIPDBDefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &AbuseIPDBClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
	}
}

// IPReputation is the normalized AbuseIPDB verdict for one address.
type IPReputation struct {
	IP              string `json:"ip"`
	AbuseConfidence int    `json:"abuse_confidence"`
	Country         string `json:"country"`
	UsageType       string `json:"usage_type"`
	ISP             string `json:"isp"`
	Domain          string `json:"domain"`
	TotalReports    int    `json:"total_reports"`
	DistinctUsers   int    `json:"num_distinct_users"`
	LastReported    string `json:"last_reported"`
	Public          bool   `json:"is_public"`
	Whitelisted     bool   `json:"is_whitelisted"`
	Source          string `json:"source"`
}

type abuseIPDBResponse struct {
	Data struct {
		IPAddress            string `json:"ipAddress"`
		AbuseConfidenceScore int    `json:"abuseConfidenceScore"`
		CountryCode          string `json:"countryCode"`
		UsageType            string `json:"usageType"`
		ISP                  string `json:"isp"`
		Domain               string `json:"domain"`
		TotalReports         int    `json:"totalReports"`
		NumDistinctUsers     int    `json:"numDistinctUsers"`
		LastReportedAt       string `json:"lastReportedAt"`
		IsPublic             bool   `json:"isPublic"`
		IsWhitelisted        bool   `json:"isWhitelisted"`
	} `json:"data"`
}

// Check queries abuse data for one IP address.
func (c *AbuseIPDBClient) Check(ctx context.Context, ip string) (*IPReputation, error) {
	if c.apiKey == "" {
		return nil, schema.NewRemoteError("abuseipdb", 0, "API key not configured")
	}
	if _, err := netip.ParseAddr(ip); err != nil {
		return nil, schema.NewRemoteError("abuseipdb", 0, fmt.Sprintf("invalid IP address %q", ip))
	}

	endpoint := c.baseURL + "/check"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("abuseipdb: build request: %w", err)
	}

	q := url.Values{}
	q.Set("ipAddress", ip)
	q.Set("maxAgeInDays", fmt.Sprintf("%d", maxAgeDays))
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("abuseipdb: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, schema.NewRemoteError("abuseipdb", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var payload abuseIPDBResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, schema.NewRemoteError("abuseipdb", resp.StatusCode, "unexpected response body")
	}
	if payload.Data.IPAddress == "" {
		return nil, schema.NewRemoteError("abuseipdb", resp.StatusCode, "response missing data")
	}

	d := payload.Data
	return &IPReputation{
		IP:              d.IPAddress,
		AbuseConfidence: d.AbuseConfidenceScore,
		Country:         d.CountryCode,
		UsageType:       d.UsageType,
		ISP:             d.ISP,
		Domain:          d.Domain,
		TotalReports:    d.TotalReports,
		DistinctUsers:   d.NumDistinctUsers,
		LastReported:    d.LastReportedAt,
		Public:          d.IsPublic,
		Whitelisted:     d.IsWhitelisted,
		Source:          "AbuseIPDB",
	}, nil
}
