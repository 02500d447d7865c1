package intel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/wardenhq/warden/schema"
)

const threatFoxDefaultURL = "https://threatfox-api.abuse.ch/api/v1/"

// ThreatFoxClient fetches recent IP-based IOCs from ThreatFox.
type ThreatFoxClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// ThreatFoxConfig configures the client.
type ThreatFoxConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NewThreatFoxClient creates a ThreatFox client.
func NewThreatFoxClient(cfg ThreatFoxConfig) *ThreatFoxClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = threatFoxDefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &ThreatFoxClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
	}
}

// IOC is a normalized IP-based indicator of compromise.
type IOC struct {
	IP         string   `json:"ip"`
	ThreatType string   `json:"threat_type"`
	Malware    string   `json:"malware"`
	Confidence int      `json:"confidence"`
	Tags       []string `json:"tags"`
	FirstSeen  string   `json:"first_seen"`
	LastSeen   string   `json:"last_seen"`
	Source     string   `json:"source"`
}

type threatFoxResponse struct {
	QueryStatus string `json:"query_status"`
	Data        []struct {
		IOC             string   `json:"ioc"`
		IOCType         string   `json:"ioc_type"`
		ThreatType      string   `json:"threat_type"`
		Malware         string   `json:"malware"`
		ConfidenceLevel int      `json:"confidence_level"`
		Tags            []string `json:"tags"`
		FirstSeen       string   `json:"first_seen"`
		LastSeen        string   `json:"last_seen"`
	} `json:"data"`
}

// RecentIOCs fetches IP indicators from the past `days` days, keeping at
// most `limit` entries. Only ip and ip:port indicator types are kept;
// entries whose address does not parse are dropped.
func (c *ThreatFoxClient) RecentIOCs(ctx context.Context, days, limit int) ([]IOC, error) {
	if days <= 0 {
		days = 1
	}
	if limit <= 0 {
		limit = 10
	}

	body, err := json.Marshal(map[string]interface{}{
		"query": "get_iocs",
		"days":  days,
	})
	if err != nil {
		return nil, fmt.Errorf("threatfox: encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("threatfox: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Auth-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("threatfox: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, schema.NewRemoteError("threatfox", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var payload threatFoxResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, schema.NewRemoteError("threatfox", resp.StatusCode, "unexpected response body")
	}
	if payload.QueryStatus != "ok" {
		return nil, schema.NewRemoteError("threatfox", resp.StatusCode, "query_status "+payload.QueryStatus)
	}

	iocs := make([]IOC, 0, limit)
	for _, entry := range payload.Data {
		if entry.IOCType != "ip" && entry.IOCType != "ip:port" {
			continue
		}
		ip := entry.IOC
		if i := strings.IndexByte(ip, ':'); i >= 0 {
			ip = ip[:i]
		}
		if _, err := netip.ParseAddr(ip); err != nil {
			continue
		}

		iocs = append(iocs, IOC{
			IP:         ip,
			ThreatType: entry.ThreatType,
			Malware:    entry.Malware,
			Confidence: entry.ConfidenceLevel,
			Tags:       entry.Tags,
			FirstSeen:  entry.FirstSeen,
			LastSeen:   entry.LastSeen,
			Source:     "ThreatFox",
		})
		if len(iocs) >= limit {
			break
		}
	}
	return iocs, nil
}
