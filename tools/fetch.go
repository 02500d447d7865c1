package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// ToolFetchAdvisory is the registered name of the advisory fetch tool.
const ToolFetchAdvisory = "fetch_advisory"

// AdvisoryTool fetches a vendor advisory or write-up page and converts it
// to markdown so the model can cite it during synthesis.
type AdvisoryTool struct {
	*BaseTool
	client      *http.Client
	maxBodySize int64
}

type advisoryArgs struct {
	URL string `mapstructure:"url"`
}

type advisoryPayload struct {
	URL       string `json:"url"`
	Title     string `json:"title,omitempty"`
	Content   string `json:"content"`
	Truncated bool   `json:"truncated"`
}

// NewAdvisoryTool creates the fetch_advisory tool.
func NewAdvisoryTool(maxBodySize int64) *AdvisoryTool {
	if maxBodySize <= 0 {
		maxBodySize = 1 << 20 // 1MB of page is plenty for an advisory.
	}

	schema := CreateToolSchema(
		"Fetches a security advisory or vendor write-up page and returns its content as markdown.",
		map[string]interface{}{
			"url": StringProperty("The http(s) URL of the advisory page to fetch."),
		},
		[]string{"url"},
	)

	return &AdvisoryTool{
		BaseTool: NewBaseTool(ToolFetchAdvisory, "Fetches a security advisory page as markdown.", schema),
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 2,
			},
		},
		maxBodySize: maxBodySize,
	}
}

// Execute fetches and converts the page.
func (t *AdvisoryTool) Execute(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var args advisoryArgs
	if err := decodeArgs(input, &args); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(args.URL, "http://") && !strings.HasPrefix(args.URL, "https://") {
		return nil, fmt.Errorf("url must start with http:// or https://")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, args.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Warden-Fetch/1.0")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", args.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", args.URL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	truncated := int64(len(body)) > t.maxBodySize
	if truncated {
		body = body[:t.maxBodySize]
	}
	content := string(body)
	if !utf8.ValidString(content) {
		return nil, fmt.Errorf("page content is not valid UTF-8")
	}

	payload := advisoryPayload{URL: args.URL, Content: content, Truncated: truncated}
	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
		if err != nil {
			return nil, fmt.Errorf("parse HTML: %w", err)
		}
		payload.Title = strings.TrimSpace(doc.Find("title").First().Text())

		converter := md.NewConverter("", true, nil)
		markdown, err := converter.ConvertString(content)
		if err != nil {
			return nil, fmt.Errorf("convert to markdown: %w", err)
		}
		payload.Content = markdown
	}

	return json.Marshal(payload)
}
