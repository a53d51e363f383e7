package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/stayscout/stayscout/internal/config"
)

// Tool names exposed by the signal server. The client treats them uniformly;
// argument shapes are the caller's concern.
const (
	ToolCrimeSummary = "crime_summary"
	ToolCommuteProxy = "commute_proxy"
	ToolNearbyPOIs   = "nearby_pois"
	ToolRentGrid     = "rent_grid"
	ToolRentPoints   = "rent_points"
)

// ToolError is a failed signal fetch: non-success status, ok:false envelope,
// or a malformed envelope.
type ToolError struct {
	Tool    string
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("signal tool %s: %s", e.Tool, e.Message)
}

// Caller is the uniform call interface the pipeline depends on.
type Caller interface {
	Call(ctx context.Context, tool string, args map[string]interface{}) (json.RawMessage, error)
}

type Client struct {
	baseURL string
	hc      *http.Client
}

func NewClient(cfg config.SignalsConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		hc: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

// Call posts {tool, args} to the signal server and returns the data document.
// No retries; retry policy, if any, belongs to the caller.
func (c *Client) Call(ctx context.Context, tool string, args map[string]interface{}) (json.RawMessage, error) {
	payload, err := json.Marshal(map[string]interface{}{"tool": tool, "args": args})
	if err != nil {
		return nil, &ToolError{Tool: tool, Message: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/mcp", bytes.NewReader(payload))
	if err != nil {
		return nil, &ToolError{Tool: tool, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.hc.Do(req)
	if err != nil {
		return nil, &ToolError{Tool: tool, Message: err.Error()}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &ToolError{Tool: tool, Message: err.Error()}
	}
	if res.StatusCode >= 300 {
		return nil, &ToolError{Tool: tool, Message: fmt.Sprintf("status %d", res.StatusCode)}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &ToolError{Tool: tool, Message: fmt.Sprintf("malformed envelope: %v", err)}
	}
	if !env.OK {
		msg := env.Error
		if msg == "" {
			msg = "provider reported failure"
		}
		return nil, &ToolError{Tool: tool, Message: msg}
	}
	if env.Data == nil {
		return nil, &ToolError{Tool: tool, Message: "envelope missing data"}
	}

	return env.Data, nil
}
