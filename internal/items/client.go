package items

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/nerrad567/gray-logic-alexa/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-alexa/internal/infrastructure/logging"
)

// maxResponseBytes caps item API response bodies. Item lists for large
// installations run to a few megabytes; anything beyond this is a fault.
const maxResponseBytes = 8 << 20

// Client is the automation-server item API client.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	cfg    config.ServerConfig
	http   *http.Client
	logger *logging.Logger
}

// New creates an item API client from server configuration.
//
// Parameters:
//   - cfg: Server connection settings (base URL, auth mode, timeout)
//   - logger: Structured logger
//
// Returns:
//   - *Client: Configured client ready for use
func New(cfg config.ServerConfig, logger *logging.Logger) *Client {
	transport := http.DefaultTransport
	if cfg.InsecureSkipVerify {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // explicit dev opt-in
		transport = t
	}

	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout:   cfg.RequestTimeout(),
			Transport: transport,
		},
		logger: logger.With("component", "items"),
	}
}

// ListItems fetches all items carrying the skill's metadata namespace, with
// recursive group member expansion.
//
// Parameters:
//   - ctx: Context for cancellation and deadlines
//   - token: Directive scope token, forwarded per the configured auth mode
//
// Returns:
//   - []Item: Items with metadata, state descriptions, and members
//   - error: Classified via the package sentinel errors
func (c *Client) ListItems(ctx context.Context, token string) ([]Item, error) {
	q := url.Values{}
	q.Set("metadata", c.cfg.MetadataNamespace)
	q.Set("recursive", "true")
	q.Set("fields", "name,type,groupType,label,state,stateDescription,commandDescription,metadata,members,groupNames")

	body, err := c.get(ctx, token, "/items?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var list []Item
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("items: decoding item list: %w", err)
	}

	return list, nil
}

// GetItem fetches a single item including its current state.
func (c *Client) GetItem(ctx context.Context, token, name string) (*Item, error) {
	body, err := c.get(ctx, token, "/items/"+url.PathEscape(name))
	if err != nil {
		return nil, err
	}

	var item Item
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, fmt.Errorf("items: decoding item %q: %w", name, err)
	}

	return &item, nil
}

// GetItemState fetches an item's current state in native string form.
func (c *Client) GetItemState(ctx context.Context, token, name string) (string, error) {
	body, err := c.get(ctx, token, "/items/"+url.PathEscape(name)+"/state")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

// SendCommand posts a plain-text command to an item.
//
// The command string is the item's native representation ("ON", "42",
// "2.5", "ARMED_AWAY"); conversion from Alexa values happens upstream.
func (c *Client) SendCommand(ctx context.Context, token, name, command string) error {
	path := "/items/" + url.PathEscape(name)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, strings.NewReader(command))
	if err != nil {
		return fmt.Errorf("items: building command request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")
	c.authorize(req, token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrServerUnreachable, err)
	}
	defer resp.Body.Close()

	// 200 and 202 both indicate the command was accepted.
	if resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Method: http.MethodPost, Path: path}
	}

	c.logger.Debug("command sent", "item", name, "command", command)
	return nil
}

// GetRegionalSettings fetches the server's localisation settings.
//
// Failures degrade gracefully: callers fall back to SI defaults, so a
// missing config service is not a hard error for discovery.
func (c *Client) GetRegionalSettings(ctx context.Context, token string) (RegionalSettings, error) {
	body, err := c.get(ctx, token, "/services/regional/config")
	if err != nil {
		return RegionalSettings{}, err
	}

	var settings RegionalSettings
	if err := json.Unmarshal(body, &settings); err != nil {
		return RegionalSettings{}, fmt.Errorf("items: decoding regional settings: %w", err)
	}

	return settings, nil
}

// get performs an authorised GET and returns the response body.
func (c *Client) get(ctx context.Context, token, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("items: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/plain")
	c.authorize(req, token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrServerUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Method: http.MethodGet, Path: path}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", ErrServerUnreachable, err)
	}

	return body, nil
}

// authorize attaches credentials to a request.
//
// Static basic credentials win when configured; otherwise the directive
// scope token is forwarded per the configured auth mode.
func (c *Client) authorize(req *http.Request, token string) {
	if c.cfg.Username != "" {
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
		return
	}
	if token == "" {
		return
	}

	switch c.cfg.AuthMode {
	case "basic":
		req.SetBasicAuth(token, "")
	default:
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
