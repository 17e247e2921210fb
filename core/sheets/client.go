package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"
)

const (
	defaultBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"
	tokenURL       = "https://oauth2.googleapis.com/token"

	clientTimeout = 30 * time.Second
)

// Credentials holds the OAuth client identity plus the long-lived refresh
// token granted during setup. Access tokens are minted on demand.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// Client talks to the spreadsheet values API over HTTP. It implements
// RangeService.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API endpoint, used by tests.
func WithBaseURL(base string) ClientOption {
	return func(c *Client) { c.baseURL = base }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient builds a Client whose requests carry tokens refreshed from
// creds. The refresh exchange happens lazily inside the oauth2 transport.
func NewClient(ctx context.Context, creds Credentials, opts ...ClientOption) *Client {
	conf := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
		Scopes:       []string{"https://www.googleapis.com/auth/spreadsheets"},
	}
	source := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken})

	c := &Client{httpClient: oauth2.NewClient(ctx, source)}
	c.httpClient.Timeout = clientTimeout
	c.baseURL = defaultBaseURL
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type valueRange struct {
	Values [][]any `json:"values"`
}

// GetRange implements RangeService.
func (c *Client) GetRange(ctx context.Context, workbookID, a1Range string) ([][]string, error) {
	endpoint := fmt.Sprintf("%s/%s/values/%s?valueRenderOption=UNFORMATTED_VALUE",
		c.baseURL, url.PathEscape(workbookID), url.PathEscape(a1Range))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var body valueRange
	if err := c.do(req, &body); err != nil {
		return nil, err
	}
	return stringifyRows(body.Values), nil
}

// AppendRow implements RangeService.
func (c *Client) AppendRow(ctx context.Context, workbookID, a1Range string, values []string) error {
	endpoint := fmt.Sprintf("%s/%s/values/%s:append?valueInputOption=RAW&insertDataOption=INSERT_ROWS",
		c.baseURL, url.PathEscape(workbookID), url.PathEscape(a1Range))

	payload, err := json.Marshal(map[string]any{"values": [][]string{values}})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, nil)
}

// UpdateRange implements RangeService.
func (c *Client) UpdateRange(ctx context.Context, workbookID, a1Range string, values [][]string) error {
	endpoint := fmt.Sprintf("%s/%s/values/%s?valueInputOption=RAW",
		c.baseURL, url.PathEscape(workbookID), url.PathEscape(a1Range))

	payload, err := json.Marshal(map[string]any{"values": values})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, nil)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error.Message != "" {
			return fmt.Errorf("sheets API %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("sheets API %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// stringifyRows flattens the loosely-typed API payload into strings.
// The backend returns numbers unquoted under UNFORMATTED_VALUE.
func stringifyRows(raw [][]any) [][]string {
	rows := make([][]string, 0, len(raw))
	for _, r := range raw {
		row := make([]string, 0, len(r))
		for _, cell := range r {
			row = append(row, stringifyCell(cell))
		}
		rows = append(rows, row)
	}
	return rows
}

func stringifyCell(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
