package ghl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://services.leadconnectorhq.com"
	apiVersion     = "2021-07-28"
)

// ErrAuthExpired means both the access token and the refresh attempt were
// rejected; the organization has to reconnect the integration.
var ErrAuthExpired = errors.New("authentication failed, please reconnect")

// APIError carries a non-2xx upstream response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ghl api error (%d): %s", e.StatusCode, e.Message)
}

// Tokens is the OAuth token set returned by the token endpoint.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	LocationID   string `json:"locationId"`
	CompanyID    string `json:"companyId"`
}

// Client is a thin wrapper over the GoHighLevel REST API. When a call comes
// back 401 it refreshes once, fires OnRefresh so the caller can persist the
// new token set, and retries. A client built from a private integration
// token (PIT) skips the refresh path entirely.
type Client struct {
	BaseURL      string
	HTTPClient   *http.Client
	LocationID   string
	accessToken  string
	refreshToken string
	pit          string

	// OnRefresh persists the rotated tokens. It runs before the retried
	// call's result is returned.
	OnRefresh func(Tokens) error
}

func baseURL() string {
	if v := os.Getenv("GHL_API_BASE"); v != "" {
		return v
	}
	return defaultBaseURL
}

// NewClient builds an OAuth-authenticated client.
func NewClient(accessToken, refreshToken, locationID string, onRefresh func(Tokens) error) *Client {
	return &Client{
		BaseURL:      baseURL(),
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
		LocationID:   locationID,
		accessToken:  accessToken,
		refreshToken: refreshToken,
		OnRefresh:    onRefresh,
	}
}

// NewPITClient builds a client authenticated with a private integration token.
func NewPITClient(pit, locationID string) *Client {
	return &Client{
		BaseURL:    baseURL(),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		LocationID: locationID,
		pit:        pit,
	}
}

func (c *Client) bearer() string {
	if c.pit != "" {
		return c.pit
	}
	return c.accessToken
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	err := c.doOnce(ctx, http.MethodGet, path, query, nil, out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized && c.pit == "" {
		if rerr := c.refresh(ctx); rerr != nil {
			return ErrAuthExpired
		}
		return c.doOnce(ctx, http.MethodGet, path, query, nil, out)
	}
	return err
}

func (c *Client) doOnce(ctx context.Context, method, path string, query url.Values, body io.Reader, out interface{}) error {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.bearer())
	req.Header.Set("Version", apiVersion)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: upstreamMessage(raw)}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func upstreamMessage(raw []byte) string {
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		if envelope.Error != "" {
			return envelope.Error
		}
	}
	return strings.TrimSpace(string(raw))
}

// refresh exchanges the refresh token and swaps in the new token set.
func (c *Client) refresh(ctx context.Context) error {
	if c.refreshToken == "" {
		return errors.New("no refresh token")
	}
	tokens, err := c.tokenRequest(ctx, url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {c.refreshToken},
	})
	if err != nil {
		return err
	}
	c.accessToken = tokens.AccessToken
	if tokens.RefreshToken != "" {
		c.refreshToken = tokens.RefreshToken
	}
	if c.OnRefresh != nil {
		if err := c.OnRefresh(tokens); err != nil {
			return fmt.Errorf("persist refreshed tokens: %w", err)
		}
	}
	return nil
}

// ExchangeCode trades an OAuth authorization code for a token set.
func ExchangeCode(ctx context.Context, code string) (Tokens, error) {
	c := &Client{BaseURL: baseURL(), HTTPClient: &http.Client{Timeout: 30 * time.Second}}
	return c.tokenRequest(ctx, url.Values{
		"grant_type": {"authorization_code"},
		"code":       {code},
	})
}

func (c *Client) tokenRequest(ctx context.Context, form url.Values) (Tokens, error) {
	form.Set("client_id", os.Getenv("GHL_CLIENT_ID"))
	form.Set("client_secret", os.Getenv("GHL_CLIENT_SECRET"))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return Tokens{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return Tokens{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Tokens{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Tokens{}, &APIError{StatusCode: resp.StatusCode, Message: upstreamMessage(raw)}
	}

	var tokens Tokens
	if err := json.Unmarshal(raw, &tokens); err != nil {
		return Tokens{}, err
	}
	return tokens, nil
}

// --- Resource types ---

type Contact struct {
	ID        string   `json:"id"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone"`
	Tags      []string `json:"tags"`
}

type Opportunity struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	ContactID     string  `json:"contactId"`
	ContactName   string  `json:"contactName"`
	ContactEmail  string  `json:"contactEmail"`
	MonetaryValue float64 `json:"monetaryValue"`
	PipelineID    string  `json:"pipelineId"`
	StageID       string  `json:"pipelineStageId"`
	Status        string  `json:"status"`
	AssignedTo    string  `json:"assignedTo"`
}

type Invoice struct {
	ID        string  `json:"_id"`
	Name      string  `json:"name"`
	ContactID string  `json:"contactId"`
	Total     float64 `json:"total"`
	Status    string  `json:"status"`
	IssueDate string  `json:"issueDate"`
	DueDate   string  `json:"dueDate"`
}

// ListContacts pulls one page of contacts for the connected location.
func (c *Client) ListContacts(ctx context.Context, limit, offset int) ([]Contact, error) {
	q := url.Values{
		"locationId": {c.LocationID},
		"limit":      {strconv.Itoa(limit)},
		"skip":       {strconv.Itoa(offset)},
	}
	var resp struct {
		Contacts []Contact `json:"contacts"`
	}
	if err := c.get(ctx, "/contacts/", q, &resp); err != nil {
		return nil, err
	}
	return resp.Contacts, nil
}

// ListOpportunities pulls one page of opportunities.
func (c *Client) ListOpportunities(ctx context.Context, limit, offset int) ([]Opportunity, error) {
	q := url.Values{
		"location_id": {c.LocationID},
		"limit":       {strconv.Itoa(limit)},
		"skip":        {strconv.Itoa(offset)},
	}
	var resp struct {
		Opportunities []Opportunity `json:"opportunities"`
	}
	if err := c.get(ctx, "/opportunities/search", q, &resp); err != nil {
		return nil, err
	}
	return resp.Opportunities, nil
}

// ListInvoices pulls one page of invoices.
func (c *Client) ListInvoices(ctx context.Context, limit, offset int) ([]Invoice, error) {
	q := url.Values{
		"altId":   {c.LocationID},
		"altType": {"location"},
		"limit":   {strconv.Itoa(limit)},
		"offset":  {strconv.Itoa(offset)},
	}
	var resp struct {
		Invoices []Invoice `json:"invoices"`
	}
	if err := c.get(ctx, "/invoices/", q, &resp); err != nil {
		return nil, err
	}
	return resp.Invoices, nil
}
