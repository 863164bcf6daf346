// Package webhook is a Go client for webhookd: it signs and delivers messages
// and reads them back through the query endpoints.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/eldtechnologies/webhookd/internal/crypto"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body.
const SignatureHeader = "X-Signature"

// Sign returns the signature webhookd expects for body.
func Sign(body []byte, secret string) string {
	return crypto.Sign(body, secret)
}

// Client is a webhookd API client.
type Client struct {
	BaseURL    string
	Secret     string
	HTTPClient *http.Client
}

// NewClient creates a new client. secret is only needed for Send.
func NewClient(baseURL, secret string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return &Client{
		BaseURL:    baseURL,
		Secret:     secret,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("webhookd error %d: %s", e.StatusCode, e.Detail)
}

// doRequest performs an HTTP request and returns the body of a successful response.
func (c *Client) doRequest(ctx context.Context, method, path string, body []byte, header http.Header) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(respBody, &errResp) != nil || errResp.Detail == "" {
			errResp.Detail = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Detail: errResp.Detail}
	}

	return respBody, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	respBody, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(respBody, v)
}

// Message is a webhook delivery.
type Message struct {
	MessageID string  `json:"message_id"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Timestamp string  `json:"ts"`
	Text      *string `json:"text"`
}

// Send encodes msg and delivers it signed with the client's secret.
func (c *Client) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.SendRaw(ctx, body)
}

// SendRaw delivers body exactly as given, signed with the client's secret.
func (c *Client) SendRaw(ctx context.Context, body []byte) error {
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set(SignatureHeader, Sign(body, c.Secret))

	_, err := c.doRequest(ctx, http.MethodPost, "/webhook", body, header)
	return err
}

// MessagesQuery selects a page of messages. Zero values are omitted.
type MessagesQuery struct {
	Limit  int
	Offset int
	From   string
	Since  string
	Q      string
}

func (q MessagesQuery) encode() string {
	v := url.Values{}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.From != "" {
		v.Set("from", q.From)
	}
	if q.Since != "" {
		v.Set("since", q.Since)
	}
	if q.Q != "" {
		v.Set("q", q.Q)
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// MessagesPage is one page of GET /messages.
type MessagesPage struct {
	Items  []Message `json:"items"`
	Total  int       `json:"total"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}

// Messages lists stored messages.
func (c *Client) Messages(ctx context.Context, q MessagesQuery) (*MessagesPage, error) {
	var page MessagesPage
	if err := c.getJSON(ctx, "/messages"+q.encode(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// SenderCount is the number of messages from one sender.
type SenderCount struct {
	From  string `json:"from"`
	Count int64  `json:"count"`
}

// Stats is the response of GET /stats.
type Stats struct {
	TotalMessages     int64         `json:"total_messages"`
	SendersCount      int64         `json:"senders_count"`
	MessagesPerSender []SenderCount `json:"messages_per_sender"`
	FirstMessageTS    *string       `json:"first_message_ts"`
	LastMessageTS     *string       `json:"last_message_ts"`
}

// Stats fetches aggregate statistics.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	if err := c.getJSON(ctx, "/stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Ready returns nil when the server reports ready.
func (c *Client) Ready(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodGet, "/health/ready", nil, nil)
	return err
}
