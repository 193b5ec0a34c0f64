package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alfredjeanlab/pbquery/internal/query"
	"github.com/alfredjeanlab/pbquery/internal/schema"
)

// DefaultBatchSize is the page size ListAll uses when opts carries none.
const DefaultBatchSize = 200

// HTTPClient implements RecordsClient using the PocketBase HTTP/JSON API.
type HTTPClient struct {
	baseURL    string
	token      string
	timeout    time.Duration
	httpClient *http.Client
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithToken sets the auth token sent in the Authorization header.
func WithToken(token string) Option {
	return func(c *HTTPClient) { c.token = token }
}

// WithTimeout bounds every request. It applies to a copy of the client set
// by WithHTTPClient, whichever order the two are given in.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.timeout = d }
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.httpClient = hc }
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://127.0.0.1:8090").
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Records ---

// ListRecords fetches one page of records. A page below 1 is sent as 1.
func (c *HTTPClient) ListRecords(ctx context.Context, collection string, page int, opts query.ListOptions) (*RecordList, error) {
	q := opts.Values()
	if page < 1 {
		page = 1
	}
	q.Set("page", strconv.Itoa(page))

	path := "/api/collections/" + url.PathEscape(collection) + "/records?" + q.Encode()

	var resp RecordList
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListAll fetches every page of records matching opts. When opts has no
// page size, DefaultBatchSize is used. Paging stops on an empty page or the
// server's last page; the server may cap the page size below the one asked
// for, so a short page alone does not end the walk.
func (c *HTTPClient) ListAll(ctx context.Context, collection string, opts query.ListOptions) ([]Record, error) {
	if opts.PerPage <= 0 {
		opts.PerPage = DefaultBatchSize
	}

	var all []Record
	for page := 1; ; page++ {
		list, err := c.ListRecords(ctx, collection, page, opts)
		if err != nil {
			return nil, fmt.Errorf("list %s page %d: %w", collection, page, err)
		}
		all = append(all, list.Items...)
		if len(list.Items) == 0 || page >= list.TotalPages {
			break
		}
	}
	return all, nil
}

// --- Schema ---

// collectionResponse accepts both field layouts the server has used: a
// "fields" list that includes system fields, and the older "schema" list
// where id, created and updated are implicit.
type collectionResponse struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Type   string         `json:"type"`
	Fields []schema.Field `json:"fields"`
	Schema []schema.Field `json:"schema"`
}

func (r collectionResponse) toCollection() schema.Collection {
	c := schema.Collection{ID: r.ID, Name: r.Name, Type: schema.CollectionType(r.Type), Fields: r.Fields}
	if len(c.Fields) == 0 && len(r.Schema) > 0 {
		c.Fields = append([]schema.Field{{Name: "id", Type: "text", System: true}}, r.Schema...)
		if c.Type != schema.TypeView {
			c.Fields = append(c.Fields,
				schema.Field{Name: "created", Type: "autodate", System: true},
				schema.Field{Name: "updated", Type: "autodate", System: true},
			)
		}
	}
	return c
}

// ListCollections fetches every collection model. It requires a superuser
// token.
func (c *HTTPClient) ListCollections(ctx context.Context) ([]schema.Collection, error) {
	var out []schema.Collection
	for page := 1; ; page++ {
		var resp struct {
			TotalPages int                  `json:"totalPages"`
			Items      []collectionResponse `json:"items"`
		}
		path := fmt.Sprintf("/api/collections?page=%d&perPage=%d", page, DefaultBatchSize)
		if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
			return nil, err
		}
		for _, item := range resp.Items {
			out = append(out, item.toCollection())
		}
		if len(resp.Items) == 0 || page >= resp.TotalPages {
			break
		}
	}
	return out, nil
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// --- internal helpers ---

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
	Data       map[string]any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for DELETE/204 responses).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Message string         `json:"message"`
			Data    map[string]any `json:"data"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Message != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Message, Data: errResp.Data}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
