package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jjenkins/notion-digest/internal/metrics"
	"github.com/jjenkins/notion-digest/internal/model"
)

const (
	defaultNotionBaseURL = "https://api.notion.com"
	notionVersion        = "2025-09-03"
	defaultTimeout       = 60 * time.Second
	maxPageSize          = 100
)

// ErrNotion marks every failure talking to the Notion API
var ErrNotion = errors.New("notion request failed")

// APIError is a non-2xx response from the Notion API
type APIError struct {
	Operation string
	Status    int
	Code      string
	Message   string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("notion %s failed (HTTP %d %s): %s", e.Operation, e.Status, e.Code, msg)
	}
	return fmt.Sprintf("notion %s failed (HTTP %d): %s", e.Operation, e.Status, msg)
}

func (e *APIError) Unwrap() error { return ErrNotion }

// HTTPClient interface for making HTTP requests (allows injection for testing)
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// NotionClientOption configures the NotionClient
type NotionClientOption func(*NotionClient)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient HTTPClient) NotionClientOption {
	return func(c *NotionClient) {
		c.httpClient = httpClient
	}
}

// WithBaseURL sets a custom base URL (useful for testing)
func WithBaseURL(baseURL string) NotionClientOption {
	return func(c *NotionClient) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLimiter paces requests through a shared limiter
func WithLimiter(l *rate.Limiter) NotionClientOption {
	return func(c *NotionClient) {
		c.limiter = l
	}
}

// NotionClient handles communication with the Notion API
type NotionClient struct {
	token      string
	baseURL    string
	httpClient HTTPClient
	limiter    *rate.Limiter
}

// NewNotionClient creates a client authenticating with the given token
func NewNotionClient(token string, opts ...NotionClientOption) *NotionClient {
	c := &NotionClient{
		token:   token,
		baseURL: defaultNotionBaseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// QueryRequest is the body of a data source query
type QueryRequest struct {
	Filter      *Filter `json:"filter,omitempty"`
	Sorts       []Sort  `json:"sorts,omitempty"`
	StartCursor string  `json:"start_cursor,omitempty"`
	PageSize    int     `json:"page_size"`
}

type richTextJSON struct {
	PlainText string `json:"plain_text"`
}

type listEnvelope struct {
	Results    []json.RawMessage `json:"results"`
	HasMore    bool              `json:"has_more"`
	NextCursor *string           `json:"next_cursor"`
}

// RetrieveDatabase fetches a database and its data sources
func (c *NotionClient) RetrieveDatabase(ctx context.Context, databaseID string) (*model.Database, error) {
	body, err := c.doRequest(ctx, "retrieve_database", http.MethodGet, "/v1/databases/"+url.PathEscape(databaseID), nil, nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		ID          string                `json:"id"`
		Title       []richTextJSON        `json:"title"`
		DataSources []model.DataSourceRef `json:"data_sources"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse database response: %w", ErrNotion, err)
	}

	return &model.Database{
		ID:          resp.ID,
		Title:       model.PlainText(toRichText(resp.Title)),
		DataSources: resp.DataSources,
	}, nil
}

// RetrieveDataSource fetches a data source with its property schema
func (c *NotionClient) RetrieveDataSource(ctx context.Context, dataSourceID string) (*model.DataSource, error) {
	body, err := c.doRequest(ctx, "retrieve_data_source", http.MethodGet, "/v1/data_sources/"+url.PathEscape(dataSourceID), nil, nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		ID             string          `json:"id"`
		Title          []richTextJSON  `json:"title"`
		Properties     json.RawMessage `json:"properties"`
		DatabaseParent struct {
			DatabaseID string `json:"database_id"`
		} `json:"database_parent"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse data source response: %w", ErrNotion, err)
	}
	if len(resp.Properties) == 0 || string(resp.Properties) == "null" {
		return nil, fmt.Errorf("%w: notion returned a partial data source %s", ErrNotion, dataSourceID)
	}

	schema, err := decodeSchema(resp.Properties)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse data source properties: %w", ErrNotion, err)
	}

	return &model.DataSource{
		ID:         resp.ID,
		Title:      model.PlainText(toRichText(resp.Title)),
		DatabaseID: resp.DatabaseParent.DatabaseID,
		Properties: schema,
	}, nil
}

// QueryDataSource fetches one page of pages from a data source
func (c *NotionClient) QueryDataSource(ctx context.Context, dataSourceID string, req QueryRequest) (*model.PageList, error) {
	if req.PageSize <= 0 || req.PageSize > maxPageSize {
		req.PageSize = maxPageSize
	}

	body, err := c.doRequest(ctx, "query_data_source", http.MethodPost, "/v1/data_sources/"+url.PathEscape(dataSourceID)+"/query", nil, req)
	if err != nil {
		return nil, err
	}

	var resp listEnvelope
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse query response: %w", ErrNotion, err)
	}

	pages := make([]model.Page, 0, len(resp.Results))
	for _, raw := range resp.Results {
		page, ok := decodePage(raw)
		if !ok {
			continue
		}
		pages = append(pages, page)
	}

	return &model.PageList{
		Results:    pages,
		HasMore:    resp.HasMore,
		NextCursor: derefString(resp.NextCursor),
	}, nil
}

// ListBlockChildren fetches one page of a block's children
func (c *NotionClient) ListBlockChildren(ctx context.Context, blockID, cursor string) (*model.BlockList, error) {
	query := url.Values{}
	query.Set("page_size", strconv.Itoa(maxPageSize))
	if cursor != "" {
		query.Set("start_cursor", cursor)
	}

	body, err := c.doRequest(ctx, "list_block_children", http.MethodGet, "/v1/blocks/"+url.PathEscape(blockID)+"/children", query, nil)
	if err != nil {
		return nil, err
	}

	var resp listEnvelope
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse block children response: %w", ErrNotion, err)
	}

	blocks := make([]model.Block, 0, len(resp.Results))
	for _, raw := range resp.Results {
		block, ok := decodeBlock(raw)
		if !ok {
			continue
		}
		blocks = append(blocks, block)
	}

	return &model.BlockList{
		Results:    blocks,
		HasMore:    resp.HasMore,
		NextCursor: derefString(resp.NextCursor),
	}, nil
}

// doRequest performs one authenticated call. There is no retry: any failure
// is returned to the caller.
func (c *NotionClient) doRequest(ctx context.Context, op, method, path string, query url.Values, payload any) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %s: rate limiter: %w", ErrNotion, op, err)
		}
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", notionVersion)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordNotionRequest(op, "transport_error")
		return nil, fmt.Errorf("%w: %s: %w", ErrNotion, op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordNotionRequest(op, "transport_error")
		return nil, fmt.Errorf("%w: failed to read %s response: %w", ErrNotion, op, err)
	}

	metrics.RecordNotionRequest(op, strconv.Itoa(resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(op, resp.StatusCode, body)
	}

	return body, nil
}

func newAPIError(op string, status int, body []byte) *APIError {
	apiErr := &APIError{Operation: op, Status: status}
	var resp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &resp) == nil {
		apiErr.Code = resp.Code
		apiErr.Message = resp.Message
	}
	return apiErr
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
