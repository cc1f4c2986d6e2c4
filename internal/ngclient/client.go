// Package ngclient is a typed client for the platform REST backend
// (connectors, cloud cost, pipelines, verification and services APIs).
package ngclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/ngconsole/ngconsole/internal/metrics"
	"github.com/sony/gobreaker"
)

const (
	StatusSuccess = "SUCCESS"
	StatusFailure = "FAILURE"
	StatusError   = "ERROR"

	apiKeyHeader     = "x-api-key"
	defaultTimeout   = 30 * time.Second
	maxErrorBodySize = 1 << 20 // 1 MiB
	breakerTrips     = 5
	breakerCooldown  = 30 * time.Second
)

// ErrBackendUnavailable is returned while the circuit breaker is open.
var ErrBackendUnavailable = errors.New("backend temporarily unavailable")

// Response is the envelope every backend endpoint returns.
type Response[T any] struct {
	Status        string `json:"status"`
	Data          T      `json:"data"`
	Code          string `json:"code,omitempty"`
	Message       string `json:"message,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Page is the paginated payload used by list endpoints.
type Page[T any] struct {
	TotalPages    int64 `json:"totalPages"`
	TotalItems    int64 `json:"totalItems"`
	PageItemCount int64 `json:"pageItemCount"`
	PageSize      int64 `json:"pageSize"`
	PageIndex     int64 `json:"pageIndex"`
	Content       []T   `json:"content"`
	Empty         bool  `json:"empty"`
}

// Scope narrows a call to an organization and project inside the account.
type Scope struct {
	OrgIdentifier     string
	ProjectIdentifier string
}

func (s Scope) apply(q url.Values) {
	if v := strings.TrimSpace(s.OrgIdentifier); v != "" {
		q.Set("orgIdentifier", v)
	}
	if v := strings.TrimSpace(s.ProjectIdentifier); v != "" {
		q.Set("projectIdentifier", v)
	}
}

// APIError is a non-SUCCESS envelope or a non-2xx HTTP response.
type APIError struct {
	StatusCode    int
	Status        string
	Code          string
	Message       string
	CorrelationID string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("backend %s (%d): %s", e.Code, e.StatusCode, msg)
	}
	return fmt.Sprintf("backend error (%d): %s", e.StatusCode, msg)
}

// ServerFailure reports whether the error points at backend health rather than the request.
func (e *APIError) ServerFailure() bool {
	return e != nil && (e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests)
}

// ErrorMessage picks user-facing text: the backend message, then the error text, then fallback.
func ErrorMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if msg := strings.TrimSpace(apiErr.Message); msg != "" {
			return msg
		}
	}
	if errors.Is(err, ErrBackendUnavailable) {
		return ErrBackendUnavailable.Error()
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return fallback
}

type Options struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	RetryMax   int
	Logger     *slog.Logger
}

type Client struct {
	baseURL   string
	accountID string
	apiKey    string

	http    *http.Client
	breaker *gobreaker.CircuitBreaker
}

func New(baseURL, accountID, apiKey string) (*Client, error) {
	return NewWithOptions(baseURL, accountID, apiKey, Options{})
}

func NewWithOptions(baseURL, accountID, apiKey string, opts Options) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	accountID = strings.TrimSpace(accountID)
	apiKey = strings.TrimSpace(apiKey)

	if baseURL == "" {
		return nil, errors.New("backend base url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("backend base url: %w", err)
	}
	if accountID == "" {
		return nil, errors.New("account id is required")
	}
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		rc := retryablehttp.NewClient()
		rc.RetryMax = opts.RetryMax
		rc.RetryWaitMin = 200 * time.Millisecond
		rc.RetryWaitMax = 2 * time.Second
		rc.HTTPClient.Timeout = timeout
		rc.CheckRetry = retryPolicy
		rc.Logger = nil
		if opts.Logger != nil {
			rc.Logger = opts.Logger
		}
		httpClient = rc.StandardClient()
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "ng-backend",
		Timeout: breakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTrips
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return !apiErr.ServerFailure()
			}
			return errors.Is(err, context.Canceled)
		},
	})

	return &Client{
		baseURL:   baseURL,
		accountID: accountID,
		apiKey:    apiKey,
		http:      httpClient,
		breaker:   breaker,
	}, nil
}

// AccountID returns the account every call is scoped to.
func (c *Client) AccountID() string {
	return c.accountID
}

type call struct {
	service     string
	operation   string
	method      string
	path        string
	query       url.Values
	body        any
	rawBody     []byte
	contentType string
	// readOnly marks POST calls that only query, such as filtered lists.
	readOnly bool
}

// retryable reports whether resending the call cannot repeat a side effect.
func (cl call) retryable() bool {
	return cl.method != http.MethodPost || cl.readOnly
}

type noRetryKey struct{}

// retryPolicy is the default retryablehttp policy, except that requests
// created or executed through POST are sent exactly once.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if noRetry, _ := ctx.Value(noRetryKey{}).(bool); noRetry {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// doJSON executes a call and unwraps the Response envelope.
func doJSON[T any](ctx context.Context, c *Client, cl call) (T, error) {
	var zero T
	raw, err := c.execute(ctx, cl)
	if err != nil {
		return zero, err
	}
	var env Response[T]
	if len(bytes.TrimSpace(raw)) == 0 {
		return zero, &APIError{StatusCode: http.StatusOK, Message: "empty response"}
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return zero, fmt.Errorf("%s: decode response: %w", cl.operation, err)
	}
	if env.Status != "" && env.Status != StatusSuccess {
		return zero, &APIError{
			StatusCode:    http.StatusOK,
			Status:        env.Status,
			Code:          env.Code,
			Message:       env.Message,
			CorrelationID: env.CorrelationID,
		}
	}
	return env.Data, nil
}

func (c *Client) execute(ctx context.Context, cl call) ([]byte, error) {
	started := time.Now()
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.roundTrip(ctx, cl)
	})
	metrics.BackendRequestDuration.WithLabelValues(cl.service, cl.operation).Observe(time.Since(started).Seconds())
	if err != nil {
		outcome := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "breaker_open"
			err = fmt.Errorf("%s: %w", cl.operation, ErrBackendUnavailable)
		}
		metrics.BackendRequestsTotal.WithLabelValues(cl.service, cl.operation, outcome).Inc()
		return nil, err
	}
	metrics.BackendRequestsTotal.WithLabelValues(cl.service, cl.operation, "ok").Inc()
	raw, _ := out.([]byte)
	return raw, nil
}

func (c *Client) roundTrip(ctx context.Context, cl call) ([]byte, error) {
	q := url.Values{}
	for k, vs := range cl.query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	accountParam := "accountIdentifier"
	if cl.service == serviceCV {
		accountParam = "accountId"
	}
	q.Set(accountParam, c.accountID)

	endpoint := c.baseURL + cl.path
	if encoded := q.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var body io.Reader
	contentType := cl.contentType
	switch {
	case cl.rawBody != nil:
		body = bytes.NewReader(cl.rawBody)
	case cl.body != nil:
		buf, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", cl.operation, err)
		}
		body = bytes.NewReader(buf)
		if contentType == "" {
			contentType = "application/json"
		}
	}

	if !cl.retryable() {
		ctx = context.WithValue(ctx, noRetryKey{}, true)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cl.operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, decodeAPIError(resp.StatusCode, raw)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", cl.operation, err)
	}
	return raw, nil
}

func decodeAPIError(statusCode int, raw []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}
	var env Response[json.RawMessage]
	if err := json.Unmarshal(raw, &env); err == nil {
		apiErr.Status = env.Status
		apiErr.Code = env.Code
		apiErr.Message = env.Message
		apiErr.CorrelationID = env.CorrelationID
	}
	return apiErr
}

// PageRequest is the common paging query of list endpoints.
type PageRequest struct {
	PageIndex  int
	PageSize   int
	SearchTerm string
}

func (p PageRequest) apply(q url.Values, indexKey, sizeKey string) {
	size := p.PageSize
	if size < 1 {
		size = 10
	}
	index := p.PageIndex
	if index < 0 {
		index = 0
	}
	q.Set(indexKey, fmt.Sprint(index))
	q.Set(sizeKey, fmt.Sprint(size))
	if term := strings.TrimSpace(p.SearchTerm); term != "" {
		q.Set("searchTerm", term)
	}
}
