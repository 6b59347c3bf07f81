package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Galev01/LimiQuantix-sub002/internal/infrastructure/resilience"
	"github.com/Galev01/LimiQuantix-sub002/internal/shared/types"
	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// ListProcedure is the Connect procedure listing VMs on the control plane
const ListProcedure = "/limiquantix.compute.v1.VMService/ListVMs"

// maxPages bounds a single listing
const maxPages = 1000

// ErrPagination is returned when the control plane repeats a page token
var ErrPagination = errors.New("inventory pagination did not advance")

// StatusError is returned for non-2xx inventory responses
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("inventory returned status %d", e.Code)
	}
	return fmt.Sprintf("inventory returned status %d: %s", e.Code, e.Body)
}

// Options configures the inventory client
type Options struct {
	BaseURL        string
	Token          string
	Timeout        time.Duration
	PageSize       int     // <= 0 lets the control plane choose
	RequestsPerSec float64 // <= 0 means unlimited
	RetryMax       int
	RetryWaitMin   time.Duration
	RetryWaitMax   time.Duration
}

// DefaultOptions returns the default client options
func DefaultOptions() Options {
	return Options{
		BaseURL:        "http://localhost:8080",
		Timeout:        10 * time.Second,
		PageSize:       100,
		RequestsPerSec: 5,
		RetryMax:       3,
		RetryWaitMin:   500 * time.Millisecond,
		RetryWaitMax:   5 * time.Second,
	}
}

// Client lists VMs from the control plane with rate limiting, retries and
// a circuit breaker.
type Client struct {
	resty    *resty.Client
	limiter  *rate.Limiter
	breaker  *resilience.Breaker
	pageSize int
}

// NewClient creates an inventory client
func NewClient(opts Options) *Client {
	// Retries happen in the transport; resty itself does not retry
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.RetryWaitMin = opts.RetryWaitMin
	retryClient.RetryWaitMax = opts.RetryWaitMax
	retryClient.Logger = nil

	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", "LimiQuantix-Console/1.0").
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetTransport(&retryablehttp.RoundTripper{Client: retryClient})
	if opts.Token != "" {
		restyClient.SetAuthToken(opts.Token)
	}

	breaker := resilience.New("inventory", resilience.Settings{
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RequestsPerSec > 0 {
		burst := int(opts.RequestsPerSec)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSec), burst)
	}

	return &Client{
		resty:    restyClient,
		limiter:  limiter,
		breaker:  breaker,
		pageSize: opts.PageSize,
	}
}

// ListVMs fetches the current VM inventory, following page tokens until
// the last page.
func (c *Client) ListVMs(ctx context.Context) ([]types.VM, error) {
	if c.breaker.State() == resilience.StateOpen {
		return nil, resilience.ErrCircuitOpen
	}

	var vms []types.VM
	err := c.breaker.Do(func() error {
		vms = nil
		seen := make(map[string]bool)
		token := ""
		for page := 0; page < maxPages; page++ {
			batch, next, err := c.listPage(ctx, token)
			if err != nil {
				return err
			}
			vms = append(vms, batch...)
			if next == "" {
				return nil
			}
			if seen[next] {
				return fmt.Errorf("%w: token %q", ErrPagination, next)
			}
			seen[next] = true
			token = next
		}
		return fmt.Errorf("%w: more than %d pages", ErrPagination, maxPages)
	})
	if err != nil {
		return nil, err
	}
	return vms, nil
}

type listRequest struct {
	PageSize  int    `json:"pageSize,omitempty"`
	PageToken string `json:"pageToken,omitempty"`
}

func (c *Client) listPage(ctx context.Context, token string) ([]types.VM, string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, "", fmt.Errorf("rate limit error: %w", err)
	}

	body, err := sonic.Marshal(listRequest{PageSize: c.pageSize, PageToken: token})
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode list request: %w", err)
	}

	resp, err := c.resty.R().SetContext(ctx).SetBody(body).Post(ListProcedure)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list vms: %w", err)
	}
	if resp.IsError() {
		return nil, "", &StatusError{Code: resp.StatusCode(), Body: truncate(string(resp.Body()), 200)}
	}
	return DecodePage(resp.Body())
}

// BreakerState returns the current circuit breaker state
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

// listResponse is the proto JSON form of ListVMsResponse. Proto JSON
// writers emit camelCase names; snake_case is accepted too.
type listResponse struct {
	VMs                []wireVM `json:"vms"`
	NextPageToken      string   `json:"nextPageToken"`
	NextPageTokenSnake string   `json:"next_page_token"`
}

type wireVM struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status struct {
		State string `json:"state"`
	} `json:"status"`
}

// ErrDecode is returned for list responses that cannot be decoded
var ErrDecode = errors.New("invalid inventory response")

// Decode parses a single VM list page. Entries without an id are dropped.
func Decode(body []byte) ([]types.VM, error) {
	vms, _, err := DecodePage(body)
	return vms, err
}

// DecodePage parses a VM list page and returns its next page token
func DecodePage(body []byte) ([]types.VM, string, error) {
	var parsed listResponse
	if err := sonic.Unmarshal(body, &parsed); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	next := parsed.NextPageToken
	if next == "" {
		next = parsed.NextPageTokenSnake
	}

	vms := make([]types.VM, 0, len(parsed.VMs))
	for _, v := range parsed.VMs {
		if v.ID == "" {
			continue
		}
		name := v.Name
		if name == "" {
			name = v.ID
		}
		vms = append(vms, types.VM{
			ID:         v.ID,
			Name:       name,
			PowerState: normalizeState(v.Status.State),
		})
	}
	return vms, next, nil
}

// normalizeState accepts both "RUNNING" and enum-style "VM_STATE_RUNNING"
func normalizeState(s string) types.PowerState {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, prefix := range []string{"VM_STATE_", "POWER_STATE_"} {
		s = strings.TrimPrefix(s, prefix)
	}
	return types.PowerState(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
