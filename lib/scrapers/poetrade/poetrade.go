package poetrade

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"poeweights/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/poetrade")

// the fetch endpoint rejects requests for more than 10 ids at a time
const fetchPageSize = 10

type Client struct {
	League  string
	Http    *resty.Client
	runId   string
	mu      sync.Mutex
	lastReq time.Time
	minGap  time.Duration
}

type ClientOptions struct {
	BaseUrl string
	League  string
	// POESESSID cookie value, optional for public searches
	SessionId string
	// minimum gap between requests, defaults to 100ms
	RateLimitInterval time.Duration
}

func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	if opts.BaseUrl == "" {
		opts.BaseUrl = "https://www.pathofexile.com"
	}
	if opts.League == "" {
		return nil, fmt.Errorf("a league must be specified")
	}
	if opts.RateLimitInterval == 0 {
		opts.RateLimitInterval = time.Millisecond * 100
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetTimeout(time.Second * 30)
	if opts.SessionId != "" {
		client.SetHeader("cookie", fmt.Sprintf("POESESSID=%s", opts.SessionId))
	}

	telemetry.InstrumentResty(client, "scrapers/poetrade/http")

	runId, err := random.String(8)
	if err != nil {
		return nil, err
	}

	return &Client{
		League: opts.League,
		Http:   client,
		runId:  runId,
		minGap: opts.RateLimitInterval,
	}, nil
}

// RunId identifies this client session in logs and request headers.
func (c *Client) RunId() string {
	return c.runId
}

func (c *Client) respectRateLimit() {
	c.mu.Lock()
	defer c.mu.Unlock()

	elapsed := time.Since(c.lastReq)
	if elapsed < c.minGap {
		time.Sleep(c.minGap - elapsed)
	}
	c.lastReq = time.Now()
}

func (c *Client) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	ctx, span := tracer.Start(ctx, "Search")
	defer span.End()

	c.respectRateLimit()

	var out SearchResponse
	res, err := c.Http.R().
		SetContext(ctx).
		SetHeader("x-request-id", c.runId).
		SetBody(req).
		SetResult(&out).
		Post(fmt.Sprintf("/api/trade/search/%s", c.League))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return SearchResponse{}, err
	}
	if res.IsError() {
		err := fmt.Errorf("search failed: %s: %s", res.Status(), res.String())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return SearchResponse{}, err
	}
	return out, nil
}

// Fetch retrieves the listings for up to 10 result ids from a prior search.
func (c *Client) Fetch(ctx context.Context, ids []string, queryId string) ([]ItemResult, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()

	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > fetchPageSize {
		return nil, fmt.Errorf("cannot fetch more than %d ids at once, got %d", fetchPageSize, len(ids))
	}

	c.respectRateLimit()

	var out FetchResponse
	res, err := c.Http.R().
		SetContext(ctx).
		SetHeader("x-request-id", c.runId).
		SetQueryParam("query", queryId).
		SetResult(&out).
		Get(fmt.Sprintf("/api/trade/fetch/%s", strings.Join(ids, ",")))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if res.IsError() {
		err := fmt.Errorf("fetch failed: %s", res.Status())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return out.Result, nil
}

// FetchAll pages through every result id of a search, retrying transient
// failures with exponential backoff.
func (c *Client) FetchAll(ctx context.Context, search SearchResponse) ([]ItemResult, error) {
	ctx, span := tracer.Start(ctx, "FetchAll")
	defer span.End()

	var out []ItemResult
	for start := 0; start < len(search.Result); start += fetchPageSize {
		end := min(start+fetchPageSize, len(search.Result))

		page, err := c.fetchWithRetry(ctx, search.Result[start:end], search.Id)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return out, err
		}
		out = append(out, page...)
	}
	return out, nil
}

func (c *Client) fetchWithRetry(ctx context.Context, ids []string, queryId string) ([]ItemResult, error) {
	const maxAttempts = 4
	delay := time.Millisecond * 500

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		page, err := c.Fetch(ctx, ids, queryId)
		if err == nil {
			return page, nil
		}
		lastErr = err

		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}
	return nil, fmt.Errorf("fetch failed after %d attempts: %w", maxAttempts, lastErr)
}
