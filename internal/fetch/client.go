// Package fetch implements the HTTP transport used by the mirroring
// engine: a Colly-backed client with an injected retry policy, request
// timeout, and identifying User-Agent header.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// Config carries the transport knobs.
type Config struct {
	UserAgent      string
	RequestTimeout time.Duration
}

// Response is the result of a successful GET.
type Response struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// StatusError reports a non-success HTTP status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// Client fetches URLs through a configured Colly collector, retrying
// transient failures per the injected policy.
type Client struct {
	base   *colly.Collector
	policy RetryPolicy
	logger *zap.Logger
}

// NewClient constructs a Client. The policy and logger are required.
func NewClient(cfg Config, policy RetryPolicy, logger *zap.Logger) *Client {
	base := colly.NewCollector(colly.UserAgent(cfg.UserAgent))
	base.AllowURLRevisit = true
	base.IgnoreRobotsTxt = true
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.RequestTimeout,
		ForceAttemptHTTP2:     true,
	})
	base.SetRequestTimeout(cfg.RequestTimeout)

	return &Client{
		base:   base,
		policy: policy,
		logger: logger,
	}
}

// Get fetches rawURL, retrying per the policy. The body is fully buffered;
// callers write it to disk themselves.
func (c *Client) Get(ctx context.Context, rawURL string) (Response, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		resp, err := c.doGet(ctx, rawURL)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !c.policy.ShouldRetry(err, attempt+1) {
			break
		}
		wait := c.policy.Backoff(attempt)
		c.logger.Debug("retrying fetch",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case <-time.After(wait):
		}
	}
	return Response{}, lastErr
}

func (c *Client) doGet(ctx context.Context, rawURL string) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	collector := c.base.Clone()
	resultCh := make(chan result, 1)
	var once sync.Once
	send := func(r result) {
		once.Do(func() { resultCh <- r })
	}

	collector.OnResponse(func(r *colly.Response) {
		headers := http.Header{}
		if r.Headers != nil {
			for k, v := range *r.Headers {
				headers[k] = append([]string(nil), v...)
			}
		}
		send(result{resp: Response{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Headers:    headers,
			Body:       append([]byte(nil), r.Body...),
		}})
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			send(result{err: &StatusError{URL: rawURL, StatusCode: r.StatusCode}})
			return
		}
		if err == nil {
			err = errors.New("unknown transport error")
		}
		send(result{err: err})
	})

	visitErr := collector.Visit(rawURL)
	collector.Wait()

	select {
	case res := <-resultCh:
		return res.resp, res.err
	default:
	}
	if visitErr != nil {
		return Response{}, fmt.Errorf("visit %s: %w", rawURL, visitErr)
	}
	return Response{}, fmt.Errorf("fetch %s produced no result", rawURL)
}

type result struct {
	resp Response
	err  error
}
