// Package news fetches the economy headlines shown in the sidebar.
package news

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/singleflight"

	"zeus/internal/cache"
	zlog "zeus/internal/log"
	"zeus/internal/metrics"
)

const (
	DefaultLimit      = 3
	DefaultTimeout    = 4 * time.Second
	DefaultRetryAfter = time.Minute

	cacheKey = "latest"
)

type Item struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// Result is what the dashboard renders. Online is false when the feed could
// not be reached; Items is then empty.
type Result struct {
	Items  []Item
	Online bool
}

type Options struct {
	URL        string
	Limit      int
	Timeout    time.Duration
	RetryAfter time.Duration
	Cache      cache.Cache[[]Item]
	HTTPClient *http.Client
	Metrics    *metrics.Metrics
}

// Client never returns errors: failures become an offline Result. After a
// failure it stays offline for RetryAfter instead of hitting the feed again.
type Client struct {
	url        string
	limit      int
	timeout    time.Duration
	retryAfter time.Duration
	parser     *gofeed.Parser
	cache      cache.Cache[[]Item]
	metrics    *metrics.Metrics
	group      singleflight.Group

	mu          sync.Mutex
	failedUntil time.Time
}

func NewClient(opts Options) *Client {
	if opts.Limit < 1 {
		opts.Limit = DefaultLimit
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RetryAfter <= 0 {
		opts.RetryAfter = DefaultRetryAfter
	}

	parser := gofeed.NewParser()
	if opts.HTTPClient != nil {
		parser.Client = opts.HTTPClient
	}
	parser.UserAgent = "zeus-dashboard/1.0"

	return &Client{
		url:        opts.URL,
		limit:      opts.Limit,
		timeout:    opts.Timeout,
		retryAfter: opts.RetryAfter,
		parser:     parser,
		cache:      opts.Cache,
		metrics:    opts.Metrics,
	}
}

// Latest returns the newest headlines, at most Limit of them.
func (c *Client) Latest(ctx context.Context) Result {
	if c == nil || c.url == "" {
		return Result{}
	}

	if items, ok := c.cached(ctx); ok {
		c.metrics.NewsFetched(nil, true)
		return Result{Items: items, Online: true}
	}

	if c.inBackoff() {
		return Result{}
	}

	// The fetch outlives a cancelled caller so concurrent waiters still get it,
	// but never the timeout.
	ch := c.group.DoChan(cacheKey, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return c.fetch(fetchCtx)
	})

	select {
	case <-ctx.Done():
		return Result{}
	case res := <-ch:
		if res.Err != nil {
			return Result{}
		}
		return Result{Items: res.Val.([]Item), Online: true}
	}
}

// cached looks up the last headlines. A cache that stops answering costs at
// most the fetch timeout.
func (c *Client) cached(ctx context.Context) ([]Item, bool) {
	if c.cache == nil {
		return nil, false
	}
	getCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type hit struct {
		items []Item
		ok    bool
	}
	ch := make(chan hit, 1)
	go func() {
		items, ok := c.cache.Get(getCtx, cacheKey)
		ch <- hit{items, ok}
	}()

	select {
	case <-getCtx.Done():
		return nil, false
	case h := <-ch:
		return h.items, h.ok
	}
}

func (c *Client) fetch(ctx context.Context) ([]Item, error) {
	feed, err := c.parser.ParseURLWithContext(c.url, ctx)
	c.metrics.NewsFetched(err, false)
	if err != nil {
		c.mu.Lock()
		c.failedUntil = time.Now().Add(c.retryAfter)
		c.mu.Unlock()
		slog.WarnContext(ctx, "News feed unavailable",
			zlog.FieldComponent, zlog.ComponentNews,
			zlog.FieldOperation, zlog.OpFetch,
			zlog.FieldFeedURL, c.url,
			zlog.FieldError, err)
		return nil, err
	}

	items := make([]Item, 0, c.limit)
	for _, it := range feed.Items {
		if len(items) == c.limit {
			break
		}
		title := strings.TrimSpace(it.Title)
		if title == "" {
			continue
		}
		items = append(items, Item{Title: title, Link: strings.TrimSpace(it.Link)})
	}

	if c.cache != nil {
		c.cache.Set(ctx, cacheKey, items)
	}
	return items, nil
}

func (c *Client) inBackoff() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Now().Before(c.failedUntil)
}
