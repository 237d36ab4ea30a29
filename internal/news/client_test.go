package news

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zeus/internal/cache"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>g1 &gt; Economia</title>
  <item><title>Dólar fecha em queda</title><link>https://g1.globo.com/economia/1</link></item>
  <item><title>  </title><link>https://g1.globo.com/economia/blank</link></item>
  <item><title>Inflação desacelera</title><link>https://g1.globo.com/economia/2</link></item>
  <item><title>Selic mantida</title><link>https://g1.globo.com/economia/3</link></item>
  <item><title>Bolsa sobe</title><link>https://g1.globo.com/economia/4</link></item>
</channel>
</rss>`

func feedServer(t *testing.T, status int, delay time.Duration) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.WriteHeader(status)
		fmt.Fprint(w, feedXML)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestLatest(t *testing.T) {
	srv, _ := feedServer(t, http.StatusOK, 0)
	c := NewClient(Options{URL: srv.URL, Limit: 3, Timeout: time.Second})

	res := c.Latest(context.Background())

	require.True(t, res.Online)
	require.Len(t, res.Items, 3)
	assert.Equal(t, Item{Title: "Dólar fecha em queda", Link: "https://g1.globo.com/economia/1"}, res.Items[0])
	assert.Equal(t, "Inflação desacelera", res.Items[1].Title)
	assert.Equal(t, "Selic mantida", res.Items[2].Title)
}

func TestLatestServerError(t *testing.T) {
	srv, hits := feedServer(t, http.StatusInternalServerError, 0)
	c := NewClient(Options{URL: srv.URL, Timeout: time.Second})

	res := c.Latest(context.Background())
	assert.False(t, res.Online)
	assert.Empty(t, res.Items)

	// Stays offline during the retry window without another request.
	res = c.Latest(context.Background())
	assert.False(t, res.Online)
	assert.Equal(t, int32(1), hits.Load())
}

func TestLatestTimeout(t *testing.T) {
	srv, _ := feedServer(t, http.StatusOK, 2*time.Second)
	c := NewClient(Options{URL: srv.URL, Timeout: 50 * time.Millisecond})

	start := time.Now()
	res := c.Latest(context.Background())

	assert.False(t, res.Online)
	assert.Empty(t, res.Items)
	assert.Less(t, time.Since(start), time.Second)
}

func TestLatestUsesCache(t *testing.T) {
	srv, hits := feedServer(t, http.StatusOK, 0)
	c := NewClient(Options{
		URL:     srv.URL,
		Timeout: time.Second,
		Cache:   cache.NewLRUCache[[]Item](4, time.Minute),
	})

	first := c.Latest(context.Background())
	second := c.Latest(context.Background())

	assert.True(t, second.Online)
	assert.Equal(t, first.Items, second.Items)
	assert.Equal(t, int32(1), hits.Load())
}

// stuckCache never answers until its context ends, like a partitioned Redis.
type stuckCache struct{}

func (stuckCache) Get(ctx context.Context, _ string) ([]Item, bool) {
	<-ctx.Done()
	return nil, false
}

func (stuckCache) Set(context.Context, string, []Item) {}
func (stuckCache) Delete(context.Context, string) {}

func TestLatestStuckCacheIsBounded(t *testing.T) {
	srv, hits := feedServer(t, http.StatusOK, 0)
	c := NewClient(Options{URL: srv.URL, Timeout: 100 * time.Millisecond, Cache: stuckCache{}})

	start := time.Now()
	res := c.Latest(context.Background())

	assert.Less(t, time.Since(start), time.Second)
	// Falls through to the feed once the lookup gives up.
	assert.True(t, res.Online)
	assert.Equal(t, int32(1), hits.Load())
}

func TestLatestConcurrentCallersShareFetch(t *testing.T) {
	srv, hits := feedServer(t, http.StatusOK, 100*time.Millisecond)
	c := NewClient(Options{URL: srv.URL, Timeout: time.Second})

	var wg sync.WaitGroup
	results := make([]Result, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Latest(context.Background())
		}(i)
	}
	wg.Wait()

	for _, res := range results {
		assert.True(t, res.Online)
	}
	assert.LessOrEqual(t, hits.Load(), int32(2))
}

func TestLatestDisabled(t *testing.T) {
	c := NewClient(Options{})
	assert.Equal(t, Result{}, c.Latest(context.Background()))

	var nilClient *Client
	assert.Equal(t, Result{}, nilClient.Latest(context.Background()))
}
