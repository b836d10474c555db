package feeds

import (
	"context"
	"html"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"coinpulse/internal/adapters/config"
	"coinpulse/internal/adapters/ratelimit"
	"coinpulse/internal/domain/news"
	"coinpulse/internal/metrics"
	"coinpulse/pkg/errors"
	"coinpulse/pkg/logger"
)

// Collector reads RSS/Atom/JSON feeds one after another and keeps entries inside the recency window
type Collector struct {
	urls    []string
	window  time.Duration
	timeout time.Duration
	parser  *gofeed.Parser
	pacer   *ratelimit.Limiter
	policy  *bluemonday.Policy
	now     func() time.Time
	log     *logger.Logger
}

var _ news.Source = (*Collector)(nil)

// NewCollector builds a collector from immutable configuration
func NewCollector(cfg config.FeedsConfig, log *logger.Logger) *Collector {
	if log == nil {
		log = logger.Get()
	}

	parser := gofeed.NewParser()
	parser.UserAgent = cfg.UserAgent
	parser.Client = &http.Client{Timeout: cfg.Timeout}

	return &Collector{
		urls:    cfg.URLs,
		window:  cfg.Window,
		timeout: cfg.Timeout,
		parser:  parser,
		pacer:   ratelimit.NewPacer("feeds", cfg.Pace),
		policy:  bluemonday.StrictPolicy(),
		now:     time.Now,
		log:     log.With("component", "feed_collector"),
	}
}

// Collect fetches every feed. A failing feed is recorded and skipped.
// The error is non-nil only when every feed failed or ctx was cancelled.
func (c *Collector) Collect(ctx context.Context) (*news.Batch, error) {
	batch := &news.Batch{}
	cutoff := c.now().Add(-c.window)
	seen := make(map[string]struct{})

	for _, feedURL := range c.urls {
		if err := c.pacer.Wait(ctx); err != nil {
			return batch, errors.Wrap(err, "collect feeds")
		}

		articles, err := c.fetch(ctx, feedURL, cutoff)
		metrics.RecordFeedFetch(host(feedURL), err)
		if err != nil {
			if ctx.Err() != nil {
				return batch, errors.Wrap(ctx.Err(), "collect feeds")
			}
			c.log.Warnw("Feed fetch failed", "url", feedURL, "error", err)
			batch.Failures = append(batch.Failures, news.FeedFailure{URL: feedURL, Err: err})
			continue
		}

		kept := 0
		for _, a := range articles {
			if _, dup := seen[a.Link]; dup {
				continue
			}
			seen[a.Link] = struct{}{}
			batch.Articles = append(batch.Articles, a)
			kept++
		}
		c.log.Debugw("Feed fetched", "url", feedURL, "articles", kept)
	}

	if len(c.urls) > 0 && len(batch.Failures) == len(c.urls) {
		return batch, errors.Wrapf(errors.ErrUnavailable, "all %d feeds failed", len(c.urls))
	}

	return batch, nil
}

func (c *Collector) fetch(ctx context.Context, feedURL string, cutoff time.Time) ([]news.Article, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	feed, err := c.parser.ParseURLWithContext(feedURL, fetchCtx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			return nil, &errors.HTTPStatusError{Code: httpErr.StatusCode, Body: httpErr.Status}
		}
		return nil, errors.Wrap(err, "parse feed")
	}

	source := strings.TrimSpace(feed.Title)
	if source == "" {
		source = host(feedURL)
	}

	articles := make([]news.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		a, ok := c.convert(item, source)
		if !ok || a.PublishedAt.Before(cutoff) {
			continue
		}
		articles = append(articles, a)
	}
	return articles, nil
}

// convert maps a feed item to an article. Items without a title or a link are dropped.
func (c *Collector) convert(item *gofeed.Item, source string) (news.Article, bool) {
	if item == nil {
		return news.Article{}, false
	}

	title := c.clean(item.Title)
	if title == "" {
		return news.Article{}, false
	}

	link := strings.TrimSpace(item.Link)
	if link == "" && strings.HasPrefix(item.GUID, "http") {
		link = strings.TrimSpace(item.GUID)
	}
	if link == "" {
		return news.Article{}, false
	}

	summary := c.clean(item.Description)
	if summary == "" {
		summary = c.clean(item.Content)
	}

	return news.Article{
		Title:       title,
		Summary:     summary,
		Link:        link,
		PublishedAt: c.published(item),
		Source:      source,
	}, true
}

// published prefers the published date, then the updated date, then now
func (c *Collector) published(item *gofeed.Item) time.Time {
	switch {
	case item.PublishedParsed != nil:
		return item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		return item.UpdatedParsed.UTC()
	default:
		return c.now().UTC()
	}
}

// clean strips markup, decodes entities and collapses whitespace
func (c *Collector) clean(s string) string {
	if s == "" {
		return ""
	}
	text := html.UnescapeString(c.policy.Sanitize(s))
	return strings.Join(strings.Fields(text), " ")
}

func host(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return strings.TrimPrefix(u.Host, "www.")
}
