// Package rss fetches articles from RSS/Atom feeds, including per-term
// Google News query feeds
package rss

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"vaktpost/internal/core/record"
	perr "vaktpost/internal/platform/errors"
	"vaktpost/internal/platform/logger"
)

// DefaultTimeout bounds a single feed fetch
const DefaultTimeout = 15 * time.Second

// Client pulls and parses feeds
type Client struct {
	http   *http.Client
	parser *gofeed.Parser
	log    logger.Logger
}

// New builds a Client; a non-positive timeout falls back to DefaultTimeout
func New(log logger.Logger, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http:   &http.Client{Timeout: timeout},
		parser: gofeed.NewParser(),
		log:    log.With().Str("component", "rss").Logger(),
	}
}

// QueryURL builds the Google News RSS search URL for one term. lang and
// country default to Norwegian Bokmål / Norway, matching the feeds the
// monitor was built for
func QueryURL(term, lang, country string) string {
	if lang == "" {
		lang = "no"
	}
	if country == "" {
		country = "NO"
	}
	v := url.Values{}
	v.Set("q", term)
	v.Set("hl", lang)
	v.Set("gl", country)
	v.Set("ceid", country+":"+lang)
	return "https://news.google.com/rss/search?" + v.Encode()
}

// Fetch pulls one feed and returns its items as raw news items. Items with
// no usable publish time are skipped, not fatal
func (c *Client) Fetch(ctx context.Context, feedURL string) ([]record.NewsItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, perr.Fetchf("build feed request: %v", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, perr.FetchTimeoutf("feed %s timed out", feedURL)
		}
		return nil, perr.Fetchf("fetch feed %s: %v", feedURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, perr.Fetchf("feed %s returned status %d", feedURL, resp.StatusCode)
	}
	feed, err := c.parser.Parse(resp.Body)
	if err != nil {
		return nil, perr.Fetchf("parse feed %s: %v", feedURL, err)
	}

	items := make([]record.NewsItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		var pub time.Time
		switch {
		case it.PublishedParsed != nil:
			pub = *it.PublishedParsed
		case it.UpdatedParsed != nil:
			pub = *it.UpdatedParsed
		default:
			c.log.Debug().Str("title", it.Title).Msg("feed item has no publish time, skipping")
			continue
		}
		items = append(items, record.NewsItem{
			Title:       strings.TrimSpace(it.Title),
			Summary:     strings.TrimSpace(it.Description),
			Link:        strings.TrimSpace(it.Link),
			Source:      strings.TrimSpace(feed.Title),
			PublishedAt: pub,
		})
	}
	c.log.Debug().Str("feed", feedURL).Int("items", len(items)).Msg("feed fetched")
	return items, nil
}

// FetchQuery runs one Google News search feed for a raw search term
func (c *Client) FetchQuery(ctx context.Context, term, lang, country string) ([]record.NewsItem, error) {
	return c.Fetch(ctx, QueryURL(term, lang, country))
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
