// vaktpost-search runs a one-shot keyword search against the feeds and
// prints a plain-text report, no store or mail involved
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"vaktpost/internal/adapters/feeds/rss"
	"vaktpost/internal/core/match"
	"vaktpost/internal/core/record"
	"vaktpost/internal/core/terms"
	"vaktpost/internal/platform/config"
	"vaktpost/internal/platform/logger"
	"vaktpost/internal/services/dispatch"
	mondom "vaktpost/internal/services/monitor/domain"
)

func main() {
	var (
		fTerms   = flag.String("terms", "", "search terms; quote phrases, separate with commas or spaces (required)")
		fExclude = flag.String("exclude", "", "exclude terms")
		fDays    = flag.Int("days", 0, "only report articles from the last N days (0 = no limit)")
		fSeeds   = flag.String("seeds", "", "optional YAML seed file; its enabled sources are searched instead of Google News")
		fLang    = flag.String("lang", "no", "Google News language")
		fCountry = flag.String("country", "NO", "Google News country")
		fTimeout = flag.Duration("timeout", 15*time.Second, "per-feed fetch timeout")
	)
	flag.Parse()

	if *fTerms == "" {
		fmt.Fprintln(os.Stderr, "usage: vaktpost-search -terms <terms> [-exclude <terms>] [-seeds <file>]")
		os.Exit(2)
	}

	l := logger.Get()
	ctx := context.Background()
	client := rss.New(*l, *fTimeout)

	var sources []string
	if *fSeeds != "" {
		seeds, err := config.LoadSeeds(*fSeeds)
		if err != nil {
			l.Fatal().Err(err).Msg("seed file unreadable")
		}
		for _, s := range seeds.Sources {
			if s.Enabled {
				sources = append(sources, s.URL)
			}
		}
	}

	var items []record.NewsItem
	if len(sources) == 0 {
		fetched, err := client.FetchQuery(ctx, *fTerms, *fLang, *fCountry)
		if err != nil {
			l.Fatal().Err(err).Msg("query feed fetch failed")
		}
		items = fetched
	} else {
		for _, src := range sources {
			fetched, err := client.Fetch(ctx, src)
			if err != nil {
				l.Warn().Err(err).Str("source", src).Msg("source skipped")
				continue
			}
			items = append(items, fetched...)
		}
	}

	include := terms.Tokenize(*fTerms)
	exclude := terms.Tokenize(*fExclude)

	now := time.Now().UTC()
	var cutoff time.Time
	if *fDays > 0 {
		cutoff = now.AddDate(0, 0, -*fDays)
	}

	var matches []mondom.Match
	for _, it := range items {
		rec, err := record.FromNews(it)
		if err != nil {
			l.Debug().Err(err).Str("title", it.Title).Msg("item skipped")
			continue
		}
		if !cutoff.IsZero() && rec.Timestamp.Before(cutoff) {
			continue
		}
		if match.Keyword(rec, include, exclude) {
			matches = append(matches, mondom.Match{Record: rec})
		}
	}

	rule := mondom.Rule{
		Name:         "search",
		Kind:         mondom.KindKeyword,
		IncludeTerms: *fTerms,
		ExcludeTerms: *fExclude,
		WindowDays:   *fDays,
	}
	fmt.Print(dispatch.RenderText(rule, matches, now))
}
