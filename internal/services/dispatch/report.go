package dispatch

import (
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"vaktpost/internal/core/record"
	perr "vaktpost/internal/platform/errors"
	"vaktpost/internal/services/monitor/domain"
)

// reportHTML mirrors the original report layout: rule criteria on top,
// matches newest first
const reportHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><style>
body { font-family: sans-serif; color: #222; }
h1 { font-size: 1.2em; }
.criteria { color: #555; font-size: 0.9em; margin-bottom: 1em; }
.match { margin-bottom: 0.8em; }
.match .meta { color: #777; font-size: 0.85em; }
</style></head>
<body>
<h1>{{.RuleName}} - {{.Count}} new {{if eq .Count 1}}match{{else}}matches{{end}}</h1>
<div class="criteria">{{.Criteria}}</div>
{{range .Matches}}<div class="match">
	{{if .Link}}<a href="{{.Link}}">{{.Title}}</a>{{else}}<strong>{{.Title}}</strong>{{end}}
	<div class="meta">{{.Meta}}</div>
</div>
{{end}}
<p class="meta">Generated {{.GeneratedAt.Format "2006-01-02 15:04"}} UTC</p>
</body>
</html>`

var reportTmpl = template.Must(template.New("report").Parse(reportHTML))

type reportLine struct {
	Title string
	Link  string
	Meta  string
}

type reportData struct {
	RuleName    string
	Criteria    string
	Count       int
	Matches     []reportLine
	GeneratedAt time.Time
}

func criteria(rule domain.Rule) string {
	switch rule.Kind {
	case domain.KindKeyword:
		c := "terms: " + rule.IncludeTerms
		if strings.TrimSpace(rule.ExcludeTerms) != "" {
			c += " / excluding: " + rule.ExcludeTerms
		}
		return c
	case domain.KindProximity:
		return fmt.Sprintf("subjects: %s / within %.1f km", rule.SubjectTerms, rule.RadiusKM)
	}
	return ""
}

func buildReport(rule domain.Rule, matches []domain.Match, at time.Time) reportData {
	sorted := append([]domain.Match(nil), matches...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Record.Timestamp.After(sorted[j].Record.Timestamp)
	})

	lines := make([]reportLine, 0, len(sorted))
	for _, m := range sorted {
		rec := m.Record
		switch rule.Kind {
		case domain.KindProximity:
			lines = append(lines, reportLine{
				Title: fmt.Sprintf("%s (%s) near %s", rec.Get(record.KeyName), rec.Get(record.KeyMMSI), m.Facility),
				Meta: fmt.Sprintf("%.2f km from %s at %s",
					m.DistanceKM, m.Facility, rec.Timestamp.Format("2006-01-02 15:04")),
			})
		default:
			meta := rec.Timestamp.Format("2006-01-02 15:04")
			if src := rec.Get(record.KeySource); src != "" {
				meta = src + " · " + meta
			}
			lines = append(lines, reportLine{
				Title: rec.Get(record.KeyTitle),
				Link:  rec.Get(record.KeyLink),
				Meta:  meta,
			})
		}
	}

	return reportData{
		RuleName:    rule.Name,
		Criteria:    criteria(rule),
		Count:       len(lines),
		Matches:     lines,
		GeneratedAt: at.UTC(),
	}
}

// RenderHTML renders the email report body
func RenderHTML(rule domain.Rule, matches []domain.Match, at time.Time) (string, error) {
	var b strings.Builder
	if err := reportTmpl.Execute(&b, buildReport(rule, matches, at)); err != nil {
		return "", perr.Internalf("render report for rule %q: %v", rule.Name, err)
	}
	return b.String(), nil
}

// RenderText renders the plain-text alternative, also used by the search CLI
func RenderText(rule domain.Rule, matches []domain.Match, at time.Time) string {
	data := buildReport(rule, matches, at)
	var b strings.Builder
	fmt.Fprintf(&b, "%s - %d new matches\n%s\n\n", data.RuleName, data.Count, data.Criteria)
	for _, l := range data.Matches {
		fmt.Fprintf(&b, "- %s\n", l.Title)
		if l.Link != "" {
			fmt.Fprintf(&b, "  %s\n", l.Link)
		}
		fmt.Fprintf(&b, "  %s\n", l.Meta)
	}
	return b.String()
}
