// Package record normalizes raw feed items into canonical records with a
// stable identity
package record

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	perr "vaktpost/internal/platform/errors"
)

// Payload keys shared by matchers and report rendering
const (
	KeyTitle   = "title"
	KeySummary = "summary"
	KeyLink    = "link"
	KeySource  = "source"
	KeyName    = "name"
	KeyType    = "type"
	KeyMMSI    = "mmsi"
	KeyLat     = "lat"
	KeyLon     = "lon"
)

// vesselBucket is the identity time bucket for AIS positions; two positions
// of the same vessel inside one bucket are the same record
const vesselBucket = 5 * time.Minute

// Record is the canonical unit evaluated by a rule. It is ephemeral:
// constructed per fetch cycle and discarded after evaluation
type Record struct {
	// IdentityPrimary is set when the source supplies a stable unique
	// reference (article URL, vessel MMSI + time bucket)
	IdentityPrimary string

	// IdentityFallback is deterministically derived from content and used
	// only when IdentityPrimary is absent
	IdentityFallback string

	// Timestamp orders the record and feeds time-window filtering
	Timestamp time.Time

	// Payload carries free-form attributes relevant to matching
	Payload map[string]string
}

// identityChain is the ordered list of identity strategies; the first
// non-empty result wins
var identityChain = []func(Record) string{
	func(r Record) string { return r.IdentityPrimary },
	func(r Record) string { return r.IdentityFallback },
}

// Identity walks the fallback chain and returns the record's identity.
// Every normalized Record has a non-empty identity
func (r Record) Identity() string {
	for _, strat := range identityChain {
		if v := strat(r); v != "" {
			return v
		}
	}
	return ""
}

// Get returns a payload attribute or ""
func (r Record) Get(key string) string { return r.Payload[key] }

// Coordinates parses the lat/lon payload attributes
func (r Record) Coordinates() (lat, lon float64, ok bool) {
	la, err1 := strconv.ParseFloat(r.Payload[KeyLat], 64)
	lo, err2 := strconv.ParseFloat(r.Payload[KeyLon], 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return la, lo, true
}

// NewsItem is a raw article as fetched from an RSS source
type NewsItem struct {
	Title       string
	Summary     string
	Link        string
	Source      string
	PublishedAt time.Time
}

// VesselItem is a raw AIS position as fetched from the endpoint
type VesselItem struct {
	MMSI string
	Name string
	Type string
	Lat  float64
	Lon  float64
	At   time.Time
}

// FromNews normalizes an article. The link URL is the primary identity;
// title+date+source forms the deterministic fallback
func FromNews(raw NewsItem) (Record, error) {
	if raw.PublishedAt.IsZero() {
		return Record{}, perr.MalformedInputf("news item %q has no published time", raw.Title)
	}
	title := strings.TrimSpace(raw.Title)
	link := strings.TrimSpace(raw.Link)
	source := strings.TrimSpace(raw.Source)
	if title == "" && link == "" {
		return Record{}, perr.MalformedInputf("news item has neither title nor link")
	}

	rec := Record{
		Timestamp: raw.PublishedAt.UTC(),
		Payload: map[string]string{
			KeyTitle:   title,
			KeySummary: strings.TrimSpace(raw.Summary),
			KeyLink:    link,
			KeySource:  source,
		},
	}
	if link != "" {
		rec.IdentityPrimary = "url:" + strings.ToLower(link)
	}
	rec.IdentityFallback = fmt.Sprintf("fallback:%s|%s|%s",
		strings.ToLower(title),
		raw.PublishedAt.UTC().Format("2006-01-02"),
		strings.ToLower(source),
	)
	return rec, nil
}

// FromVessel normalizes an AIS position. Coordinates are range-checked here
// so matching never sees degenerate input
func FromVessel(raw VesselItem) (Record, error) {
	if raw.At.IsZero() {
		return Record{}, perr.MalformedInputf("vessel %q has no observation time", raw.MMSI)
	}
	mmsi := strings.TrimSpace(raw.MMSI)
	if mmsi == "" && strings.TrimSpace(raw.Name) == "" {
		return Record{}, perr.MalformedInputf("vessel position has neither mmsi nor name")
	}
	if raw.Lat < -90 || raw.Lat > 90 || raw.Lon < -180 || raw.Lon > 180 {
		return Record{}, perr.InvalidCoordinatef("vessel %q position out of range: (%v, %v)", mmsi, raw.Lat, raw.Lon)
	}

	at := raw.At.UTC()
	rec := Record{
		Timestamp: at,
		Payload: map[string]string{
			KeyMMSI: mmsi,
			KeyName: strings.TrimSpace(raw.Name),
			KeyType: strings.TrimSpace(raw.Type),
			KeyLat:  strconv.FormatFloat(raw.Lat, 'f', -1, 64),
			KeyLon:  strconv.FormatFloat(raw.Lon, 'f', -1, 64),
		},
	}
	bucket := at.Truncate(vesselBucket).Format("200601021504")
	if mmsi != "" {
		rec.IdentityPrimary = "mmsi:" + mmsi + "@" + bucket
	}
	rec.IdentityFallback = fmt.Sprintf("fallback:%s|%s",
		strings.ToLower(strings.TrimSpace(raw.Name)), bucket)
	return rec, nil
}

// SubjectIdentity is the stable vessel identity used by cooldown dedup;
// it is bucket-free so the cooldown window spans positions
func (r Record) SubjectIdentity() string {
	if m := r.Payload[KeyMMSI]; m != "" {
		return "mmsi:" + m
	}
	return "name:" + strings.ToLower(r.Payload[KeyName])
}
