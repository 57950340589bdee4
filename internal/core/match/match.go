// Package match evaluates normalized records against rule criteria
package match

import (
	"math"
	"strings"

	"vaktpost/internal/core/record"
	"vaktpost/internal/core/terms"
)

// Haystack concatenates the record's searchable text fields into one
// case-folded string
func Haystack(rec record.Record) string {
	return terms.Fold(rec.Get(record.KeyTitle) + " " + rec.Get(record.KeySummary))
}

// Keyword reports whether every include token is a substring of the
// record's haystack (AND) and no exclude token is (NONE). Tokens must
// already be folded (terms.Tokenize output)
func Keyword(rec record.Record, include, exclude []string) bool {
	if len(include) == 0 {
		// rule validation forbids empty include sets; never match vacuously
		return false
	}
	hay := Haystack(rec)
	for _, tok := range include {
		if !strings.Contains(hay, tok) {
			return false
		}
	}
	for _, tok := range exclude {
		if strings.Contains(hay, tok) {
			return false
		}
	}
	return true
}

// Point is a geographic coordinate in degrees
type Point struct {
	Lat float64
	Lon float64
}

// earthRadiusKM is the mean earth radius used by the haversine formula
const earthRadiusKM = 6371.0

// HaversineKM returns the great-circle distance between two points.
// The formula is numerically stable at the poles and across the
// antimeridian, so no special-casing is needed
func HaversineKM(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dlat := (b.Lat - a.Lat) * math.Pi / 180
	dlon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	return earthRadiusKM * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// SubjectRelevant reports whether the record's name/type fields contain at
// least one subject keyword (ANY semantics, case-insensitive substring)
func SubjectRelevant(rec record.Record, subjects []string) bool {
	hay := terms.Fold(rec.Get(record.KeyName) + " " + rec.Get(record.KeyType))
	for _, kw := range subjects {
		if kw != "" && strings.Contains(hay, kw) {
			return true
		}
	}
	return false
}

// Proximity reports whether the record is a relevant entity within radiusKM
// of target. Irrelevant entities short-circuit before any distance math.
// The distance is returned for reporting when matched
func Proximity(rec record.Record, target Point, radiusKM float64, subjects []string) (bool, float64) {
	if !SubjectRelevant(rec, subjects) {
		return false, 0
	}
	lat, lon, ok := rec.Coordinates()
	if !ok {
		return false, 0
	}
	d := HaversineKM(Point{Lat: lat, Lon: lon}, target)
	return d <= radiusKM, d
}
