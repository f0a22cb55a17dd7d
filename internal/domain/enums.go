package domain

import (
	"fmt"
	"strings"
)

// RegionType is the geographic granularity of a record.
type RegionType int

const (
	RegionThreeZip RegionType = iota + 1
	RegionFiveZip
	RegionCity
	RegionCounty
)

var regionTypeNames = map[RegionType]string{
	RegionThreeZip: "threezip",
	RegionFiveZip:  "fivezip",
	RegionCity:     "city",
	RegionCounty:   "county",
}

// HomeType is the housing stock a home-value series covers.
type HomeType int

const (
	HomeAll HomeType = iota + 1
	HomeCondoCoOps
	HomeSingleFamily
)

var homeTypeNames = map[HomeType]string{
	HomeAll:          "allhomes",
	HomeCondoCoOps:   "condocoops",
	HomeSingleFamily: "singlefamilyhomes",
}

// Percentile is the price band of a home-value series.
type Percentile int

const (
	PercentileBottom Percentile = iota + 1
	PercentileMiddle
	PercentileTop
)

var percentileNames = map[Percentile]string{
	PercentileBottom: "bottom",
	PercentileMiddle: "middle",
	PercentileTop:    "top",
}

// Term is the maturity of a treasury yield.
type Term int

const (
	TermTenYear Term = iota + 1
)

var termNames = map[Term]string{
	TermTenYear: "tenyear",
}

// Interval is the time bucket of a yield or series query. The zero value is
// IntervalYear.
type Interval int

const (
	IntervalYear Interval = iota
	IntervalMonth
	IntervalDay
)

var intervalNames = map[Interval]string{
	IntervalYear:  "year",
	IntervalMonth: "month",
	IntervalDay:   "day",
}

func enumString[T comparable](names map[T]string, v T) string {
	if s, ok := names[v]; ok {
		return s
	}
	return ""
}

func parseEnum[T comparable](kind string, names map[T]string, s string) (T, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for v, name := range names {
		if name == want {
			return v, nil
		}
	}
	var zero T
	return zero, ParseErrorf("unknown %s %q", kind, s)
}

func (r RegionType) String() string { return enumString(regionTypeNames, r) }
func (h HomeType) String() string   { return enumString(homeTypeNames, h) }
func (p Percentile) String() string { return enumString(percentileNames, p) }
func (t Term) String() string       { return enumString(termNames, t) }
func (i Interval) String() string   { return enumString(intervalNames, i) }

// ParseRegionType parses a region type case-insensitively.
func ParseRegionType(s string) (RegionType, error) { return parseEnum("region type", regionTypeNames, s) }

// ParseHomeType parses a home type case-insensitively.
func ParseHomeType(s string) (HomeType, error) { return parseEnum("home type", homeTypeNames, s) }

// ParsePercentile parses a percentile band case-insensitively.
func ParsePercentile(s string) (Percentile, error) { return parseEnum("percentile", percentileNames, s) }

// ParseTerm parses a treasury term case-insensitively.
func ParseTerm(s string) (Term, error) { return parseEnum("term", termNames, s) }

// ParseInterval parses an interval case-insensitively. An empty string is
// IntervalYear.
func ParseInterval(s string) (Interval, error) {
	if strings.TrimSpace(s) == "" {
		return IntervalYear, nil
	}
	return parseEnum("interval", intervalNames, s)
}

// Text encodings let enums travel as their names in JSON and SQL.

func (r RegionType) MarshalText() ([]byte, error) { return marshalEnum("region type", r.String(), int(r)) }
func (h HomeType) MarshalText() ([]byte, error)   { return marshalEnum("home type", h.String(), int(h)) }
func (p Percentile) MarshalText() ([]byte, error) { return marshalEnum("percentile", p.String(), int(p)) }
func (t Term) MarshalText() ([]byte, error)       { return marshalEnum("term", t.String(), int(t)) }
func (i Interval) MarshalText() ([]byte, error)   { return marshalEnum("interval", i.String(), int(i)) }

func (r *RegionType) UnmarshalText(b []byte) (err error) { *r, err = ParseRegionType(string(b)); return }
func (h *HomeType) UnmarshalText(b []byte) (err error)   { *h, err = ParseHomeType(string(b)); return }
func (p *Percentile) UnmarshalText(b []byte) (err error) { *p, err = ParsePercentile(string(b)); return }
func (t *Term) UnmarshalText(b []byte) (err error)       { *t, err = ParseTerm(string(b)); return }
func (i *Interval) UnmarshalText(b []byte) (err error)   { *i, err = ParseInterval(string(b)); return }

func marshalEnum(kind, s string, n int) ([]byte, error) {
	if s == "" {
		return nil, fmt.Errorf("invalid %s %d", kind, n)
	}
	return []byte(s), nil
}
