package cwa

import (
	"log/slog"
	"sort"
	"strconv"
)

// noValue marks an absent date or condition text in the source feed.
const noValue = "-"

// Forecast is the flat per-location view extracted from one payload.
// MaxTemp and MinTemp are nil when the feed reported no value.
type Forecast struct {
	Location string
	Date     string
	MaxTemp  *float64
	MinTemp  *float64
	Weather  string
}

// Locations extracts every location name from the payload, skipping
// entries with empty names, sorted lexicographically. A payload whose
// location path is missing yields an empty slice; that condition is
// logged so schema drift in the upstream feed is observable.
func Locations(p *Payload, logger *slog.Logger) []string {
	locs := p.locations()
	if len(locs) == 0 {
		logger.Warn("no locations in payload, upstream schema may have changed")
		return nil
	}

	names := make([]string, 0, len(locs))
	for _, loc := range locs {
		if loc.Name != "" {
			names = append(names, loc.Name)
		}
	}
	sort.Strings(names)
	return names
}

// Extract produces the flat forecast view for the named location, or
// false when the location is not present in the payload. The first
// entry of each element's daily sequence is used; an empty sequence
// leaves that field absent. The date comes from the MaxT entry only;
// the upstream feed dates all three elements identically.
func Extract(p *Payload, name string) (Forecast, bool) {
	for _, loc := range p.locations() {
		if loc.Name != name {
			continue
		}

		f := Forecast{
			Location: name,
			Date:     noValue,
			Weather:  noValue,
		}

		if daily := loc.Elements.MaxT.Daily; len(daily) > 0 {
			f.MaxTemp = ParseTemperature(daily[0].Temperature)
			if daily[0].DataDate != "" {
				f.Date = daily[0].DataDate
			}
		}
		if daily := loc.Elements.MinT.Daily; len(daily) > 0 {
			f.MinTemp = ParseTemperature(daily[0].Temperature)
		}
		if daily := loc.Elements.Wx.Daily; len(daily) > 0 && daily[0].Weather != "" {
			f.Weather = daily[0].Weather
		}

		return f, true
	}
	return Forecast{}, false
}

// ParseTemperature parses the feed's temperature text. The feed uses
// "-" for missing values; empty or otherwise non-numeric text is also
// treated as missing rather than an error.
func ParseTemperature(s string) *float64 {
	if s == "" || s == noValue {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
