package downloader

import "time"

// MarkerLayout is the fixed-width UTC layout of freshness markers.
const MarkerLayout = "2006-01-02-15-04-05"

// FormatMarker renders t as a freshness marker. Equal instants always give
// equal markers regardless of the time zone t carries.
func FormatMarker(t time.Time) string {
	return t.UTC().Format(MarkerLayout)
}

func ParseMarker(s string) (time.Time, error) {
	return time.ParseInLocation(MarkerLayout, s, time.UTC)
}
