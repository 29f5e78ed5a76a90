package location

import (
	"strconv"
	"strings"
	"time"
)

// Point is a decimal GPS coordinate pair.
type Point struct {
	Latitude  float64
	Longitude float64
}

// FromEXIF builds a point from the four standard EXIF GPS fields. Any
// missing or unparseable field yields ok=false.
func FromEXIF(lat, latRef, lon, lonRef string) (Point, bool) {
	if lat == "" || latRef == "" || lon == "" || lonRef == "" {
		return Point{}, false
	}

	latVal, ok := ParseCoordinate(lat)
	if !ok {
		return Point{}, false
	}
	lonVal, ok := ParseCoordinate(lon)
	if !ok {
		return Point{}, false
	}

	if latRef == "S" || latRef == "South" {
		latVal = -latVal
	}
	if lonRef == "W" || lonRef == "West" {
		lonVal = -lonVal
	}
	return Point{Latitude: latVal, Longitude: lonVal}, true
}

// ParseCoordinate accepts the coordinate shapes exiftool emits: decimal
// degrees ("37.7749"), degrees + decimal minutes ("37 46.44"), and full DMS
// with or without unit marks (`37 deg 46' 26.40" N`).
func ParseCoordinate(s string) (float64, bool) {
	cleaned := strings.ReplaceAll(s, "deg", "")
	cleaned = strings.ReplaceAll(cleaned, "'", " ")
	cleaned = strings.ReplaceAll(cleaned, `"`, " ")

	var parts []string
	for _, p := range strings.Fields(cleaned) {
		switch strings.ToUpper(p) {
		case "N", "S", "E", "W":
			continue
		}
		parts = append(parts, p)
	}

	parse := func(s string) (float64, bool) {
		v, err := strconv.ParseFloat(s, 64)
		return v, err == nil
	}

	switch len(parts) {
	case 1:
		return parse(parts[0])
	case 2:
		deg, ok1 := parse(parts[0])
		min, ok2 := parse(parts[1])
		if !ok1 || !ok2 {
			return 0, false
		}
		return deg + min/60, true
	case 3:
		deg, ok1 := parse(parts[0])
		min, ok2 := parse(parts[1])
		sec, ok3 := parse(parts[2])
		if !ok1 || !ok2 || !ok3 {
			return 0, false
		}
		return deg + min/60 + sec/3600, true
	}
	return 0, false
}

// Format renders a point as a filename-safe coordinate string, the fallback
// used when reverse geocoding is off or fails: "37.77N_122.42W".
func (p Point) Format() string {
	latDir := "N"
	lat := p.Latitude
	if lat < 0 {
		latDir = "S"
		lat = -lat
	}
	lonDir := "E"
	lon := p.Longitude
	if lon < 0 {
		lonDir = "W"
		lon = -lon
	}
	return strconv.FormatFloat(lat, 'f', 2, 64) + latDir + "_" +
		strconv.FormatFloat(lon, 'f', 2, 64) + lonDir
}

// timestampLayouts are the EXIF datetime shapes seen in the wild, tried in
// order.
var timestampLayouts = []string{
	"2006:01:02 15:04:05",
	"2006-01-02 15:04:05",
	"20060102_150405",
	"2006:01:02",
	"2006-01-02",
	"20060102",
}

// FormatTimestamp normalizes an EXIF datetime string to YYYY-MM-DD for use
// as a filename suffix.
func FormatTimestamp(s string) (string, bool) {
	t, ok := parseTimestamp(s)
	if !ok {
		return "", false
	}
	return t.Format("2006-01-02"), true
}

// TimeOfDay buckets a timestamp's hour into morning/afternoon/evening/night.
// Date-only values carry no hour and return ok=false.
func TimeOfDay(s string) (string, bool) {
	if len(strings.TrimSpace(s)) <= len("2006-01-02") {
		return "", false
	}
	t, ok := parseTimestamp(s)
	if !ok {
		return "", false
	}
	switch h := t.Hour(); {
	case h >= 5 && h <= 11:
		return "morning", true
	case h >= 12 && h <= 17:
		return "afternoon", true
	case h >= 18 && h <= 21:
		return "evening", true
	default:
		return "night", true
	}
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
