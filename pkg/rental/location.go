package rental

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Location is a pickup/dropoff point
type Location struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var locationCodes = []string{
	"heraklion-airport",
	"heraklion-port",
	"heraklion-center",
	"hersonissos",
	"malia",
	"agia-marina",
	"chania-airport",
	"chania-port",
	"rethymno",
	"agios-nikolaos",
}

// Locations returns the known pickup/dropoff points
func Locations() []Location {
	locations := make([]Location, 0, len(locationCodes))
	for _, code := range locationCodes {
		locations = append(locations, Location{Code: code, Name: FormatLocationName(code)})
	}
	return locations
}

// NormalizeLocationCode lowercases a code and joins words with dashes
func NormalizeLocationCode(code string) string {
	return strings.Join(strings.Fields(strings.ToLower(code)), "-")
}

// FormatLocationName turns a location code into a display name.
// Each dash-separated word is capitalized and the rest lowercased:
// "agia-marina" -> "Agia-Marina", "HERSONISSOS" -> "Hersonissos".
func FormatLocationName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}

	parts := strings.Split(code, "-")
	for i, part := range parts {
		parts[i] = capitalize(part)
	}
	return strings.Join(parts, "-")
}

func capitalize(word string) string {
	if word == "" {
		return word
	}
	lower := strings.ToLower(word)
	r, size := utf8.DecodeRuneInString(lower)
	return string(unicode.ToUpper(r)) + lower[size:]
}
