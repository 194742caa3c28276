// internal/domain/search/request.go
package search

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DateLayout is the arrival date format the reservation site expects (mm/dd/yyyy).
const DateLayout = "01/02/2006"

// Request is a single (park, arrival date, stay length) search loaded from the input file.
type Request struct {
	Park        string
	ArrivalDate string // mm/dd/yyyy, passed to the site verbatim
	StayNights  int
}

// NormalizePark capitalizes every whitespace-delimited token of a park name
// ("bahia honda" -> "Bahia Honda"). The first letter of each token is upper-cased
// and the rest lower-cased; tokens are joined with a single space.
func NormalizePark(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

func capitalize(word string) string {
	r, size := utf8.DecodeRuneInString(word)
	if r == utf8.RuneError {
		return word
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(word[size:])
}
