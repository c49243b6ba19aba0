package urlutil

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var slugSegment = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Slug returns the last path segment of rawURL made only of letters,
// digits, "-" and "_". Accented letters are folded to ASCII first, so
// "/blog/café-au-lait" yields "cafe-au-lait". It returns "" when no segment
// qualifies.
func Slug(rawURL string) string {
	segs := segments(rawURL)
	for i := len(segs) - 1; i >= 0; i-- {
		if slugSegment.MatchString(segs[i]) {
			return segs[i]
		}
	}
	return ""
}

// Categories returns the clean path segments that precede the slug.
func Categories(rawURL string) []string {
	segs := segments(rawURL)
	slug := Slug(rawURL)

	var out []string
	for _, s := range segs {
		if s == slug {
			break
		}
		if slugSegment.MatchString(s) {
			out = append(out, s)
		}
	}
	return out
}

func segments(rawURL string) []string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}

	var out []string
	for _, s := range strings.Split(u.Path, "/") {
		if s == "" {
			continue
		}
		out = append(out, fold(s))
	}
	return out
}

// fold strips combining marks: NFD, drop Mn, NFC.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}
