// Package pattern derives the search keyword and the matching regular
// expression for a target domain.
//
// Two modes are supported. Standard mode searches for the full domain and
// matches it with an optional subdomain prefix. Extended mode searches for
// the registrable name alone and matches any host that contains it followed
// by a short trailing label, which finds sibling domains such as
// "example-cdn.net" at the cost of precision.
package pattern

import (
	"errors"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrInvalidDomain is returned by Build when the domain has no registrable
// name to search for.
var ErrInvalidDomain = errors.New("invalid domain: expected at least two labels (e.g. example.com)")

// hostClass is the character class of a host name, matched case-insensitively.
const hostClass = `[0-9a-z\-\.]`

// Pattern is the keyword and compiled expression for one target domain.
// It is immutable and safe for concurrent use.
type Pattern struct {
	keyword  string
	re       *regexp.Regexp
	extended bool
}

// Split splits domain into its subdomain prefix, registrable name and
// top-level label at the two rightmost label boundaries. The input is
// trimmed, lowercased and stripped of leading and trailing dots first.
//
// A domain with fewer than two labels has no registrable name: Split
// returns empty sub and registrable, and the whole input as tld.
func Split(domain string) (sub, registrable, tld string) {
	host := strings.Trim(strings.ToLower(strings.TrimSpace(domain)), ".")
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return "", "", host
	}

	n := len(labels)
	return strings.Join(labels[:n-2], "."), labels[n-2], labels[n-1]
}

// Join is the inverse of Split for domains with at least two labels.
func Join(sub, registrable, tld string) string {
	if sub == "" {
		return registrable + "." + tld
	}
	return sub + "." + registrable + "." + tld
}

// Build derives the Pattern for domain.
func Build(domain string, extended bool) (*Pattern, error) {
	sub, registrable, tld := Split(domain)
	if registrable == "" || tld == "" {
		return nil, ErrInvalidDomain
	}

	if extended {
		expr := `(?i)` + hostClass + `*` + regexp.QuoteMeta(registrable) + hostClass + `*\.[a-z]{1,5}`
		return &Pattern{
			keyword:  registrable,
			re:       regexp.MustCompile(expr),
			extended: true,
		}, nil
	}

	keyword := Join(sub, registrable, tld)
	expr := `(?i)(` + hostClass + `+\.)?` + regexp.QuoteMeta(keyword)
	return &Pattern{
		keyword: keyword,
		re:      regexp.MustCompile(expr),
	}, nil
}

// Keyword returns the string used to build search queries.
func (p *Pattern) Keyword() string {
	return p.keyword
}

// Extended reports whether the pattern was built in extended mode.
func (p *Pattern) Extended() bool {
	return p.extended
}

// FindAll returns every normalized match in text, in order of appearance.
// The same domain may appear more than once.
//
// A match must start at a label boundary: the preceding byte may not be a
// letter, digit or hyphen. RE2 has no lookbehind, so the check runs after
// matching. In standard mode a match must also end at a host boundary, which
// stops "example.community" from yielding "example.com". Extended mode skips
// the trailing check; its over-matching is accepted.
//
// Leading dots are dropped so that cookie-style ".example.com" yields
// "example.com".
func (p *Pattern) FindAll(text string) []string {
	var out []string
	for _, loc := range p.re.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		if start > 0 && isLabelByte(text[start-1]) {
			continue
		}
		if !p.extended && !endsAtBoundary(text, end) {
			continue
		}
		if d := Normalize(strings.TrimLeft(text[start:end], ".")); d != "" {
			out = append(out, d)
		}
	}
	return out
}

// Normalize lowercases d and strips trailing dots. It is idempotent.
func Normalize(d string) string {
	return strings.TrimRight(cases.Lower(language.Und).String(d), ".")
}

// endsAtBoundary reports whether a match ending at end is not followed by
// more host name: a label character, or a dot that starts another label.
func endsAtBoundary(text string, end int) bool {
	if end >= len(text) {
		return true
	}
	next := text[end]
	if next == '.' {
		return end+1 >= len(text) || !isLabelByte(text[end+1])
	}
	return !isLabelByte(next)
}

func isLabelByte(b byte) bool {
	return ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') || ('0' <= b && b <= '9') || b == '-'
}
