// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from arbitrary strings.
package slug

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLen caps generated slugs; longer results are cut at a hyphen.
const MaxLen = 200

// separators matches every run of characters that is not an ASCII
// letter or digit.
var separators = regexp.MustCompile(`[^a-z0-9]+`)

// Generate creates a URL-friendly slug from the given string.
// Example: "Crème Brûlée, 2026!" → "creme-brulee-2026", "Привет мир" → "privet-mir"
func Generate(s string) string {
	result := strings.ToLower(fold(s))
	result = separators.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")
	if len(result) > MaxLen {
		result = result[:MaxLen]
		if i := strings.LastIndexByte(result, '-'); i > 0 {
			result = result[:i]
		}
		result = strings.Trim(result, "-")
	}
	return result
}

// WithTimestamp appends the Unix second of t to base. Used to disambiguate
// post slugs that collide with an existing one.
func WithTimestamp(base string, t time.Time) string {
	return fmt.Sprintf("%s-%d", base, t.Unix())
}

// fold transliterates s to ASCII. Compatibility forms and combining marks
// are folded first, then every remaining script is romanized.
func fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(t, s); err == nil {
		s = out
	}
	return unidecode.Unidecode(s)
}
