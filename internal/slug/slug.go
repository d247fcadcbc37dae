// Package slug derives URL slugs, reading time and excerpts from post content.
package slug

import (
	"context"
	"fmt"
	"html"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/blog-engagement-engine/internal/apperror"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	fallbackSlug = "post"
	ellipsis     = "..."
)

var (
	tagRegex = regexp.MustCompile(`<[^>]*>`)

	// Letters that NFD does not decompose into an ASCII base
	letterReplacer = strings.NewReplacer(
		"ß", "ss", "æ", "ae", "œ", "oe", "ø", "o", "ł", "l",
		"đ", "d", "ð", "d", "þ", "th", "ı", "i", "ŀ", "l",
	)
)

// Options are the derivation constants
type Options struct {
	MaxLength      int
	MaxSuffix      int
	WordsPerMinute int
	ExcerptLength  int
}

// DefaultOptions mirror the configuration defaults
func DefaultOptions() Options {
	return Options{MaxLength: 250, MaxSuffix: 100, WordsPerMinute: 200, ExcerptLength: 297}
}

// ExistsFunc reports whether a slug is already taken
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// Metadata is everything derived from a post's title and body
type Metadata struct {
	Slug        string
	Excerpt     string
	ExcerptAuto bool
	ReadingTime int
}

// Deriver computes derived post metadata. It is stateless and safe for concurrent use.
type Deriver struct {
	opts Options
}

// New creates a Deriver
func New(opts Options) *Deriver {
	return &Deriver{opts: opts}
}

// Derive validates title and body and returns the derived metadata.
// excerpt, when non-blank, is kept as given.
func (d *Deriver) Derive(ctx context.Context, title, body, excerpt string, exists ExistsFunc) (Metadata, error) {
	if strings.TrimSpace(title) == "" {
		return Metadata{}, apperror.Validation("title", "title is required")
	}
	if strings.TrimSpace(body) == "" {
		return Metadata{}, apperror.Validation("body", "body is required")
	}

	s, err := d.Unique(ctx, title, exists)
	if err != nil {
		return Metadata{}, err
	}

	meta := Metadata{Slug: s, ReadingTime: d.ReadingTime(body)}
	if strings.TrimSpace(excerpt) != "" {
		meta.Excerpt = strings.TrimSpace(excerpt)
	} else {
		meta.Excerpt = d.Excerpt(body)
		meta.ExcerptAuto = true
	}
	return meta, nil
}

// Slugify lowercases title, transliterates it to ASCII and joins the
// alphanumeric runs with single hyphens, bounded to MaxLength.
func (d *Deriver) Slugify(title string) string {
	s := letterReplacer.Replace(strings.ToLower(title))

	// Chained transformers keep state, so build one per call
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(t, s); err == nil {
		s = out
	}

	var b strings.Builder
	b.Grow(len(s))
	pendingSep := false
	for _, r := range s {
		if isSlugRune(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}

	out := truncate(b.String(), d.opts.MaxLength)
	if out == "" {
		return fallbackSlug
	}
	return out
}

// Unique returns the slug for title, or the first of slug-2, slug-3, ...
// that exists reports as free. Past MaxSuffix it fails with a conflict.
func (d *Deriver) Unique(ctx context.Context, title string, exists ExistsFunc) (string, error) {
	base := d.Slugify(title)
	for n := 1; n <= d.opts.MaxSuffix; n++ {
		candidate := base
		if n > 1 {
			candidate = d.withSuffix(base, n)
		}
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", apperror.Conflict(fmt.Sprintf("no free slug for %q after %d attempts", base, d.opts.MaxSuffix), nil)
}

// ReadingTime is ceil(words / WordsPerMinute), at least one minute
func (d *Deriver) ReadingTime(body string) int {
	words := len(strings.Fields(PlainText(body)))
	minutes := int(math.Ceil(float64(words) / float64(d.opts.WordsPerMinute)))
	if minutes < 1 {
		return 1
	}
	return minutes
}

// Excerpt is the first ExcerptLength characters of the plain-text body,
// cut back to a word boundary and marked with an ellipsis when truncated.
func (d *Deriver) Excerpt(body string) string {
	text := strings.Join(strings.Fields(PlainText(body)), " ")
	if utf8.RuneCountInString(text) <= d.opts.ExcerptLength {
		return text
	}

	chars := []rune(text)
	out := string(chars[:d.opts.ExcerptLength])
	// A space right after the cut means the cut already ends a word
	if chars[d.opts.ExcerptLength] != ' ' {
		if i := strings.LastIndexByte(out, ' '); i > 0 {
			out = out[:i]
		}
	}
	out = strings.TrimRightFunc(out, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
	return out + ellipsis
}

// PlainText strips markup and entities from body
func PlainText(body string) string {
	return html.UnescapeString(tagRegex.ReplaceAllString(body, " "))
}

// NormalizeTags lowercases, trims and de-duplicates tags, dropping blanks.
// The result is sorted.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (d *Deriver) withSuffix(base string, n int) string {
	suffix := "-" + strconv.Itoa(n)
	trimmed := truncate(base, d.opts.MaxLength-len(suffix))
	if trimmed == "" {
		trimmed = fallbackSlug
	}
	return trimmed + suffix
}

func isSlugRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

// truncate cuts an ASCII slug to max bytes without a trailing separator
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) > max {
		s = s[:max]
	}
	return strings.TrimRight(s, "-")
}
