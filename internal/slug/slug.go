// Package slug derives and validates the URL tokens that identify notes.
package slug

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// MaxLength is the longest slug the schema accepts.
const MaxLength = 100

// Warning is appended to the colliding slug when reporting a duplicate,
// matching the wording shown on the note form.
const Warning = " - такой slug уже существует, придумайте уникальное значение!"

// DuplicateError reports a slug that is already taken by another note.
type DuplicateError struct {
	Slug string
}

func (e *DuplicateError) Error() string {
	return e.Slug + Warning
}

// Checker reports whether a slug is already in use by a note other than
// the one identified by exceptID. Pass uuid.Nil when creating.
type Checker interface {
	ExistsSlugExcept(slug string, exceptID uuid.UUID) (bool, error)
}

// translit maps Cyrillic letters to their ASCII transliterations.
// Hard and soft signs are dropped.
var translit = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d",
	'е': "e", 'ё': "e", 'ж': "zh", 'з': "z", 'и': "i",
	'й': "j", 'к': "k", 'л': "l", 'м': "m", 'н': "n",
	'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t",
	'у': "u", 'ф': "f", 'х': "h", 'ц': "c", 'ч': "ch",
	'ш': "sh", 'щ': "sch", 'ъ': "", 'ы': "y", 'ь': "",
	'э': "e", 'ю': "ju", 'я': "ja",
}

// Slugify turns a title into a lowercase URL-safe token: Cyrillic letters
// are transliterated, runs of anything else collapse to a single hyphen,
// and the result is capped at MaxLength.
func Slugify(title string) string {
	title = strings.ToLower(title)
	var b strings.Builder
	lastDash := false
	for _, r := range title {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if t, ok := translit[r]; ok {
			b.WriteString(t)
			if t != "" {
				lastDash = false
			}
			continue
		}
		if !lastDash {
			b.WriteRune('-')
			lastDash = true
		}
	}
	s := strings.Trim(b.String(), "-")
	if s == "" {
		s = "note"
	}
	if len(s) > MaxLength {
		s = strings.TrimRight(s[:MaxLength], "-")
	}
	return s
}

// Valid reports whether s is a well-formed explicit slug: non-empty, at
// most MaxLength bytes, and made of latin letters, digits, hyphens and
// underscores only. Anything else would not survive a round trip through
// a /notes/{slug}/ URL.
func Valid(s string) bool {
	if s == "" || len(s) > MaxLength {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}

// Unique validates a candidate slug against the existing set, ignoring the
// note identified by exceptID. A collision is reported as *DuplicateError.
func Unique(c Checker, candidate string, exceptID uuid.UUID) error {
	taken, err := c.ExistsSlugExcept(candidate, exceptID)
	if err != nil {
		return fmt.Errorf("check slug: %w", err)
	}
	if taken {
		return &DuplicateError{Slug: candidate}
	}
	return nil
}

// Derive slugifies the title and, if the result is taken, appends a numeric
// suffix until the slug is free. The note identified by exceptID is ignored
// so an update can keep its own slug.
func Derive(c Checker, title string, exceptID uuid.UUID) (string, error) {
	base := Slugify(title)
	candidate := base
	for n := 2; ; n++ {
		taken, err := c.ExistsSlugExcept(candidate, exceptID)
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if !taken {
			return candidate, nil
		}
		suffix := fmt.Sprintf("-%d", n)
		trimmed := base
		if len(trimmed)+len(suffix) > MaxLength {
			trimmed = strings.TrimRight(trimmed[:MaxLength-len(suffix)], "-")
		}
		candidate = trimmed + suffix
	}
}
