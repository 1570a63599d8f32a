package record

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	maxSlugLength = 80
	untitled      = "untitled"
	ext           = ".md"
)

var (
	slugInvalid    = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugWhitespace = regexp.MustCompile(`\s+`)
	slugDashes     = regexp.MustCompile(`-+`)
)

// Slug derives a filesystem-safe identifier from a title. It may return
// "" when the title has no usable characters.
func Slug(title string) string {
	s := strings.ToLower(title)
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugWhitespace.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugLength {
		s = strings.TrimRight(s[:maxSlugLength], "-")
	}
	return s
}

// GenerateID returns the slug of title, suffixed with -2, -3, … until no
// record with that id exists in dir.
func GenerateID(title, dir string) (string, error) {
	base := Slug(title)
	if base == "" {
		base = untitled
	}
	candidate := base
	for n := 2; ; n++ {
		_, err := os.Stat(Path(dir, candidate))
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("check %s: %w", candidate, err)
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}

// Path is the location of the record with the given id.
func Path(dir, id string) string {
	return filepath.Join(dir, id+ext)
}
