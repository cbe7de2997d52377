// Package slug derives the URL identifiers used to address categories and posts.
package slug

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	gosimple "github.com/gosimple/slug"
)

// Reserved is the category slug that would shadow the "create category" route.
const Reserved = "new"

// SuffixLength is the number of random characters appended to post slugs.
const SuffixLength = 8

var (
	ErrReserved = errors.New("slug: reserved name")
	ErrEmpty    = errors.New("slug: name has no letters or numbers")
)

// newSuffix is swapped in tests.
var newSuffix = func() string {
	return uuid.NewString()[:SuffixLength]
}

// Make lowercases name and collapses whitespace and punctuation into single dashes.
func Make(name string) string {
	return gosimple.Make(strings.TrimSpace(name))
}

// Category returns the slug for a category name. Uniqueness against existing
// categories is the caller's job; this only rejects names that can never be valid.
func Category(name string) (string, error) {
	s := Make(name)
	switch {
	case s == "":
		return "", ErrEmpty
	case s == Reserved || strings.EqualFold(strings.TrimSpace(name), Reserved):
		return "", ErrReserved
	}
	return s, nil
}

// Post returns a slug for a post title. Titles need not be unique, so a random
// suffix is appended before slugifying; collisions are not checked.
// A title with nothing sluggable yields the suffix alone.
func Post(title string) string {
	return Make(title + "-" + newSuffix())
}
