package model

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// FavouriteKey is the normalized (artist, title) pair used to identify a
// favourite across providers. Normalization is case-insensitive,
// Unicode-NFC, and trims leading/trailing whitespace (spec.md §3).
type FavouriteKey struct {
	Artist string
	Title  string
}

// NewFavouriteKey normalizes artist/title into a FavouriteKey.
func NewFavouriteKey(artist, title string) FavouriteKey {
	return FavouriteKey{
		Artist: normalizeFavouriteField(artist),
		Title:  normalizeFavouriteField(title),
	}
}

func normalizeFavouriteField(s string) string {
	s = strings.TrimSpace(s)
	s = norm.NFC.String(s)
	return strings.ToLower(s)
}

// Empty reports whether either half of the key is empty after
// normalization — callers must reject these with InvalidArgument.
func (k FavouriteKey) Empty() bool {
	return k.Artist == "" || k.Title == ""
}

// String renders a stable cache/storage key for the pair.
func (k FavouriteKey) String() string {
	return k.Artist + "\x1f" + k.Title
}
