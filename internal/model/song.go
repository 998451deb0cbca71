// Package model holds the data types shared across the daemon: songs,
// player snapshots, events, cover art and favourites.
package model

import "strings"

// Song describes a single piece of media as reported by a controller.
// Identity is value-based: two songs are equal when Artist, Title, Album
// and URI all compare equal, StreamURL standing in for an empty URI.
type Song struct {
	Artist   string   `json:"artist"`
	Title    string   `json:"title"`
	Album    string   `json:"album,omitempty"`
	Duration *float64 `json:"duration,omitempty"`
	StreamURL string  `json:"stream_url,omitempty"`
	URI      string   `json:"uri,omitempty"`
	CoverURL string   `json:"cover_url,omitempty"`

	SampleRate *int    `json:"sample_rate,omitempty"`
	BitDepth   *int    `json:"bit_depth,omitempty"`
	TrackNo    *int    `json:"track_no,omitempty"`
	Genre      string  `json:"genre,omitempty"`
	Date       string  `json:"date,omitempty"`
	File       string  `json:"file,omitempty"`
}

// Equal reports whether s and other identify the same song.
func (s Song) Equal(other Song) bool {
	return s.Artist == other.Artist &&
		s.Title == other.Title &&
		s.Album == other.Album &&
		s.identityURI() == other.identityURI()
}

func (s Song) identityURI() string {
	if s.URI != "" {
		return s.URI
	}
	return s.StreamURL
}

// IsZero reports whether s carries no identifying information at all.
func (s Song) IsZero() bool {
	return strings.TrimSpace(s.Artist) == "" && strings.TrimSpace(s.Title) == "" &&
		strings.TrimSpace(s.Album) == "" && s.identityURI() == ""
}
