// Package catalog implements the client for the external music catalog
// service. It owns the process-wide access token cache and the read
// operations the rest of the application builds screens from: search,
// artist detail lookups, new releases and the fan-out aggregates that
// combine results from several seed artists.
//
// Response payloads are decoded into the explicit types below at the HTTP
// boundary. Fields the upstream service may omit (artist follower counts,
// track preview URLs) are modelled as pointers so consuming code has to
// handle the absent case.

package catalog

import "fmt"

// Image is a single artwork rendition. The upstream service returns
// several sizes per entity ordered largest first.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// ExternalURL holds the public web link for an entity.
type ExternalURL struct {
	Spotify string `json:"spotify"`
}

// ArtistRef is the partial artist embedded in album and track payloads.
type ArtistRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Artist is a full artist object as returned by the artist detail and
// artist search endpoints. Followers and Popularity are omitted by some
// endpoints so they are optional.
type Artist struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Images       []Image     `json:"images"`
	Genres       []string    `json:"genres"`
	Followers    *Followers  `json:"followers"`
	Popularity   *int        `json:"popularity"`
	ExternalURLs ExternalURL `json:"external_urls"`
}

// Followers wraps the follower count of an artist.
type Followers struct {
	Total int `json:"total"`
}

// Album is an album object. ReleaseDate is the upstream date string,
// which may be a full date ("2024-01-26"), a year-month or a bare year;
// it sorts correctly as a string within each precision so the aggregate
// operations compare it lexicographically.
type Album struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Artists      []ArtistRef `json:"artists"`
	Images       []Image     `json:"images"`
	ReleaseDate  string      `json:"release_date"`
	TotalTracks  int         `json:"total_tracks"`
	AlbumType    string      `json:"album_type"`
	ExternalURLs ExternalURL `json:"external_urls"`
}

// TrackAlbum is the partial album embedded in track payloads.
type TrackAlbum struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Images []Image `json:"images"`
}

// Track is a track object from search, top-track and recommendation
// endpoints. PreviewURL is frequently null upstream.
type Track struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Artists      []ArtistRef `json:"artists"`
	Album        TrackAlbum  `json:"album"`
	DurationMs   int         `json:"duration_ms"`
	Popularity   int         `json:"popularity"`
	PreviewURL   *string     `json:"preview_url"`
	ExternalURLs ExternalURL `json:"external_urls"`
}

// SearchKind selects the entity type of a catalog search.
type SearchKind string

const (
	KindTrack  SearchKind = "track"
	KindAlbum  SearchKind = "album"
	KindArtist SearchKind = "artist"
)

// Valid reports whether the kind is one the search endpoint accepts.
func (k SearchKind) Valid() bool {
	switch k {
	case KindTrack, KindAlbum, KindArtist:
		return true
	}
	return false
}

// SearchResult carries the results of a Search call. Only the slice
// matching the requested kind is populated.
type SearchResult struct {
	Tracks  []Track
	Albums  []Album
	Artists []Artist
}

// validateArtist rejects artist payloads missing identity fields so
// malformed upstream responses surface as errors at the boundary rather
// than as zero values deep in the application.
func validateArtist(a Artist) error {
	if a.ID == "" || a.Name == "" {
		return fmt.Errorf("artist missing id or name")
	}
	return nil
}

func validateAlbum(a Album) error {
	if a.ID == "" || a.Name == "" {
		return fmt.Errorf("album missing id or name")
	}
	return nil
}

func validateTrack(t Track) error {
	if t.ID == "" || t.Name == "" {
		return fmt.Errorf("track missing id or name")
	}
	return nil
}

// validateArtists, validateAlbums and validateTracks apply the identity
// checks to every element of a decoded list payload.
func validateArtists(as []Artist) error {
	for _, a := range as {
		if err := validateArtist(a); err != nil {
			return err
		}
	}
	return nil
}

func validateAlbums(as []Album) error {
	for _, a := range as {
		if err := validateAlbum(a); err != nil {
			return err
		}
	}
	return nil
}

func validateTracks(ts []Track) error {
	for _, t := range ts {
		if err := validateTrack(t); err != nil {
			return err
		}
	}
	return nil
}

// BestImage returns the URL of the largest image in the slice, or the
// empty string when no artwork is available.
func BestImage(images []Image) string {
	best := ""
	bestW := -1
	for _, img := range images {
		if img.Width > bestW {
			best = img.URL
			bestW = img.Width
		}
	}
	return best
}
