// Fan-out and fallback operations built on the single-call client.
// These assemble composite results from several seed artists or genres
// and apply the degrade-gracefully policy: a personalization read never
// returns a hard error, only a less personalized (possibly empty)
// result. An individual failing branch contributes an empty slice; the
// join itself never fails because of one branch.

package catalog

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"sync"
)

const (
	// maxAlbumSeeds caps the per-artist album fan-out.
	maxAlbumSeeds = 5
	// maxTopTrackSeeds caps the per-artist top-track fan-out.
	maxTopTrackSeeds = 3
	// maxRecommendationSeeds is the upstream limit on seed entities.
	maxRecommendationSeeds = 5
)

// genreSeeds maps colloquial genre names to the seed identifiers the
// recommendation endpoint accepts. Unknown names fall through to a
// lowercased, hyphenated form of the input.
var genreSeeds = map[string]string{
	"rock":        "rock",
	"pop":         "pop",
	"hip-hop":     "hip-hop",
	"hip hop":     "hip-hop",
	"rap":         "hip-hop",
	"jazz":        "jazz",
	"classical":   "classical",
	"electronic":  "electronic",
	"edm":         "edm",
	"dance":       "dance",
	"country":     "country",
	"r&b":         "r-n-b",
	"rnb":         "r-n-b",
	"indie":       "indie",
	"alternative": "alt-rock",
	"metal":       "metal",
	"folk":        "folk",
	"blues":       "blues",
	"reggae":      "reggae",
	"latin":       "latin",
	"soul":        "soul",
	"funk":        "funk",
	"punk":        "punk",
	"k-pop":       "k-pop",
	"kpop":        "k-pop",
}

// seedGenre normalizes a user-facing genre name into a seed identifier.
func seedGenre(genre string) string {
	g := strings.ToLower(strings.TrimSpace(genre))
	if seed, ok := genreSeeds[g]; ok {
		return seed
	}
	return strings.ReplaceAll(g, " ", "-")
}

// ArtistAlbumsFromList fetches albums for up to five seed artists in
// parallel and merges them into one list: deduplicated by album ID
// (first occurrence wins) and sorted by release date descending. A
// failing branch contributes nothing rather than failing the whole
// operation.
func (c *Client) ArtistAlbumsFromList(ctx context.Context, artistIDs []string, limitPerArtist int) []Album {
	if len(artistIDs) > maxAlbumSeeds {
		artistIDs = artistIDs[:maxAlbumSeeds]
	}
	if len(artistIDs) == 0 {
		return nil
	}

	// One slot per seed keeps merge order deterministic regardless of
	// which branch finishes first.
	results := make([][]Album, len(artistIDs))
	var wg sync.WaitGroup
	for i, id := range artistIDs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			albums, err := c.ArtistAlbums(ctx, id, limitPerArtist)
			if err != nil {
				c.degrade("artist_albums_fanout", err)
				return
			}
			results[i] = albums
		}(i, id)
	}
	wg.Wait()

	seen := make(map[string]struct{})
	var merged []Album
	for _, albums := range results {
		for _, a := range albums {
			if _, ok := seen[a.ID]; ok {
				continue
			}
			seen[a.ID] = struct{}{}
			merged = append(merged, a)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].ReleaseDate > merged[j].ReleaseDate
	})
	return merged
}

// ArtistTopTracksFanout fetches top tracks for the first three seed
// artists in parallel and concatenates the results in seed order.
// Individual failures are swallowed to empty; no dedup or resort is
// applied.
func (c *Client) ArtistTopTracksFanout(ctx context.Context, artistIDs []string, perArtist int) []Track {
	if len(artistIDs) > maxTopTrackSeeds {
		artistIDs = artistIDs[:maxTopTrackSeeds]
	}
	if len(artistIDs) == 0 {
		return nil
	}

	results := make([][]Track, len(artistIDs))
	var wg sync.WaitGroup
	for i, id := range artistIDs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			tracks, err := c.ArtistTopTracks(ctx, id, perArtist)
			if err != nil {
				c.degrade("artist_top_tracks_fanout", err)
				return
			}
			results[i] = tracks
		}(i, id)
	}
	wg.Wait()

	var merged []Track
	for _, tracks := range results {
		merged = append(merged, tracks...)
	}
	return merged
}

// RecommendationsByArtists returns tracks recommended from up to five
// seed artists, falling back to the generic top-tracks list when the
// recommendation call fails or comes back empty.
func (c *Client) RecommendationsByArtists(ctx context.Context, artistIDs []string, limit int) []Track {
	if len(artistIDs) == 0 {
		return c.TopTracks(ctx, limit)
	}
	if len(artistIDs) > maxRecommendationSeeds {
		artistIDs = artistIDs[:maxRecommendationSeeds]
	}
	seeds := url.Values{"seed_artists": {strings.Join(artistIDs, ",")}}
	tracks, err := c.recommend(ctx, seeds, limit)
	if err != nil {
		c.degrade("recommendations_by_artists", err)
	}
	if len(tracks) > 0 {
		return tracks
	}
	return c.TopTracks(ctx, limit)
}

// RecommendationsByGenre returns tracks for one genre with a three-tier
// fallback: recommendation call, then a genre-scoped search, then the
// generic top-tracks list.
func (c *Client) RecommendationsByGenre(ctx context.Context, genre string, limit int) []Track {
	seeds := url.Values{"seed_genres": {seedGenre(genre)}}
	tracks, err := c.recommend(ctx, seeds, limit)
	if err != nil {
		c.degrade("recommendations_by_genre", err)
	}
	if len(tracks) > 0 {
		return tracks
	}
	res := c.Search(ctx, `genre:"`+genre+`"`, KindTrack, limit)
	if len(res.Tracks) > 0 {
		return res.Tracks
	}
	return c.TopTracks(ctx, limit)
}

// RecommendationsByGenres seeds a recommendation call with up to five
// genres, falling back to the single-genre chain for the first genre.
func (c *Client) RecommendationsByGenres(ctx context.Context, genres []string, limit int) []Track {
	if len(genres) == 0 {
		return c.TopTracks(ctx, limit)
	}
	seedList := genres
	if len(seedList) > maxRecommendationSeeds {
		seedList = seedList[:maxRecommendationSeeds]
	}
	normalized := make([]string, len(seedList))
	for i, g := range seedList {
		normalized[i] = seedGenre(g)
	}
	seeds := url.Values{"seed_genres": {strings.Join(normalized, ",")}}
	tracks, err := c.recommend(ctx, seeds, limit)
	if err != nil {
		c.degrade("recommendations_by_genres", err)
	}
	if len(tracks) > 0 {
		return tracks
	}
	return c.RecommendationsByGenre(ctx, genres[0], limit)
}
