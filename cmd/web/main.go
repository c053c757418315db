// Command web initializes the TuneCircle application and starts the
// HTTP server. Configuration is provided via environment variables for
// catalog API credentials, the cookie signing key and the database
// location. The server serves a JSON API plus Prometheus metrics.

package main

import (
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"TuneCircle/pkg/catalog"
	"TuneCircle/pkg/db"
	"TuneCircle/pkg/handlers"
)

// main configures application dependencies and starts the HTTP server.
func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	// Catalog credentials are required: without them the application
	// cannot talk to the catalog service, so exit early.
	clientID := os.Getenv("CATALOG_CLIENT_ID")
	clientSecret := os.Getenv("CATALOG_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		log.Fatal("CATALOG_CLIENT_ID and CATALOG_CLIENT_SECRET must be set")
	}
	signingKey := os.Getenv("SIGNING_KEY")
	if signingKey == "" {
		log.Fatal("SIGNING_KEY must be set")
	}
	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":4000"
	}
	// DATABASE_PATH allows the SQLite file to be customised. It defaults
	// to a file named tunecircle.db in the working directory.
	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "tunecircle.db"
	}

	database, err := db.New(dbPath)
	if err != nil {
		log.WithError(err).Fatal("db init")
	}
	defer database.Close()

	// The token source is the single process-wide credential cache; the
	// catalog client routes every upstream read through it.
	tokens := catalog.NewTokenSource(clientID, clientSecret, catalog.DefaultTokenURL)
	cat := catalog.New(tokens, log)

	app := &handlers.Application{
		Catalog: cat,
		DB:      database,
		SignKey: []byte(signingKey),
		Log:     log,
		RatingHooks: []handlers.RatingHook{
			handlers.AutoFavoriteArtist(database),
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/signup", app.SignUp)
	mux.HandleFunc("/api/login", app.Login)
	mux.HandleFunc("/api/logout", app.Logout)

	mux.HandleFunc("/api/search", app.SearchJSON)
	mux.HandleFunc("/api/artists", app.ArtistsBatchJSON)
	mux.HandleFunc("/api/artists/", app.ArtistJSON)
	mux.HandleFunc("/api/genres", app.GenresJSON)
	mux.HandleFunc("/api/new-releases", app.NewReleasesJSON)
	mux.HandleFunc("/api/top-tracks", app.TopTracksJSON)
	mux.HandleFunc("/api/recommendations", app.RecommendationsJSON)
	mux.HandleFunc("/api/releases/favorite-artists", app.FavoriteArtistReleasesJSON)
	mux.HandleFunc("/api/tracks/favorite-artists", app.FavoriteArtistTracksJSON)

	mux.HandleFunc("/api/ratings", app.Ratings)
	mux.HandleFunc("/api/ratings/average", app.RatingAverageJSON)
	mux.HandleFunc("/api/reviews", app.ItemReviewsJSON)
	mux.HandleFunc("/api/reviews/recent", app.RecentReviewsJSON)
	mux.HandleFunc("/api/feed/following", app.FollowingFeedJSON)

	mux.HandleFunc("/api/follow", app.Follow)
	mux.HandleFunc("/api/users", app.UserSearchJSON)
	mux.HandleFunc("/api/profiles/", app.ProfileJSON)
	mux.HandleFunc("/api/favorites", app.Favorites)

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := handlers.SecurityHeaders(handlers.Metrics(mux))

	log.WithField("addr", addr).Info("starting server")
	// ListenAndServe blocks and only returns an error if the server
	// fails to start or encounters a fatal error.
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.WithError(err).Fatal("http server error")
	}
}
