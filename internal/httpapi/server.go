// Package httpapi implements the External Surface from spec.md §4.10/§6:
// the chi-routed HTTP API and the /api/events WebSocket, reading Pipeline
// snapshots and writing into Controllers, Favourites, Settings and
// Cover-Art. Grounded on the teacher's internal/api/server_routes.go route
// registration shape.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/audiocontrol/acrd/internal/cache"
	"github.com/audiocontrol/acrd/internal/coverart"
	"github.com/audiocontrol/acrd/internal/favourites"
	"github.com/audiocontrol/acrd/internal/httpmw"
	"github.com/audiocontrol/acrd/internal/jobs"
	"github.com/audiocontrol/acrd/internal/pipeline"
	"github.com/audiocontrol/acrd/internal/settings"
	"github.com/audiocontrol/acrd/internal/volume"

	"github.com/audiocontrol/acrd/internal/bus"
)

// Server bundles every component the HTTP/WebSocket surface reads from and
// writes into.
type Server struct {
	Version string

	Pipeline   *pipeline.Pipeline
	Bus        *bus.Bus
	Favourites *favourites.Coordinator
	CoverArt   *coverart.Aggregator
	Volume     *volume.Control
	Cache      *cache.Cache
	Settings   *settings.Store
	Jobs       *jobs.Registry

	mwConfig httpmw.StackConfig
}

// New constructs a Server. mwConfig configures the ingress middleware stack
// (CORS origins, rate limit).
func New(
	version string,
	pl *pipeline.Pipeline,
	b *bus.Bus,
	fav *favourites.Coordinator,
	ca *coverart.Aggregator,
	vol *volume.Control,
	c *cache.Cache,
	st *settings.Store,
	jr *jobs.Registry,
	mwConfig httpmw.StackConfig,
) *Server {
	return &Server{
		Version:    version,
		Pipeline:   pl,
		Bus:        b,
		Favourites: fav,
		CoverArt:   ca,
		Volume:     vol,
		Cache:      c,
		Settings:   st,
		Jobs:       jr,
		mwConfig:   mwConfig,
	}
}

// Router builds the full chi.Mux for the daemon (spec.md §6).
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	httpmw.ApplyStack(r, s.mwConfig)

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api", func(api chi.Router) {
		api.Get("/version", s.handleVersion)
		api.Get("/players", s.handlePlayers)
		api.Get("/now-playing", s.handleNowPlaying)
		api.Post("/player/{id}/update", s.handlePlayerUpdate)
		api.Post("/player/{id}/command", s.handlePlayerCommand)

		api.Get("/coverart/methods", s.handleCoverArtMethods)
		api.Get("/coverart/artist/{nameB64}", s.handleCoverArtArtist)
		api.Get("/coverart/album/{titleB64}/{artistB64}", s.handleCoverArtAlbum)
		api.Get("/coverart/album/{titleB64}/{artistB64}/{year}", s.handleCoverArtAlbum)
		api.Post("/coverart/artist/{nameB64}/update", s.handleCoverArtUpdate)
		api.Get("/coverart/artist/{nameB64}/image", s.handleCoverArtImage)

		api.Get("/favourites/providers", s.handleFavouritesProviders)
		api.Get("/favourites/is_favourite", s.handleFavouritesIsFavourite)
		api.Post("/favourites/add", s.handleFavouritesAdd)
		api.Delete("/favourites/remove", s.handleFavouritesRemove)

		api.Post("/settings/get", s.handleSettingsGet)
		api.Post("/settings/set", s.handleSettingsSet)

		api.Get("/cache/stats", s.handleCacheStats)
		api.Get("/background/jobs", s.handleJobsList)
		api.Get("/background/jobs/{id}", s.handleJobsGet)

		api.Get("/volume/info", s.handleVolumeState)
		api.Get("/volume/state", s.handleVolumeState)
		api.Post("/volume/set", s.handleVolumeSet)
		api.Post("/volume/increase", s.handleVolumeIncrease)
		api.Post("/volume/decrease", s.handleVolumeDecrease)
		api.Post("/volume/mute", s.handleVolumeMute)

		api.Get("/events", s.handleEvents)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = encodeJSON(w, v)
}
