package main

import (
	"context"
	"net/http"
	"os"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/moviemate/moviemate/handlers"
	"github.com/moviemate/moviemate/lib/db"
	"github.com/moviemate/moviemate/lib/generate"
	"github.com/moviemate/moviemate/lib/health"
	"github.com/moviemate/moviemate/lib/recommend"
	"github.com/moviemate/moviemate/lib/resolver"
	"github.com/moviemate/moviemate/lib/tmdb"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))
	logger := slog.Default()

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "moviemate.db"
	}

	gormDB, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: db.NewGormLogger(logger),
	})
	if err != nil {
		logger.Error("Failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}

	if err := db.RunMigrations(gormDB, logger); err != nil {
		logger.Error("Failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	store := db.NewStore(gormDB, logger)
	res := resolver.New(store, logger)
	engine := recommend.New(gormDB, logger)

	completer := generate.CompleterFromEnv(context.Background(), logger)
	gen := generate.New(completer, logger)

	var posters *tmdb.Client
	if key := os.Getenv("TMDB_API_KEY"); key != "" {
		posters = tmdb.NewClient(key, logger)
		logger.Info("Poster enrichment enabled")
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", health.Check(gormDB))

	r.Route("/api", func(r chi.Router) {
		r.Get("/content", handlers.HandleListContent(store))
		r.Route("/content/{id}", func(r chi.Router) {
			r.Get("/", handlers.HandleGetContent(res))
			r.Put("/", handlers.HandleUpdateContent(store, res))
			r.Patch("/", handlers.HandleUpdateContent(store, res))
			r.Delete("/", handlers.HandleDeleteContent(store))
			r.Get("/reviews", handlers.HandleListReviews(store))
			r.Post("/reviews", handlers.HandleCreateReview(store))
			r.Post("/progress", handlers.HandleUpdateProgress(store, res))
			r.Get("/watch-history", handlers.HandleListWatchHistory(store))
			r.Post("/watch-history", handlers.HandleCreateWatchHistory(store))
			r.Post("/generate-review", handlers.HandleGenerateReview(res, gen))
		})

		r.Get("/movies", handlers.HandleListMovies(store))
		r.Post("/movies", handlers.HandleCreateMovie(store, posters))
		r.Get("/tv-shows", handlers.HandleListTVShows(store))
		r.Post("/tv-shows", handlers.HandleCreateTVShow(store, posters))

		r.Get("/recommendations", handlers.HandleRecommendations(engine))
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info("Starting server", slog.String("port", port))
	if err := http.ListenAndServe(":"+port, r); err != nil {
		logger.Error("Server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
