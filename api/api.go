package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/oauth2"

	"github.com/rezzza07/artmart/api/rest"
	"github.com/rezzza07/artmart/api/ws"
	"github.com/rezzza07/artmart/cache"
	"github.com/rezzza07/artmart/mq"
	"github.com/rezzza07/artmart/service"
	"github.com/rezzza07/artmart/store"
	"github.com/rezzza07/artmart/worker"
)

type ArtmartAPI struct {
	restHandler *rest.Handler
	wsHandler   *ws.Handler
	shutdownCtx context.Context
}

func NewArtmartAPI(
	artmartStore store.ArtmartStore,
	cleanupQueue mq.MessageQueue,
	artmartCache cache.ArtmartCache,
	oauthConfigs map[string]*oauth2.Config,
	jwtSecret []byte,
	shutdownCtx context.Context,
) (*ArtmartAPI, error) {
	wsHub := ws.NewHub(artmartCache)
	go wsHub.Run()

	cleanupConsumer := worker.NewCleanupConsumer(cleanupQueue, artmartStore)
	go cleanupConsumer.Run(shutdownCtx)

	svc, err := service.NewService(
		artmartStore,
		artmartCache,
		cleanupQueue,
		oauthConfigs,
		jwtSecret,
	)
	if err != nil {
		slog.Error("Failed to create service", "error", err)
		return &ArtmartAPI{}, err
	}

	restHandler := rest.NewHandler(svc)
	wsHandler := ws.NewHandler(svc, wsHub)

	return &ArtmartAPI{
		restHandler: restHandler,
		wsHandler:   wsHandler,
		shutdownCtx: shutdownCtx,
	}, nil
}

func (a *ArtmartAPI) Routes(allowedOrigin string) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{allowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint (no auth required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Post("/login", a.restHandler.HandleLogin)

	r.Post("/users", a.restHandler.HandleRegisterUser)
	r.Put("/users/{email}", a.restHandler.HandleUpsertUser)

	r.Get("/arts", a.restHandler.HandleListArtworks)
	r.Get("/featured-arts", a.restHandler.HandleFeaturedArtworks)
	r.Post("/arts", a.restHandler.HandleCreateArtwork)
	r.Get("/arts/{id}", a.restHandler.HandleGetArtwork)
	r.Put("/arts/{id}", a.restHandler.HandleUpdateArtwork)
	r.Patch("/arts/{id}", a.restHandler.HandleUpdateArtwork)
	r.Delete("/arts/{id}", a.restHandler.HandleDeleteArtwork)
	r.Post("/arts/{id}/like", a.restHandler.HandleToggleLike)

	r.Post("/favorites/toggle", a.restHandler.HandleToggleFavorite)
	r.Get("/favorites/check", a.restHandler.HandleCheckFavorite)
	r.Get("/my-favorites", a.restHandler.HandleMyFavorites)

	r.Get("/user-stats/{email}", a.restHandler.HandleUserStats)

	wsUpgrader := a.wsHandler.NewWsUpgrader(allowedOrigin)
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		a.wsHandler.ServeWS(wsUpgrader, w, r, a.shutdownCtx)
	})

	return r
}
