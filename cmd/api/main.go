package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sonore/internal/cache"
	"sonore/internal/database"
	"sonore/internal/handlers"
	"sonore/internal/middleware"
	"sonore/internal/monitoring"
	"sonore/internal/utils"

	"github.com/gin-gonic/gin"
)

const shutdownGrace = 10 * time.Second

func main() {
	if err := utils.EnsureSessionSecretReady(); err != nil {
		log.Fatal("Session secret misconfigured: ", err)
	}

	database.InitDB()
	defer database.CloseDB()
	database.CreateTables()

	cache.Init()
	defer cache.Close()

	startedAt := time.Now()
	handlers.SetMonitoringService(monitoring.NewService(startedAt))

	router := setupRouter()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Sonore API starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down, draining connections")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}

func setupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(monitoring.RequestMetricsMiddleware())

	router.GET("/health", handlers.Health)

	api := router.Group("/api")
	{
		api.GET("/status", handlers.Status)

		api.POST("/auth/register", handlers.Register)
		api.POST("/auth/login", handlers.Login)

		api.GET("/songs", handlers.ListSongs)
		api.GET("/songs/:id", handlers.GetSongByID)
		api.GET("/playlists/public/:playlist_id", handlers.GetPublicPlaylist)

		api.GET("/monitoring", handlers.MonitorSnapshot)
		api.GET("/monitoring/status", handlers.MonitorStatus)
		api.GET("/monitoring/connections", handlers.MonitorConnections)
		api.GET("/monitoring/runtime", handlers.MonitorRuntime)
		api.GET("/monitoring/catalog", handlers.MonitorCatalog)
		api.GET("/monitoring/all", handlers.MonitorAll)
		api.GET("/monitoring/users", handlers.MonitorUsersList)
	}

	session := router.Group("/api")
	session.Use(middleware.SessionGuard())
	{
		session.GET("/auth/logout", handlers.Logout)
		session.POST("/auth/logout", handlers.Logout)

		session.GET("/account", handlers.GetAccount)
		session.PUT("/account", handlers.UpdateAccount)
		session.DELETE("/account", handlers.DeleteAccount)

		session.POST("/songs", handlers.CreateSong)
		session.GET("/songs/search", handlers.SearchSongs)

		session.GET("/playlists", handlers.GetUserPlaylists)
		session.POST("/playlists/createPlaylist", handlers.CreatePlaylist)
		session.POST("/playlists/addSongsToPlaylist", handlers.AddSongsToPlaylist)
		session.POST("/playlists/removeSongsFromPlaylist", handlers.RemoveSongsFromPlaylist)
		session.POST("/playlists/:playlist_id/reorder", handlers.ReorderPlaylist)
		session.PUT("/playlists/updatePlaylist/:playlist_id", handlers.UpdatePlaylist)
		session.DELETE("/playlists/deletePlaylist/:playlist_id", handlers.DeletePlaylist)
	}

	return router
}
