package rest

import (
	"net/http"
	"os"
	"strings"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"watchtogether/internal/cache"
	"watchtogether/internal/config"
	"watchtogether/internal/repository"
	"watchtogether/internal/service"
	"watchtogether/internal/transport/rest/handler"
	"watchtogether/internal/transport/rest/middleware"
	"watchtogether/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	Config      *config.Config
	AuthService *service.AuthService
	RoomService *service.RoomService
	VideoRepo   repository.VideoRepo
	Presence    cache.PresenceCache
	WSHandler   *ws.Handler
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	roomHandler := handler.NewRoomHandler(c.RoomService, c.Presence, c.Config.UploadDir, c.Config.WSBaseURL)
	videoHandler := handler.NewVideoHandler(c.VideoRepo, c.Config.UploadDir)
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/rooms", roomHandler.Create).Methods("POST", "OPTIONS")
	v1.HandleFunc("/rooms/{code}/join", roomHandler.Join).Methods("POST", "OPTIONS")
	v1.HandleFunc("/rooms/{code}", roomHandler.Get).Methods("GET", "OPTIONS")

	// WebSocket route (creator token optional, in query param)
	v1.HandleFunc("/ws", c.WSHandler.ServeWS).Methods("GET")

	// Creator routes (require creator token)
	creatorRoutes := v1.NewRoute().Subrouter()
	creatorRoutes.Use(authMW.RequireCreator)
	creatorRoutes.HandleFunc("/rooms/{code}/close", roomHandler.Close).Methods("POST", "OPTIONS")

	// Uploaded video files
	r.HandleFunc("/videos/{filename}", videoHandler.Serve).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins(corsOrigins()),
		gorillahandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillahandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(r)
}

func corsOrigins() []string {
	origins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if origins == "" {
		return []string{"*"}
	}
	return strings.Split(origins, ",")
}
