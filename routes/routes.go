package routes

import (
	"github.com/gameon-esports/gameon-rooms/handlers"
	"github.com/gameon-esports/gameon-rooms/middleware"
	"github.com/gameon-esports/gameon-rooms/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes wires the participant and admin room surfaces plus the
// websocket subscription endpoint.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	roomHandler *handlers.RoomHandler,
	adminRoomHandler *handlers.AdminRoomHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate([]byte(jwtSecret))

	// Live updates. Events carry the same room snapshot the REST surface
	// serves, so the upgrade requires a valid token (header or `token`
	// query parameter for browser websocket clients).
	router.With(authenticate).Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)

	router.Route("/tournaments/{tournamentID}/room", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/", roomHandler.GetRoom)
		r.Post("/move", roomHandler.MoveSelf)
		r.Post("/leave", roomHandler.LeaveRoom)
	})

	router.Route("/admin/tournaments/{tournamentID}/room", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.RequireRole(models.RoleAdmin))
		r.Get("/", adminRoomHandler.GetRoom)
		r.Post("/move", adminRoomHandler.MovePlayer)
		r.Post("/swap", adminRoomHandler.SwapPlayers)
		r.Post("/slots/lock", adminRoomHandler.ToggleSlotLock)
		r.Post("/lock", adminRoomHandler.ToggleRoomLock)
		r.Put("/settings", adminRoomHandler.UpdateSettings)
		r.Post("/credentials", adminRoomHandler.ReleaseCredentials)
		r.Post("/remove-player", adminRoomHandler.RemovePlayer)
		r.Get("/audit", adminRoomHandler.AuditTrail)
	})
}
