package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/for-everyoung12/chat-chit/internal/config"
	"github.com/for-everyoung12/chat-chit/internal/handlers"
	"github.com/for-everyoung12/chat-chit/internal/middleware"
	"github.com/for-everyoung12/chat-chit/internal/repository"
	"github.com/for-everyoung12/chat-chit/internal/services"
	chatws "github.com/for-everyoung12/chat-chit/internal/websocket"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) {
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	friendRepo := repository.NewFriendRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	participantRepo := repository.NewParticipantRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	authService := services.NewAuthService(userRepo, sessionRepo, cfg.JWTSecret)
	friendService := services.NewFriendService(db, friendRepo, userRepo)
	chatService := services.NewChatService(db, conversationRepo, participantRepo, messageRepo, userRepo)

	chatHub := chatws.NewHub()
	go chatHub.Run()

	authHandler := handlers.NewAuthHandler(authService, cfg.CookieSecure)
	friendHandler := handlers.NewFriendHandler(friendService)
	chatHandler := handlers.NewChatHandler(chatService, chatHub, cfg.JWTSecret)

	authRequired := middleware.AuthRequired(cfg.JWTSecret, userRepo)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/signup", authHandler.SignUp)
	auth.Post("/signin", authHandler.SignIn)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Post("/signout", authHandler.SignOut)
	auth.Get("/me", authRequired, authHandler.Me)

	authProtected := api.Group("/v1", authRequired)

	friends := authProtected.Group("/friends")
	friends.Get("", friendHandler.ListFriends)
	friends.Get("/requests", friendHandler.ListRequests)
	friends.Post("/requests", friendHandler.SendRequest)
	friends.Post("/requests/:id/accept", friendHandler.AcceptRequest)
	friends.Delete("/requests/:id", friendHandler.DeclineRequest)

	conversations := authProtected.Group("/conversations")
	conversations.Get("", chatHandler.ListConversations)
	conversations.Post("", middleware.RequireFriendship(friendService), chatHandler.CreateConversation)
	conversations.Get("/:id/messages", chatHandler.GetMessages)
	conversations.Post("/:id/messages", chatHandler.SendMessage)
	conversations.Post("/:id/seen", chatHandler.MarkSeen)

	api.Use("/v1/ws", chatHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(chatHandler.HandleWebSocket))
}
