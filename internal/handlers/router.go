package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/petermazzocco/go-messenger/internal/auth"
	"github.com/petermazzocco/go-messenger/internal/messenger"
	"github.com/petermazzocco/go-messenger/internal/metrics"
	"go.uber.org/zap"
)

type Deps struct {
	Users       messenger.UserRepository
	Chats       messenger.ChatRepository
	Messages    messenger.MessageRepository
	Attachments messenger.AttachmentRepository
	Sessions    *auth.Sessions
	Log         *zap.Logger
	CORSOrigins []string
	// RateLimit is requests per minute per client IP and endpoint.
	RateLimit int
}

func NewRouter(d Deps) http.Handler {
	log := d.Log.Named("http")
	users, chats, messages, attachments, sessions := d.Users, d.Chats, d.Messages, d.Attachments, d.Sessions

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  zap.NewStdLog(log),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(httprate.Limit(
			d.RateLimit,
			1*time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
		))

		// Sign-up and sign-in
		r.Post("/users", func(w http.ResponseWriter, r *http.Request) {
			SignUpHandler(w, r, users, log)
		})
		r.Post("/users/signin", func(w http.ResponseWriter, r *http.Request) {
			SignInHandler(w, r, users, sessions, log)
		})

		// Available API routes for signed in users
		r.Group(func(r chi.Router) {
			r.Use(sessions.UserMiddleware)

			r.Post("/users/signout", func(w http.ResponseWriter, r *http.Request) {
				SignOutHandler(w, r, sessions, log)
			})
			r.Get("/users/by-email/{email}", func(w http.ResponseWriter, r *http.Request) {
				GetUserByEmailHandler(w, r, users, log)
			})
			r.Get("/users/{userID}", func(w http.ResponseWriter, r *http.Request) {
				GetUserHandler(w, r, users, log)
			})
			r.Put("/users/{userID}", func(w http.ResponseWriter, r *http.Request) {
				UpdateUserHandler(w, r, users, log)
			})
			r.Delete("/users/{userID}", func(w http.ResponseWriter, r *http.Request) {
				DeleteUserHandler(w, r, users, sessions, log)
			})
			r.Get("/users/{userID}/chats", func(w http.ResponseWriter, r *http.Request) {
				GetUserChatsHandler(w, r, chats, log)
			})

			r.Post("/chats", func(w http.ResponseWriter, r *http.Request) {
				CreateChatHandler(w, r, chats, log)
			})
			r.Get("/chats/{chatID}", func(w http.ResponseWriter, r *http.Request) {
				GetChatHandler(w, r, chats, log)
			})
			r.Delete("/chats/{chatID}", func(w http.ResponseWriter, r *http.Request) {
				DeleteChatHandler(w, r, chats, log)
			})
			r.Get("/chats/{chatID}/messages", func(w http.ResponseWriter, r *http.Request) {
				GetChatMessagesHandler(w, r, messages, log)
			})
			r.Get("/chats/{chatID}/messages/new", func(w http.ResponseWriter, r *http.Request) {
				GetNewMessagesHandler(w, r, messages, log)
			})

			r.Post("/messages", func(w http.ResponseWriter, r *http.Request) {
				SendMessageHandler(w, r, messages, log)
			})
			r.Get("/messages/{messageID}", func(w http.ResponseWriter, r *http.Request) {
				GetMessageHandler(w, r, messages, log)
			})
			r.Delete("/messages/{messageID}", func(w http.ResponseWriter, r *http.Request) {
				DeleteMessageHandler(w, r, messages, log)
			})

			r.Post("/attachments", func(w http.ResponseWriter, r *http.Request) {
				UploadAttachmentHandler(w, r, attachments, log)
			})
			r.Get("/attachments/{attachmentID}", func(w http.ResponseWriter, r *http.Request) {
				GetAttachmentHandler(w, r, attachments, log)
			})
			r.Delete("/attachments/{attachmentID}", func(w http.ResponseWriter, r *http.Request) {
				DeleteAttachmentHandler(w, r, attachments, log)
			})
		})
	})

	return r
}
