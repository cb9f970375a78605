// Package main our entry point.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"github.com/castlemere/estately/internal"
	"github.com/castlemere/estately/internal/handler"
	ratelimiter "github.com/castlemere/estately/internal/rate_limiter"
	"github.com/castlemere/estately/internal/realtime"
	"github.com/castlemere/estately/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("failed to load .env file: %+v", err)
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.SetOutput(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:              "0.0.0.0:" + port,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	// Init DB
	log.Println("Starting application...")
	log.Println("Initializing Database connection...")

	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		log.Fatal("DB_URL environment variable is not set")
	}

	dbConn, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("could not connect to the postgresql database: %v", err)
	}

	if os.Getenv("MIGRATE_ON_START") == "true" {
		migDB := stdlib.OpenDBFromPool(dbConn)
		if err := goose.SetDialect("postgres"); err != nil {
			log.Fatalf("goose.SetDialect() error = %+v", err)
		}
		if err := goose.Up(migDB, "sql/schema"); err != nil {
			log.Fatalf("goose.Up() error = %+v", err)
		}
		if err := migDB.Close(); err != nil {
			log.Printf("failed to close migration db handle: %v", err)
		}
	}

	dbQueries := store.New(dbConn)

	// hub.Run is our central hub that is always listening for client related
	// events.
	hub := realtime.NewHub()
	go hub.Run(ctx)

	// Throttle the unauthenticated account endpoints per IP.
	authLimiter := ratelimiter.NewIPRateLimiter(10, time.Minute, ratelimiter.CleanupOpts{
		TTL:      10 * time.Minute,
		Interval: time.Minute,
	})
	defer authLimiter.Cancel()

	authed := internal.Middleware(dbQueries)

	r := chi.NewRouter()

	r.Route("/api/auth", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return authLimiter.Middleware(next)
		})
		r.Post("/signup", handler.Signup(dbQueries))
		r.Post("/login", handler.Login(dbQueries))
		r.Post("/logout", handler.Logout(dbQueries))
		r.Post("/refresh", handler.RefreshToken(dbQueries))
	})

	r.Route("/api/posts", func(r chi.Router) {
		r.Get("/", handler.ListPosts(dbQueries))
		r.Get("/{id}", handler.GetPost(dbQueries))
		r.Group(func(r chi.Router) {
			r.Use(authed)
			r.Post("/", handler.CreatePost(dbQueries))
			r.Delete("/{id}", handler.DeletePost(dbQueries))
		})
	})

	r.Route("/api/chats", func(r chi.Router) {
		r.Use(authed)
		r.Get("/", handler.ListChats(dbQueries))
		r.Post("/", handler.CreateChat(dbQueries))
		r.Post("/cleanup", handler.CleanupChats(dbQueries))
		r.Get("/{id}", handler.GetChat(dbQueries))
		r.Put("/read/{id}", handler.ReadChat(dbQueries))
	})

	r.Route("/api/messages", func(r chi.Router) {
		r.Use(authed)
		r.Get("/{chatId}", handler.ListChatMessages(dbQueries))
		r.Post("/{chatId}", handler.CreateMessage(dbQueries))
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Use(authed)
		r.Get("/notification", handler.NotificationCount(dbQueries))
		r.Post("/save", handler.SavePost(dbQueries))
		r.Get("/profilePosts", handler.ProfilePosts(dbQueries))
	})

	r.Group(func(r chi.Router) {
		r.Use(authed)
		r.Get("/ws", handler.ServeWs(hub, dbQueries))
	})

	server.Handler = r

	go func() {
		log.Printf("Server starting at 0.0.0.0:%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutdown signal received; shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println(err)
	}

	// Close DB connection.
	dbConn.Close()

	log.Println("Server stopped")
}
