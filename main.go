package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"gallery-server/handlers/api/artworks"
	"gallery-server/handlers/api/gallery"
	"gallery-server/handlers/auth"
	authMiddleware "gallery-server/middleware"
	"gallery-server/museum"
	"gallery-server/session"
	"gallery-server/stores"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func setupRouter(store stores.Store, client *museum.Client, manager *session.Manager) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length", "Origin", "Host", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/gallery", gallery.HandleList(client, store))

		r.Route("/artworks", func(r chi.Router) {
			r.Get("/", artworks.HandleList(store))

			// Submissions require an authenticated session.
			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.AuthJWT)
				r.Post("/", artworks.HandleCreate(store))
			})
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", auth.HandleRegister(manager))
			r.Post("/login", auth.HandleLogin(manager))
			r.Post("/logout", auth.HandleLogout(manager))
			r.Get("/session", auth.HandleSession(manager))
		})
	})

	return r
}

func museumClientFromEnv() *museum.Client {
	departmentID := 0
	if v := os.Getenv("MUSEUM_DEPARTMENT_ID"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			logrus.WithField("value", v).Warn("Invalid MUSEUM_DEPARTMENT_ID, using default")
		} else {
			departmentID = n
		}
	}
	return museum.NewClient(os.Getenv("MUSEUM_API_URL"), departmentID)
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	listenAddress := flag.String("listen", ":3002", "The address to listen on.")
	logLevel := flag.String("loglevel", "info", "The log level (debug, info, warn, error).")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	auth.InitAuth()
	store := stores.GetStore()
	client := museumClientFromEnv()
	manager := session.NewManager(context.Background(), store, store)

	r := setupRouter(store, client, manager)

	server := &http.Server{Addr: *listenAddress, Handler: r}

	go func() {
		logrus.WithField("addr", *listenAddress).Info("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-stop

	logrus.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Server shutdown failed")
	}
}
