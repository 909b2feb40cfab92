package main

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/wichananm65/craftisland/internal/apperr"
	"github.com/wichananm65/craftisland/internal/config"
	"github.com/wichananm65/craftisland/internal/database"
	"github.com/wichananm65/craftisland/internal/order"
	"github.com/wichananm65/craftisland/internal/owner"
	"github.com/wichananm65/craftisland/internal/pincode"
	"github.com/wichananm65/craftisland/internal/product"
	"github.com/wichananm65/craftisland/internal/profile"
	"github.com/wichananm65/craftisland/internal/realtime"
	"github.com/wichananm65/craftisland/internal/settings"
	"github.com/wichananm65/craftisland/internal/user"
)

const (
	heartbeat   = 15 * time.Second
	listenRetry = 5 * time.Second
)

// repositories is one storage backend: Postgres when DATABASE_URL is set,
// memory otherwise.
type repositories struct {
	users    user.Repository
	products product.Repository
	pincodes pincode.Repository
	profiles profile.Repository
	orders   order.Repository
	settings settings.Repository
	events   realtime.Publisher
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[config] %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := realtime.NewHub()
	defer hub.Close()

	var repos repositories
	if cfg.DatabaseURL != "" {
		db, err := database.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("[storage] %v", err)
		}
		defer db.Close()
		if err := database.EnsureSchema(ctx, db, cfg.MigrateImages); err != nil {
			log.Fatalf("[storage] %v", err)
		}
		repos = postgresRepositories(db)
		go realtime.Run(ctx, cfg.DatabaseURL, hub, listenRetry)
	} else {
		log.Printf("[storage] DATABASE_URL not set, using in-memory repositories")
		repos = memoryRepositories(hub)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{"message": e.Message})
			}
			return apperr.Respond(c, err)
		},
	})
	setupCORS(app)
	app.Use(requestLog)
	if cfg.APIKey != "" {
		app.Use("/api", requireAPIKey(cfg.APIKey))
	}

	userService := user.NewService(repos.users, cfg.OwnerEmails)
	userHandler := user.NewHandler(userService, cfg.JWTSecret)

	productService := product.NewService(repos.products, repos.events)
	productHandler := product.NewHandler(productService)

	pincodeService := pincode.NewService(repos.pincodes, repos.events)
	pincodeHandler := pincode.NewHandler(pincodeService)

	settingsHandler := settings.NewHandler(settings.NewService(repos.settings))
	profileHandler := profile.NewHandler(profile.NewService(repos.profiles))

	orderService := order.NewService(repos.orders, productService, pincodeService, repos.events)
	orderHandler := order.NewHandler(orderService)

	ownerService := owner.NewService(repos.orders, repos.profiles, repos.settings, repos.events, owner.Config{
		DefaultPasscode:   cfg.OwnerPasscode,
		AllowFactoryReset: cfg.AllowFactoryReset,
	})
	ownerHandler := owner.NewHandler(ownerService)

	api := app.Group("/api/v1")
	userHandler.RegisterPublicRoutes(api)
	productHandler.RegisterPublicRoutes(api)
	pincodeHandler.RegisterPublicRoutes(api)
	settingsHandler.RegisterPublicRoutes(api)
	api.Get("/realtime", hub.Handler(heartbeat))

	api.Use(jwtware.New(jwtware.Config{
		SigningKey: []byte(cfg.JWTSecret),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return apperr.Respond(c, apperr.ErrUnauthenticated)
		},
	}))
	userHandler.RegisterProtectedRoutes(api)
	profileHandler.RegisterProtectedRoutes(api)
	orderHandler.RegisterProtectedRoutes(api)

	// owner routes are registered last: the group middleware applies to every
	// route added after it.
	ownerRoutes := api.Group("", user.RequireOwner)
	productHandler.RegisterOwnerRoutes(ownerRoutes)
	pincodeHandler.RegisterOwnerRoutes(ownerRoutes)
	settingsHandler.RegisterOwnerRoutes(ownerRoutes)
	ownerHandler.RegisterOwnerRoutes(ownerRoutes)

	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("starting server on %s", cfg.Addr)
	if err := app.Listen(cfg.Addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func postgresRepositories(db *sql.DB) repositories {
	return repositories{
		users:    user.NewPostgresRepository(db),
		products: product.NewPostgresRepository(db),
		pincodes: pincode.NewPostgresRepository(db),
		profiles: profile.NewPostgresRepository(db),
		orders:   order.NewPostgresRepository(db),
		settings: settings.NewPostgresRepository(db),
		events:   realtime.NewPGNotifier(db),
	}
}

func memoryRepositories(hub *realtime.Hub) repositories {
	products := product.NewInMemoryRepository(nil)
	return repositories{
		users:    user.NewInMemoryRepository(nil),
		products: products,
		pincodes: pincode.NewInMemoryRepository(nil),
		profiles: profile.NewInMemoryRepository(nil),
		orders:   order.NewInMemoryRepository(products),
		settings: settings.NewInMemoryRepository(),
		events:   hub,
	}
}

func setupCORS(app *fiber.App) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-API-Key",
	}))
}

func requireAPIKey(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		got := c.Get("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "invalid api key", "kind": "unauthenticated"})
		}
		return c.Next()
	}
}

func requestLog(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	log.Printf("%s %s -> %d (%v)", c.Method(), c.OriginalURL(), c.Response().StatusCode(), time.Since(start))
	return err
}
