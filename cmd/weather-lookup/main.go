package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	httpapi "weather-lookup/internal/api/http"
	"weather-lookup/internal/cache"
	"weather-lookup/internal/config"
	"weather-lookup/internal/geocode"
	"weather-lookup/internal/history"
	"weather-lookup/internal/pipeline"
	"weather-lookup/internal/scheduler"
	"weather-lookup/internal/weather"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Geocoding backend: Google when a key is configured, Nominatim otherwise.
	var geocoder geocode.Geocoder
	if cfg.GeocoderAPIKey != "" {
		geocoder = geocode.NewGoogleGeocoder(cfg.GeocoderAPIKey)
	} else {
		geocoder = geocode.NewNominatimGeocoder(httpClient)
	}

	weatherClient := weather.NewClient(httpClient, cfg.OpenWeatherAPIKey)

	// Weather cache: Redis when configured, in-memory otherwise.
	var weatherCache cache.Cache
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		weatherCache = cache.NewRedisCache(redis.NewClient(redisOpts))
	} else {
		weatherCache = cache.NewMemoryCache()
	}

	// History store: Postgres when configured, in-memory otherwise.
	var store history.Store
	if cfg.DatabaseURL != "" {
		pg, err := history.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer pg.Close()

		if cfg.MigrationsDir != "" {
			if err := pg.ApplyMigrations(cfg.MigrationsDir); err != nil {
				log.Fatalf("failed to apply migrations: %v", err)
			}
		}
		store = pg
	} else {
		log.Println("INFO: DATABASE_URL not set; using in-memory history store")
		store = history.NewMemoryStore()
	}

	lookup := pipeline.NewLookup(geocoder, weatherClient, weatherCache, store, cfg.CacheTTL)
	refresh := pipeline.NewRefresh(geocoder, weatherClient, weatherCache, store, cfg.CacheTTL)

	sched := scheduler.New(refresh, cfg.RefreshInterval)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-lookup",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-lookup",
		})
	})

	httpapi.RegisterRoutes(app, httpapi.Deps{
		Lookup:    lookup,
		History:   store,
		Scheduler: sched,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
