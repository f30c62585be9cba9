package main

import (
    "context"
    "log"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"

    "vehicle-marketplace/internal/blobstore"
    "vehicle-marketplace/internal/config"
    "vehicle-marketplace/internal/database"
    "vehicle-marketplace/internal/docstore"
    "vehicle-marketplace/internal/handler"
    "vehicle-marketplace/internal/middleware"
    "vehicle-marketplace/internal/queue"
    "vehicle-marketplace/internal/repository"
    "vehicle-marketplace/internal/router"
    "vehicle-marketplace/internal/store"
)

func main() {
    // .env is optional; real deployments set the environment directly.
    _ = godotenv.Load()
    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    docs := docstore.NewMySQL(db)
    if err := docs.EnsureSchema(context.Background()); err != nil {
        log.Fatalf("schema: %v", err)
    }
    blobs := blobstore.NewFS(cfg.UploadDir, cfg.UploadPrefix)

    listings := store.NewListingStore(docs, blobs, cfg.RefreshInterval)
    bookings := store.NewBookingStore(docs)
    users := repository.NewUserRepo(docs)
    tokens := repository.NewTokenRepo(docs)

    authH := handler.NewAuthHandler(cfg, users, tokens)
    listingH := handler.NewListingHandler(listings)
    bookingH := handler.NewBookingHandler(bookings, listings)
    adminH := handler.NewAdminHandler(listings, bookings, users, tokens)

    e := echo.New()
    e.Use(echomw.Recover())
    e.Use(echomw.Logger())

    // Redis is optional: without it the response cache and rate limiter
    // are simply not installed.
    rdb := config.NewRedisClient()
    var cacheMW echo.MiddlewareFunc
    if rdb != nil {
        rlCfg := config.LoadRateLimitConfig()
        if rlCfg.Enabled {
            e.Use(middleware.NewTokenBucket(rlCfg, rdb))
        }
        cCfg := config.LoadCacheConfig()
        if cCfg.Enabled {
            cacheMW = middleware.NewRedisCache(cCfg, rdb)
        }
    } else {
        log.Println("redis unavailable; cache and rate limiting disabled")
    }

    router.RegisterHealth(e)
    router.RegisterAuth(e, authH, cfg.JWTSecret)
    router.RegisterPublic(e, listingH, cacheMW)
    router.RegisterUser(e, listingH, bookingH, cfg.JWTSecret)
    router.RegisterAdmin(e, adminH, cfg.JWTSecret)

    // Uploaded listing images are served straight off disk.
    e.Static(cfg.UploadPrefix, cfg.UploadDir)

    go func() {
        if err := queue.StartBookingConsumer(); err != nil {
            log.Printf("booking consumer stopped: %v", err)
        }
    }()

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
