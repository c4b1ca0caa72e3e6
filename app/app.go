package app

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"school_resource_hub/cache"
	"school_resource_hub/db"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Aliases for handlers.
type Ctx = gin.Context
type H = gin.H

// App aggregates the shared dependencies. Everything is constructed here and
// passed down explicitly; no package holds its own global instance.
type App struct {
	Router *gin.Engine
	DB     *gorm.DB
	RDB    *redis.Client
	Cache  *cache.Cache
	Log    *slog.Logger
	Config Config
}

type Config struct {
	RedisAddr      string
	RedisPwd       string
	WebOrigin      string
	CacheTTL       time.Duration
	CacheCapacity  int
	DebounceDelay  time.Duration
	HeartbeatEvery time.Duration
	ReconcileEvery time.Duration // 0 disables the scheduled run
}

func MustNew() *App {
	cfg := loadConfig()

	dbConn := db.ConnectDB()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: 0})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	r := gin.Default()
	useCORS(r, cfg.WebOrigin)

	return &App{
		Router: r,
		DB:     dbConn,
		RDB:    rdb,
		Cache:  cache.New(cfg.CacheCapacity),
		Log:    logger,
		Config: cfg,
	}
}

func (a *App) Close() { _ = a.RDB.Close() }

func loadConfig() Config {
	_ = godotenv.Load()

	get := func(k, def string) string {
		v := os.Getenv(k)
		if v == "" {
			return def
		}
		return v
	}
	seconds := func(k string, def time.Duration) time.Duration {
		v := os.Getenv(k)
		if v == "" {
			return def
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return def
		}
		return time.Duration(n) * time.Second
	}
	capacity := cache.DefaultCapacity
	if n, err := strconv.Atoi(get("CACHE_CAPACITY", "")); err == nil && n > 0 {
		capacity = n
	}

	return Config{
		RedisAddr:      get("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPwd:       os.Getenv("REDIS_PASSWORD"),
		WebOrigin:      get("WEB_ORIGIN", "http://localhost:5173"),
		CacheTTL:       seconds("CACHE_TTL_SECONDS", cache.DefaultTTL),
		CacheCapacity:  capacity,
		DebounceDelay:  seconds("DEBOUNCE_SECONDS", 2*time.Second),
		HeartbeatEvery: seconds("HEARTBEAT_SECONDS", 30*time.Second),
		ReconcileEvery: seconds("RECONCILE_SECONDS", 0),
	}
}
