package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bjugstad/fleetsync/internal/common"
	"bjugstad/fleetsync/internal/config"
	"bjugstad/fleetsync/internal/db"
	"bjugstad/fleetsync/internal/db/repositories"
	"bjugstad/fleetsync/internal/jobs"
	"bjugstad/fleetsync/internal/logging"
	"bjugstad/fleetsync/internal/metrics"
	"bjugstad/fleetsync/internal/routes"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Local development convenience; production gets real env vars.
	_ = godotenv.Load()

	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "development"
	}

	if err := logging.Init(appEnv); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logging.Close()

	logging.Info("fleetsync starting up",
		"environment", appEnv,
		"timestamp", time.Now().Format(time.RFC3339),
	)

	// Connect to DB with sqlx
	if err := db.InitPostgres(); err != nil {
		logging.Error("failed to connect to Postgres (sqlx)", "error", err.Error())
		log.Fatalf("failed to connect to Postgres (sqlx): %v", err)
	}
	logging.Info("connected to Postgres (sqlx)")

	// Connect to DB with GORM
	host := os.Getenv("PG_HOST")
	port := os.Getenv("PG_PORT")
	user := os.Getenv("PG_USER")
	dbname := os.Getenv("PG_DB")
	password := os.Getenv("PG_PASSWORD")
	sslmode := os.Getenv("PG_SSL")
	if sslmode == "" {
		sslmode = "require"
	}
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, password, host, port, dbname, sslmode)

	gdb, err := db.InitPostgresORM(dsn)
	if err != nil {
		logging.Error("failed to connect to Postgres (GORM)", "error", err.Error())
		log.Fatalf("failed to connect to Postgres (GORM): %v", err)
	}
	logging.Info("connected to Postgres (GORM)")

	if err := db.EnsureSchema(gdb); err != nil {
		logging.Error("schema migration failed", "error", err.Error())
		log.Fatalf("schema migration failed: %v", err)
	}
	logging.Info("schema ensured")

	// Cache backend: Redis when configured, in-memory otherwise.
	var cacheSvc common.CacheInterface
	if os.Getenv("CACHE_BACKEND") == "redis" {
		redisCache, err := common.NewRedisCacheService()
		if err != nil {
			logging.Error("failed to connect to Redis", "error", err.Error())
			log.Fatalf("failed to connect to Redis: %v", err)
		}
		cacheSvc = redisCache
		logging.Info("using Redis cache backend")
	} else {
		cacheSvc = common.NewCacheService(600)
		logging.Info("using in-memory cache backend")
	}

	secretRepo := repositories.NewSecretRepository(db.DB)
	cfg := config.NewResolver(cacheSvc, secretRepo)

	metricsReg := metrics.NewMetricsRegistry()

	machineRepo := repositories.NewMachineRepository(db.DB)
	customerRepo := repositories.NewCustomerRepository(db.DB)
	historyRepo := repositories.NewSyncHistoryRepo(gdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jobsContainer := jobs.InitializeJobs(ctx, cfg, machineRepo, customerRepo, historyRepo, metricsReg)

	upSince := time.Now()
	router := routes.RegisterRoutes(upSince, cfg, metricsReg, jobsContainer, historyRepo)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", router)

	port = os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logging.Info("server starting", "port", port, "environment", appEnv)
	log.Fatal(http.ListenAndServe(":"+port, mux))
}
