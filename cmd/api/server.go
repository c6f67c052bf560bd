package main

import (
	"context"
	"crypto/tls"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aashish4533/bloombook/internal/api/handlers/community"
	"github.com/aashish4533/bloombook/internal/api/handlers/listings"
	wizardhttp "github.com/aashish4533/bloombook/internal/api/handlers/wizard"
	mw "github.com/aashish4533/bloombook/internal/api/middlewares"
	"github.com/aashish4533/bloombook/internal/api/router"
	"github.com/aashish4533/bloombook/internal/auth"
	"github.com/aashish4533/bloombook/internal/logging"
	"github.com/aashish4533/bloombook/internal/maintenance"
	"github.com/aashish4533/bloombook/internal/metrics"
	"github.com/aashish4533/bloombook/internal/metrics/viewqueue"
	"github.com/aashish4533/bloombook/internal/repository/sqlconnect"
	jwtutil "github.com/aashish4533/bloombook/internal/security/jwt"
	"github.com/aashish4533/bloombook/internal/storage/s3"
	storecommunity "github.com/aashish4533/bloombook/internal/store/community"
	"github.com/aashish4533/bloombook/internal/store/drafts"
	storelistings "github.com/aashish4533/bloombook/internal/store/listings"
	"github.com/aashish4533/bloombook/internal/validate"
	"github.com/aashish4533/bloombook/internal/wizard"
)

func main() {
	_ = godotenv.Load("../../.env")
	_ = godotenv.Load()

	appEnv := os.Getenv("APP_ENV")
	logger, err := logging.New(appEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := validate.Env(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	for _, w := range validate.HardeningWarnings(appEnv) {
		logger.Warn(w)
	}
	jwtutil.Configure(jwtutil.LoadConfig())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	db, err := sqlconnect.ConnectDB(ctx)
	if err != nil {
		logger.Fatal("postgres connection failed", zap.Error(err))
	}
	defer db.Close()

	rdb, err := newRedis()
	if err != nil {
		logger.Fatal("redis config", zap.Error(err))
	}
	defer rdb.Close()
	// Fail fast if Redis isn't reachable
	if err := validate.PingRedis(ctx, rdb, 3*time.Second); err != nil {
		logger.Fatal("redis connection failed", zap.Error(err))
	}
	logger.Info("connected to postgres and redis")

	m := metrics.New()

	views := viewqueue.New(db, 1024, m, logger)
	views.Start(2)
	defer views.Shutdown()
	maintenance.StartViewEventsRetention(ctx, db, logger, 90, "03:30", os.Getenv("APP_TZ"))

	listingStore := storelistings.New(db, 512)
	var submitter wizard.Submitter = listingStore.Submitter()
	if mode, _ := validate.SubmitMode(); mode == "log" {
		submitter = wizard.LogSubmitter{Log: logger}
	}

	var images listings.ImageStore
	if os.Getenv("AWS_BUCKET") != "" {
		c, err := s3.NewR2Client(ctx)
		if err != nil {
			logger.Fatal("s3 client", zap.Error(err))
		}
		images = c
	}

	users := auth.NewSQLStore(db)
	authH := auth.New(users, auth.NewRedisSessions(rdb), logger.Named("auth"))
	wizardH := wizardhttp.New(drafts.NewRedis(rdb), submitter, m, logger.Named("wizard"))
	authH.OnLogout = wizardH.OnLogout

	routes := router.Router(router.Deps{
		DB:     db,
		RDB:    rdb,
		Users:  users,
		Auth:   authH,
		Wizard: wizardH,
		Listings: &listings.Handler{
			Store:  listingStore,
			Images: images,
			Views:  views,
			Log:    logger.Named("listings"),
		},
		Community: &community.Handler{Store: storecommunity.New(db), Log: logger.Named("community")},
		Metrics:   m,
		Log:       logger,
	})

	tb := mw.NewRedisTokenBucket(rdb, 5, 20, mw.PerIPKey("rl:tb"), logger)
	sw := mw.NewRedisSlidingWindow(rdb, 3000, 60*time.Minute, mw.PerIPKey("rl:sw"), logger)

	secureMux := mw.Chain(routes,
		mw.Recovery(logger),
		mw.RequestID,
		mw.RequestLogger(logger),
		mw.Cors(mw.AllowedOrigins(), logger),
		mw.ResponseTime(m),
		mw.SecurityHeaders,
		mw.BodySizeLimit(mw.BodyLimitFromEnv()),
		mw.HPP(mw.ListingQueryParams...),
		tb.Middleware,
		sw.Middleware,
		mw.Compression,
	)

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           secureMux,
		ReadHeaderTimeout: 10 * time.Second,
		TLSConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}

	go func() {
		cert, key := os.Getenv("TLS_CERT"), os.Getenv("TLS_KEY")
		logger.Info("server listening", zap.String("addr", server.Addr), zap.Bool("tls", cert != "" && key != ""))
		var err error
		if cert != "" && key != "" {
			err = server.ListenAndServeTLS(cert, key)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", zap.Error(err))
	}
}

// newRedis builds the client from UPSTASH_REDIS_URL or the split
// REDIS_ADDR/REDIS_USER/REDIS_PASSWORD fields.
func newRedis() (*redis.Client, error) {
	if url := os.Getenv("UPSTASH_REDIS_URL"); url != "" {
		opt, err := redis.ParseURL(url) // e.g. rediss://default:<token>@host:port
		if err != nil {
			return nil, err
		}
		opt.DialTimeout = 5 * time.Second
		opt.ReadTimeout = 1 * time.Second
		opt.WriteTimeout = 1 * time.Second
		return redis.NewClient(opt), nil
	}

	addr := os.Getenv("REDIS_ADDR") // host:port (no scheme)
	if addr == "" {
		return nil, errors.New("set UPSTASH_REDIS_URL or REDIS_ADDR/REDIS_USER/REDIS_PASSWORD")
	}
	opts := &redis.Options{
		Addr:         addr,
		Username:     os.Getenv("REDIS_USER"),
		Password:     os.Getenv("REDIS_PASSWORD"),
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	}
	if os.Getenv("REDIS_TLS") != "0" {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return redis.NewClient(opts), nil
}
