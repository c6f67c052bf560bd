package router

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aashish4533/bloombook/internal/api/handlers"
	"github.com/aashish4533/bloombook/internal/api/handlers/community"
	"github.com/aashish4533/bloombook/internal/api/handlers/listings"
	"github.com/aashish4533/bloombook/internal/api/handlers/wizard"
	"github.com/aashish4533/bloombook/internal/api/middlewares"
	"github.com/aashish4533/bloombook/internal/auth"
	"github.com/aashish4533/bloombook/internal/metrics"
)

// Deps is everything the routes need. With a nil RDB the rate limiters
// fail open.
type Deps struct {
	DB        *sql.DB
	RDB       *redis.Client
	Users     middlewares.TokenVersioner
	Auth      *auth.Handler
	Wizard    *wizard.Handler
	Listings  *listings.Handler
	Community *community.Handler
	Metrics   *metrics.Metrics
	Log       *zap.Logger
}

func Router(d Deps) http.Handler {
	mux := http.NewServeMux()

	authed := func(h http.HandlerFunc) http.Handler {
		return middlewares.RequireAuth(d.Users, h)
	}
	// wizard transitions are throttled per user on top of the global limiters
	wizardMW := []middlewares.Middleware{}
	if d.RDB != nil {
		wizardMW = append(wizardMW,
			middlewares.NewRedisSlidingWindow(d.RDB, 120, time.Minute, middlewares.PerUserKey("rl:wizard"), d.Log).Middleware)
	}
	wz := func(h http.HandlerFunc) http.Handler {
		return middlewares.RequireAuth(d.Users, middlewares.Chain(h, wizardMW...))
	}
	login := func(h http.HandlerFunc) http.Handler {
		return middlewares.LoginRateLimit(d.RDB, h)
	}

	// Root
	mux.HandleFunc("GET /", handlers.RootHandler)
	mux.Handle("GET /healthz", handlers.Health(d.DB, d.RDB))
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics.Handler())
	}

	// Auth
	mux.Handle("POST /auth/register", login(d.Auth.Register))
	mux.Handle("POST /auth/login", login(d.Auth.Login))
	mux.HandleFunc("POST /auth/refresh", d.Auth.Refresh)
	mux.Handle("POST /auth/logout", authed(d.Auth.Logout))
	mux.Handle("GET /auth/me", authed(d.Auth.Me))

	// Listing wizard (sell | rent)
	mux.Handle("POST /listings/wizard/{kind}", wz(d.Wizard.Start))
	mux.Handle("GET /listings/wizard/{kind}", wz(d.Wizard.Get))
	mux.Handle("POST /listings/wizard/{kind}/next", wz(d.Wizard.Next))
	mux.Handle("POST /listings/wizard/{kind}/back", wz(d.Wizard.Back))
	mux.Handle("POST /listings/wizard/{kind}/edit/{step}", wz(d.Wizard.Edit))
	mux.Handle("POST /listings/wizard/{kind}/submit", wz(d.Wizard.Submit))
	mux.Handle("POST /listings/wizard/{kind}/reset", wz(d.Wizard.Reset))
	mux.Handle("DELETE /listings/wizard/{kind}", wz(d.Wizard.Cancel))

	// Listings
	mux.HandleFunc("GET /listings", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/listings/", http.StatusMovedPermanently)
	})
	mux.HandleFunc("GET /listings/", d.Listings.List)
	mux.HandleFunc("GET /listings/{key}", d.Listings.Get)
	mux.Handle("DELETE /listings/{key}", authed(d.Listings.Delete))
	mux.Handle("POST /listings/images", authed(d.Listings.PresignImage))
	mux.Handle("DELETE /listings/images/{key...}", authed(d.Listings.DeleteImage))

	// Community
	mux.HandleFunc("GET /community/posts", d.Community.ListPosts)
	mux.Handle("POST /community/posts", authed(d.Community.CreatePost))
	mux.HandleFunc("GET /community/posts/{id}/comments", d.Community.ListComments)
	mux.Handle("POST /community/posts/{id}/comments", authed(d.Community.AddComment))

	return mux
}
