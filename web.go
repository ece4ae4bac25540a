/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Seednode/impostor/internal/archive"
	"github.com/Seednode/impostor/internal/game"
	"github.com/Seednode/impostor/internal/gateway"
	"github.com/Seednode/impostor/internal/questions"
	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
)

const (
	logDate string        = `2006-01-02T15:04:05.000-07:00`
	timeout time.Duration = 10 * time.Second
)

const robots = `User-agent: Amazonbot
Disallow: /

User-agent: Applebot-Extended
Disallow: /

User-agent: Bytespider
Disallow: /

User-agent: CCBot
Disallow: /

User-agent: ClaudeBot
Disallow: /

User-agent: Google-Extended
Disallow: /

User-agent: GPTBot
Disallow: /

User-agent: meta-externalagent
Disallow: /`

func securityHeaders(cfg *Config, w http.ResponseWriter) {
	w.Header().Set("Cross-Origin-Embedder-Policy", "require-corp")
	w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
	w.Header().Set("Cross-Origin-Resource-Policy", "same-site")
	w.Header().Set("Permissions-Policy", "geolocation=(), midi=(), sync-xhr=(), microphone=(), camera=(), magnetometer=(), gyroscope=(), fullscreen=(), payment=()")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'unsafe-inline'")

	if cfg.scheme() == "https" {
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
	}
}

func realIP(r *http.Request) string {
	host, port, _ := net.SplitHostPort(r.RemoteAddr)
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	} else if ip := r.Header.Get("X-Real-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	}
	if net.ParseIP(host) != nil && strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		return host + ":" + port
	}
	return host
}

func humanReadableSize(bytes int) string {
	const unit = 1000
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := unit, 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "kMGTPE"[exp])
}

// writeText serves a small plain text response and logs it.
func writeText(cfg *Config, w http.ResponseWriter, r *http.Request, what, body string, errs chan<- error) {
	startTime := time.Now()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	securityHeaders(cfg, w)

	written, err := io.WriteString(w, body)
	if err != nil {
		errs <- err

		return
	}

	logf(cfg, "SERVE: %s (%s) to %s in %s",
		what,
		humanReadableSize(written),
		realIP(r),
		time.Since(startTime).Round(time.Microsecond),
	)
}

func serveVersion(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		writeText(cfg, w, r, "Version page", "impostor v"+releaseVersion+"\n", errs)
	}
}

func serveHealthCheck(cfg *Config, registry *game.Registry, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("X-Active-Rooms", strconv.Itoa(registry.Len()))

		writeText(cfg, w, r, "Health check", "Ok\n", errs)
	}
}

func serveRobots(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))

		writeText(cfg, w, r, "Robots", robots, errs)
	}
}

// serveHomePage is where join QR codes land. The player clients are served
// separately, so this only tells people what to do with the PIN.
func serveHomePage(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		body := "Open Impostor on your phone to join a room."
		if pin := r.URL.Query().Get("pin"); pin != "" {
			body = "Open Impostor on your phone and join room " + html.EscapeString(pin) + "."
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)

		if _, err := io.WriteString(w, newPage("Impostor", body)); err != nil {
			errs <- err
		}
	}
}

func registerProfileHandlers(cfg *Config, mux *httprouter.Router) {
	for _, name := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
		mux.Handler("GET", cfg.prefix+"/pprof/"+name, pprof.Handler(name))
	}

	for name, handler := range map[string]http.HandlerFunc{
		"cmdline": pprof.Cmdline,
		"profile": pprof.Profile,
		"symbol":  pprof.Symbol,
		"trace":   pprof.Trace,
	} {
		mux.HandlerFunc("GET", cfg.prefix+"/pprof/"+name, handler)
	}
}

func loadCatalog(cfg *Config) (*questions.Catalog, error) {
	if cfg.questions == "" {
		return questions.Default()
	}

	return questions.Load(cfg.questions)
}

// openArchive connects to redis when an address is configured. A nil
// repository means finished games are not archived.
func openArchive(cfg *Config) (archive.Repository, func(), error) {
	if cfg.redisAddr == "" {
		return nil, func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.redisAddr,
		Password: cfg.redisPassword,
		DB:       cfg.redisDB,
	})

	repo, err := archive.NewRedis(&archive.Config{
		RedisClient: client,
		TTL:         cfg.archiveTTL,
	})
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	logf(cfg, "START: Archiving finished games to redis at %s", cfg.redisAddr)

	return repo, func() { _ = client.Close() }, nil
}

func ServePage(ctx context.Context, cfg *Config) error {
	var err error

	timeZone := os.Getenv("TZ")
	if timeZone != "" {
		time.Local, err = time.LoadLocation(timeZone)
		if err != nil {
			return err
		}
	}

	logf(cfg, "START: impostor v%s", releaseVersion)

	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	group, impostor := catalog.Len()
	logf(cfg, "START: Loaded %d group and %d impostor questions", group, impostor)

	repo, closeArchive, err := openArchive(cfg)
	if err != nil {
		return err
	}
	defer closeArchive()

	registry, err := game.NewRegistry(&game.Config{
		MinPlayers:      cfg.minPlayers,
		MaxPlayers:      cfg.maxPlayers,
		DefaultSettings: cfg.settings(),
		GracePeriod:     cfg.gracePeriod,
		ResultsDelay:    cfg.resultsDelay,
		SessionTimeout:  cfg.sessionTimeout,
		GroupPoints:     cfg.groupPoints,
		ImpostorPoints:  cfg.impostorPoints,
		Catalog:         catalog,
		Archive:         repo,
		Logf:            logger(cfg),
	})
	if err != nil {
		return err
	}
	registry.Start()
	defer registry.Shutdown()

	cfg.prefix = strings.TrimSuffix(cfg.prefix, "/")

	gw, err := gateway.New(&gateway.Config{
		Registry:      registry,
		Archive:       repo,
		Prefix:        cfg.prefix,
		AllowedOrigin: cfg.allowedOrigin,
		Headers: func(w http.ResponseWriter) {
			securityHeaders(cfg, w)
		},
		Logf: logger(cfg),
	})
	if err != nil {
		return err
	}

	mux := httprouter.New()

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.bind, strconv.Itoa(cfg.port)),
		Handler:           mux,
		IdleTimeout:       10 * time.Minute,
		ReadTimeout:       timeout,
		ReadHeaderTimeout: timeout,
		WriteTimeout:      timeout,
	}

	mux.PanicHandler = func(w http.ResponseWriter, r *http.Request, i any) {
		errorf("Recovered from panic serving %s: %v", r.URL.Path, i)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)
		w.WriteHeader(http.StatusInternalServerError)

		io.WriteString(w, newPage("Server Error", "An error has occurred. Please try again."))
	}

	errs := make(chan error, 64)
	go func() {
		for err := range errs {
			logf(cfg, "ERROR: %v", err)
		}
	}()

	mux.GET(cfg.prefix+"/", serveHomePage(cfg, errs))

	mux.GET(cfg.prefix+"/healthz", serveHealthCheck(cfg, registry, errs))

	mux.GET(cfg.prefix+"/robots.txt", serveRobots(cfg, errs))

	mux.GET(cfg.prefix+"/version", serveVersion(cfg, errs))

	if cfg.profile {
		registerProfileHandlers(cfg, mux)
	}

	gw.Register(mux)

	go func() {
		var err error
		logf(cfg, "SERVE: Listening on %s://%s%s/", cfg.scheme(), srv.Addr, cfg.prefix)
		if cfg.tlsKey != "" && cfg.tlsCert != "" {
			err = srv.ListenAndServeTLS(cfg.tlsCert, cfg.tlsKey)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errorf("%v", err)
		}
	}()

	<-ctx.Done()
	logf(cfg, "SERVE: Shutting down")

	// Closing rooms first sends every client a final event before the
	// listener goes away.
	registry.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	return nil
}
