package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danmuck/cribbage/internal/observability"
	"github.com/danmuck/cribbage/internal/table"
)

const version = "0.1.0"

// TableSource is the orchestrator surface the admin API reads.
type TableSource interface {
	Snapshot() table.Snapshot
	Done() <-chan struct{}
}

// Admin serves the read-only HTTP surface for one table.
type Admin struct {
	router  *gin.Engine
	source  TableSource
	started time.Time
}

func NewAdmin(node string, corsOrigins []string, source TableSource) *Admin {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(observability.ComponentLogger("admin")))
	r.Use(observability.RequestMetricsMiddleware(node))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	a := &Admin{router: r, source: source, started: time.Now()}
	a.routes()
	return a
}

func (a *Admin) Handler() http.Handler { return a.router }

func (a *Admin) routes() {
	a.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"uptime":    time.Since(a.started).String(),
			"component": "cribbage-table",
			"version":   version,
		})
	})

	a.router.GET("/ready", func(c *gin.Context) {
		snap := a.source.Snapshot()
		ready := !a.finished()
		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"ready":   ready,
			"game_id": snap.GameID,
			"phase":   snap.Phase,
		})
	})

	a.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	a.router.GET("/table", func(c *gin.Context) {
		c.JSON(http.StatusOK, a.source.Snapshot())
	})
}

func (a *Admin) finished() bool {
	select {
	case <-a.source.Done():
		return true
	default:
		return false
	}
}

// Serve runs the admin API on addr until ctx is canceled or the table
// finishes.
func (a *Admin) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           a.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logger := observability.ComponentLogger("admin")
	logger.Info().Str("addr", ln.Addr().String()).Msg("server.Admin.Serve start")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	case <-a.source.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, origin := range origins {
		if o := strings.TrimSpace(origin); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"http://localhost:3000"}
	}
	return out
}
