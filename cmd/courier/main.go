// ABOUTME: Entry point for the courier relay bot
// ABOUTME: Wires configuration, the Discord gateway, and the relay core together

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/stormex-rc/courier/internal/config"
	"github.com/stormex-rc/courier/internal/conversation"
	"github.com/stormex-rc/courier/internal/dedupe"
	"github.com/stormex-rc/courier/internal/invite"
	"github.com/stormex-rc/courier/internal/pending"
	"github.com/stormex-rc/courier/internal/platform"
	"github.com/stormex-rc/courier/internal/relay"
	"github.com/stormex-rc/courier/internal/session"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
                      _
  ___ ___  _   _ _ __(_) ___ _ __
 / __/ _ \| | | | '__| |/ _ \ '__|
| (_| (_) | |_| | |  | |  __/ |
 \___\___/ \__,_|_|  |_|\___|_|
`

const (
	dedupeTTL     = 10 * time.Minute
	dedupeMaxSize = 4096
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// A local .env is optional; config env expansion picks its values up.
	_ = godotenv.Load()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	configPath, err := config.ResolvePath()
	if err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config: %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Owner:  %s\n", cfg.Relay.OwnerID)
	if cfg.HTTP.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("HTTP:   %s\n", cfg.HTTP.Addr)
	}
	fmt.Println()

	logger.Info("starting courier",
		"config", configPath,
		"owner", cfg.Relay.OwnerID,
	)

	owner := platform.UserID(cfg.Relay.OwnerID)

	gw, err := NewDiscordGateway(cfg.Discord, logger)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}

	registry := conversation.NewRegistry(logger)
	table := pending.NewTable()
	seen := dedupe.New(dedupeTTL, dedupeMaxSize)
	defer seen.Close()

	invites := invite.New(gw, registry, invite.Options{
		Owner:         owner,
		PromptTimeout: cfg.Relay.InvitePromptTimeout,
	}, logger)
	sessions := session.NewManager(gw, registry, invites, session.Options{Owner: owner}, logger)
	router := relay.New(gw, registry, table, invites, sessions, seen, relay.Config{
		Owner:           owner,
		CommandPrefix:   cfg.Relay.CommandPrefix,
		RejectNoticeTTL: cfg.Relay.RejectNoticeTTL,
	}, logger)

	if cfg.HTTP.Enabled {
		startKeepalive(ctx, cfg.HTTP.Addr, logger)
	}

	return gw.Run(ctx, router)
}

// startKeepalive serves a minimal liveness endpoint so hosting platforms that
// ping the process keep it awake.
func startKeepalive(ctx context.Context, addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "courier is running")
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"ok"}`)
	})

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		logger.Info("keepalive endpoint listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("keepalive server failed", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("keepalive shutdown failed", "error", err)
		}
	}()
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = &colorHandler{level: level}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	buf.WriteString(r.Message)

	// Handler-level attrs first (from WithAttrs), then record attrs
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}
