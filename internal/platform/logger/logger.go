// Package logger provides a zerolog wrapper with opinionated defaults and
// rule-scoped logging support
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Options configures the logger
type Options struct {
	Level     string
	Format    string
	Service   string
	Component string
	Writer    io.Writer
	WithCaller bool
}

// FromEnv builds Options straight from LOG_* env vars.
// It reads the environment directly so config can log during its own boot
func FromEnv() Options {
	get := func(k, def string) string {
		if v := strings.TrimSpace(os.Getenv("LOG_" + k)); v != "" {
			return v
		}
		return def
	}
	return Options{
		Level:      strings.ToLower(get("LEVEL", "info")),
		Format:     strings.ToLower(get("FORMAT", "console")),
		Service:    get("SERVICE", ""),
		Component:  get("COMPONENT", ""),
		WithCaller: get("CALLER", "") == "true",
	}
}

var (
	once   sync.Once
	root   atomic.Pointer[zerolog.Logger]
	inited atomic.Bool
)

// Logger is the project-wide logging type
type Logger = zerolog.Logger

// Get returns the process-wide root logger as a pointer
func Get() *Logger {
	if !inited.Load() {
		Init(FromEnv())
	}
	return root.Load()
}

// Init configures zerolog and builds the root logger, safe to call once
func Init(opt Options) {
	once.Do(func() {
		zerolog.TimeFieldFormat = time.RFC3339Nano

		var w io.Writer = os.Stdout
		if opt.Writer != nil {
			w = opt.Writer
		}
		if opt.Format == "console" {
			w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		}

		ctx := zerolog.New(w).Level(parseLevel(opt.Level)).With().Timestamp()
		if opt.Service != "" {
			ctx = ctx.Str("service", opt.Service)
		}
		if opt.Component != "" {
			ctx = ctx.Str("component", opt.Component)
		}

		log := ctx.Logger()
		if opt.WithCaller {
			log = log.With().Caller().Logger()
		}

		root.Store(&log)
		inited.Store(true)
	})
}

func parseLevel(s string) zerolog.Level {
	switch strings.TrimSpace(s) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

type ctxKey struct{ name string }

var keyRuleID = ctxKey{"rule_id"}

// WithRule annotates ctx so log lines produced during a rule's execution
// carry the rule id
func WithRule(ctx context.Context, ruleID string) context.Context {
	if ruleID == "" {
		return ctx
	}
	return context.WithValue(ctx, keyRuleID, ruleID)
}

// C returns a child logger enriched from ctx (rule_id)
func C(ctx context.Context) *Logger {
	l := Get()
	if v, ok := ctx.Value(keyRuleID).(string); ok && v != "" {
		ll := l.With().Str("rule_id", v).Logger()
		return &ll
	}
	return l
}

// Named returns a child logger with a component field
func Named(component string) *Logger {
	if component == "" {
		return Get()
	}
	ll := Get().With().Str("component", component).Logger()
	return &ll
}
