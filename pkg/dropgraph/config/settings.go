package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/randalmurphal/dropgraph/pkg/dropgraph/event"
	"github.com/randalmurphal/dropgraph/pkg/dropgraph/observability"
	"github.com/randalmurphal/dropgraph/pkg/dropgraph/status"
)

// Keys read by SettingsFrom.
const (
	KeyDelivery     = "delivery"
	KeyLogLevel     = "log_level"
	KeyMetrics      = "metrics"
	KeyTracing      = "tracing"
	KeyStatusStore  = "status_store"
	KeyStatusPath   = "status_path"
	KeyAutoComplete = "auto_complete"
	KeyAwaitTimeout = "await_timeout"
)

// Status store kinds.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// ErrInvalidSettings is returned when a setting has an unusable value.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings are the knobs of a propagation run.
type Settings struct {
	Delivery     event.Mode
	LogLevel     slog.Level
	Metrics      bool
	Tracing      bool
	StatusStore  string
	StatusPath   string
	AutoComplete bool
	AwaitTimeout time.Duration
}

// DefaultSettings returns sequential delivery, info logging, no telemetry
// and an in-memory status store.
func DefaultSettings() Settings {
	return Settings{
		Delivery:     event.ModeSequential,
		LogLevel:     slog.LevelInfo,
		StatusStore:  StoreMemory,
		AwaitTimeout: 30 * time.Second,
	}
}

// SettingsFrom reads Settings from c, starting from DefaultSettings.
// All problems are reported together.
func SettingsFrom(c Config) (Settings, error) {
	s := DefaultSettings()
	var errs []error

	mode, err := event.ParseMode(c.String(KeyDelivery, string(s.Delivery)))
	if err != nil {
		errs = append(errs, err)
	} else {
		s.Delivery = mode
	}

	if c.Has(KeyLogLevel) {
		if err := s.LogLevel.UnmarshalText([]byte(c.String(KeyLogLevel, ""))); err != nil {
			errs = append(errs, fmt.Errorf("log_level: %w", err))
		}
	}

	s.Metrics = c.Bool(KeyMetrics, s.Metrics)
	s.Tracing = c.Bool(KeyTracing, s.Tracing)
	s.AutoComplete = c.Bool(KeyAutoComplete, s.AutoComplete)
	s.AwaitTimeout = c.Duration(KeyAwaitTimeout, s.AwaitTimeout)

	s.StatusStore = strings.ToLower(c.String(KeyStatusStore, s.StatusStore))
	s.StatusPath = c.String(KeyStatusPath, s.StatusPath)
	switch s.StatusStore {
	case StoreMemory:
	case StoreSQLite:
		if s.StatusPath == "" {
			errs = append(errs, errors.New("status_path is required for the sqlite status store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown status_store %q", s.StatusStore))
	}

	if len(errs) > 0 {
		return Settings{}, fmt.Errorf("%w: %w", ErrInvalidSettings, errors.Join(errs...))
	}
	return s, nil
}

// Logger returns a text logger writing to w at the configured level.
func (s Settings) Logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: s.LogLevel}))
}

// MetricsRecorder returns the otel recorder when metrics are enabled.
func (s Settings) MetricsRecorder() observability.MetricsRecorder {
	if s.Metrics {
		return observability.NewMetricsRecorder()
	}
	return observability.NoopMetrics{}
}

// SpanManager returns the otel span manager when tracing is enabled.
func (s Settings) SpanManager() observability.SpanManager {
	if s.Tracing {
		return observability.NewSpanManager()
	}
	return observability.NoopSpanManager{}
}

// Broadcaster builds the configured broadcaster.
func (s Settings) Broadcaster(logger *slog.Logger, opts ...event.Option) event.Broadcaster {
	base := []event.Option{
		event.WithLogger(logger),
		event.WithMetrics(s.MetricsRecorder()),
		event.WithSpanManager(s.SpanManager()),
	}
	return event.New(s.Delivery, append(base, opts...)...)
}

// OpenStore opens the configured status store.
func (s Settings) OpenStore() (status.Store, error) {
	switch s.StatusStore {
	case StoreSQLite:
		return status.NewSQLiteStore(s.StatusPath)
	case StoreMemory, "":
		return status.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: unknown status_store %q", ErrInvalidSettings, s.StatusStore)
	}
}
