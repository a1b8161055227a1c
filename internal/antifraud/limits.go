package antifraud

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// LimitsSource supplies the limits in force at the time of the call.
type LimitsSource interface {
	Limits() Limits
}

// StaticLimits is a LimitsSource that never changes.
type StaticLimits Limits

func (s StaticLimits) Limits() Limits { return Limits(s) }

type limitsFile struct {
	MaxTransactionValue  string `yaml:"max_transaction_value"`
	MaxDailyAccumulation string `yaml:"max_daily_accumulation"`
}

// LimitsLoader reads limits from a YAML file and keeps them current while
// Watch runs. Keys missing from the file keep their fallback value; a file
// that fails to parse leaves the previous limits in place.
type LimitsLoader struct {
	path     string
	fallback Limits
	current  atomic.Pointer[Limits]
	logger   *slog.Logger
}

func NewLimitsLoader(path string, fallback Limits, logger *slog.Logger) (*LimitsLoader, error) {
	l := &LimitsLoader{
		path:     filepath.Clean(path),
		fallback: fallback,
		logger:   logger.With("component", "limits", "path", path),
	}

	if _, err := l.Reload(); err != nil {
		return nil, err
	}

	return l, nil
}

func (l *LimitsLoader) Limits() Limits {
	return *l.current.Load()
}

// Reload re-reads the file and swaps the limits in when they are valid.
func (l *LimitsLoader) Reload() (Limits, error) {
	limits, err := l.load()
	if err != nil {
		return Limits{}, err
	}

	l.current.Store(&limits)

	return limits, nil
}

// Watch reloads the file whenever it changes until ctx is done. The parent
// directory is watched so editors that replace the file are picked up.
func (l *LimitsLoader) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("limits watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(l.path)); err != nil {
		return fmt.Errorf("limits watcher add %s: %w", l.path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(ev.Name) != l.path || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}

			limits, err := l.Reload()
			if err != nil {
				l.logger.Error("reloading limits, keeping previous values", "error", err)
				continue
			}

			l.logger.Info("limits reloaded",
				"max_transaction_value", limits.MaxTransactionValue.String(),
				"max_daily_accumulation", limits.MaxDailyAccumulation.String())
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}

			l.logger.Warn("limits watcher error", "error", err)
		}
	}
}

func (l *LimitsLoader) load() (Limits, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return Limits{}, fmt.Errorf("read limits %s: %w", l.path, err)
	}

	// A truncated file shows up as empty between the truncate and the write.
	if len(bytes.TrimSpace(data)) == 0 {
		return Limits{}, fmt.Errorf("limits %s is empty", l.path)
	}

	var f limitsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Limits{}, fmt.Errorf("parse limits %s: %w", l.path, err)
	}

	limits := l.fallback

	if f.MaxTransactionValue != "" {
		if limits.MaxTransactionValue, err = decimal.NewFromString(f.MaxTransactionValue); err != nil {
			return Limits{}, fmt.Errorf("parse max_transaction_value: %w", err)
		}
	}

	if f.MaxDailyAccumulation != "" {
		if limits.MaxDailyAccumulation, err = decimal.NewFromString(f.MaxDailyAccumulation); err != nil {
			return Limits{}, fmt.Errorf("parse max_daily_accumulation: %w", err)
		}
	}

	if err := limits.Validate(); err != nil {
		return Limits{}, fmt.Errorf("limits %s: %w", l.path, err)
	}

	return limits, nil
}
