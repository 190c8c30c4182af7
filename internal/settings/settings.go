// Package settings exposes the system settings the testing surfaces rely
// on, currently the quick-test and test-task timeouts.
package settings

import (
	"strconv"
	"strings"
	"time"

	"github.com/vk/promptworks/internal/store"
)

// TestingTimeoutKey is the settings-store key for timeout configuration.
const TestingTimeoutKey = "testing_timeout"

// Defaults applied when a timeout is unset or unusable.
const (
	DefaultQuickTestTimeout = 30.0
	DefaultTestTaskTimeout  = 30.0
)

// TestingTimeouts is the timeout configuration for quick tests and test
// tasks, in seconds.
type TestingTimeouts struct {
	QuickTestTimeout float64    `json:"quick_test_timeout"`
	TestTaskTimeout  float64    `json:"test_task_timeout"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
}

// Service reads and writes testing timeouts on top of the settings store.
type Service struct {
	store *store.Store
}

// NewService creates a settings service over the store.
func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

// TestingTimeouts returns the stored timeout configuration, falling back to
// the defaults for anything unset or invalid.
func (s *Service) TestingTimeouts() TestingTimeouts {
	record := s.store.GetSetting(TestingTimeoutKey)
	if record == nil {
		return TestingTimeouts{
			QuickTestTimeout: DefaultQuickTestTimeout,
			TestTaskTimeout:  DefaultTestTaskTimeout,
		}
	}
	updatedAt := record.UpdatedAt
	return TestingTimeouts{
		QuickTestTimeout: coerceTimeout(record.Value["quick_test_timeout"], DefaultQuickTestTimeout),
		TestTaskTimeout:  coerceTimeout(record.Value["test_task_timeout"], DefaultTestTaskTimeout),
		UpdatedAt:        &updatedAt,
	}
}

// UpdateTestingTimeouts sanitizes and stores new timeout values, returning
// the effective configuration.
func (s *Service) UpdateTestingTimeouts(quickTest, testTask float64) TestingTimeouts {
	sanitizedQuick := coerceTimeout(quickTest, DefaultQuickTestTimeout)
	sanitizedTask := coerceTimeout(testTask, DefaultTestTaskTimeout)
	record := s.store.PutSetting(TestingTimeoutKey, map[string]any{
		"quick_test_timeout": sanitizedQuick,
		"test_task_timeout":  sanitizedTask,
	}, "Timeouts (seconds) for quick tests and test tasks.")
	updatedAt := record.UpdatedAt
	return TestingTimeouts{
		QuickTestTimeout: sanitizedQuick,
		TestTaskTimeout:  sanitizedTask,
		UpdatedAt:        &updatedAt,
	}
}

// coerceTimeout turns arbitrary input into a usable timeout in seconds.
// Non-numeric, unparseable, and non-positive values fall back to the
// default.
func coerceTimeout(value any, fallback float64) float64 {
	var numeric float64
	switch v := value.(type) {
	case int:
		numeric = float64(v)
	case int64:
		numeric = float64(v)
	case float64:
		numeric = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fallback
		}
		numeric = parsed
	default:
		return fallback
	}
	if numeric <= 0 {
		return fallback
	}
	return numeric
}
