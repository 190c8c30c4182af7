// Package store provides an ephemeral, thread-safe, in-memory system of
// record for the service: LLM providers and their models, prompt-test runs
// and their execution results, quick-test usage logs, and system settings.
//
// It is created fresh per process and torn down with it; workflows that
// need durable state would swap in a different implementation behind the
// same methods.
package store

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	ErrProviderNotFound  = errors.New("store: provider not found")
	ErrModelNotFound     = errors.New("store: model not found")
	ErrTestRunNotFound   = errors.New("store: test run not found")
	ErrDuplicateProvider = errors.New("store: a provider with the same name and base URL already exists")
	ErrDuplicateModel    = errors.New("store: a model with the same name already exists for this provider")
)

// Provider is one configured LLM provider.
type Provider struct {
	ID               int64
	ProviderKey      string
	ProviderName     string
	BaseURL          string
	APIKey           string
	LogoEmoji        string
	LogoURL          string
	IsCustom         bool
	IsArchived       bool
	DefaultModelName string
	Params           map[string]any
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Model is one model configured under a provider.
type Model struct {
	ID               int64
	ProviderID       int64
	Name             string
	Capability       string
	ConcurrencyLimit int
	Quota            int
	CreatedAt        time.Time
}

// RunStatus is the lifecycle state of a test run.
type RunStatus string

const (
	RunStatusPending  RunStatus = "pending"
	RunStatusRunning  RunStatus = "running"
	RunStatusFinished RunStatus = "finished"
	RunStatusFailed   RunStatus = "failed"
)

// TestRun is one repeated prompt experiment.
type TestRun struct {
	ID        int64
	Name      string
	Status    RunStatus
	CreatedAt time.Time
}

// ResultRecord is one execution record collected under a test run.
type ResultRecord struct {
	ID         int64
	TestRunID  int64
	RunIndex   int
	UnitID     any
	UnitName   string
	LatencyMS  any
	TokensUsed any
	CreatedAt  time.Time
}

// UsageLog records one LLM invocation's spend and output.
type UsageLog struct {
	ID               string
	ProviderID       int64
	ModelID          int64
	ModelName        string
	Source           string
	Messages         []map[string]any
	Parameters       map[string]any
	ResponseText     string
	Temperature      *float64
	LatencyMS        int64
	PromptTokens     *int64
	CompletionTokens *int64
	TotalTokens      *int64
	CreatedAt        time.Time
}

// SettingRecord is one namespaced system setting.
type SettingRecord struct {
	Key         string
	Value       map[string]any
	Description string
	UpdatedAt   time.Time
}

// Store is the in-memory implementation. A single mutex guards all state;
// the write volume here is administrative, not hot-path.
type Store struct {
	mu sync.RWMutex

	providers map[int64]*Provider
	models    map[int64]*Model
	runs      map[int64]*TestRun
	results   map[int64][]*ResultRecord
	usageLogs []*UsageLog
	settings  map[string]*SettingRecord

	nextProviderID int64
	nextModelID    int64
	nextRunID      int64
	nextResultID   int64
}

// New creates an empty store.
func New() *Store {
	return &Store{
		providers: make(map[int64]*Provider),
		models:    make(map[int64]*Model),
		runs:      make(map[int64]*TestRun),
		results:   make(map[int64][]*ResultRecord),
		settings:  make(map[string]*SettingRecord),
	}
}

// CreateProvider stores a new provider. Fails when a non-archived provider
// with the same name and base URL exists.
func (s *Store) CreateProvider(p Provider) (*Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.providers {
		if !existing.IsArchived &&
			existing.ProviderName == p.ProviderName &&
			existing.BaseURL == p.BaseURL {
			return nil, ErrDuplicateProvider
		}
	}
	s.nextProviderID++
	now := time.Now()
	p.ID = s.nextProviderID
	p.CreatedAt = now
	p.UpdatedAt = now
	stored := p
	s.providers[stored.ID] = &stored
	copied := stored
	return &copied, nil
}

// GetProvider returns a copy of the provider. Archived providers are only
// returned when includeArchived is set.
func (s *Store) GetProvider(id int64, includeArchived bool) (*Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.providers[id]
	if !ok || (p.IsArchived && !includeArchived) {
		return nil, ErrProviderNotFound
	}
	copied := *p
	return &copied, nil
}

// ListProviders returns non-archived providers, newest-updated first,
// optionally filtered by a case-insensitive name substring.
func (s *Store) ListProviders(nameFilter string, limit, offset int) []*Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Provider
	filter := strings.ToLower(nameFilter)
	for _, p := range s.providers {
		if p.IsArchived {
			continue
		}
		if filter != "" && !strings.Contains(strings.ToLower(p.ProviderName), filter) {
			continue
		}
		copied := *p
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return paginate(out, limit, offset)
}

// UpdateProvider applies the mutation function to the provider under the
// store's lock and bumps its update timestamp.
func (s *Store) UpdateProvider(id int64, mutate func(*Provider) error) (*Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.providers[id]
	if !ok || p.IsArchived {
		return nil, ErrProviderNotFound
	}
	if err := mutate(p); err != nil {
		return nil, err
	}
	p.UpdatedAt = time.Now()
	copied := *p
	return &copied, nil
}

// DeleteProvider removes the provider and all of its models.
func (s *Store) DeleteProvider(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.providers[id]; !ok {
		return ErrProviderNotFound
	}
	delete(s.providers, id)
	for modelID, model := range s.models {
		if model.ProviderID == id {
			delete(s.models, modelID)
		}
	}
	return nil
}

// CreateModel adds a model under a provider. Model names are unique within
// a provider.
func (s *Store) CreateModel(providerID int64, m Model) (*Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.providers[providerID]
	if !ok || p.IsArchived {
		return nil, ErrProviderNotFound
	}
	for _, existing := range s.models {
		if existing.ProviderID == providerID && existing.Name == m.Name {
			return nil, ErrDuplicateModel
		}
	}
	s.nextModelID++
	m.ID = s.nextModelID
	m.ProviderID = providerID
	m.CreatedAt = time.Now()
	stored := m
	s.models[stored.ID] = &stored
	copied := stored
	return &copied, nil
}

// GetModel returns a copy of the model if it belongs to the provider.
func (s *Store) GetModel(providerID, modelID int64) (*Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.models[modelID]
	if !ok || m.ProviderID != providerID {
		return nil, ErrModelNotFound
	}
	copied := *m
	return &copied, nil
}

// FindModelByName returns the provider's model with the given name.
func (s *Store) FindModelByName(providerID int64, name string) (*Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.models {
		if m.ProviderID == providerID && m.Name == name {
			copied := *m
			return &copied, nil
		}
	}
	return nil, ErrModelNotFound
}

// ListModels returns the provider's models in creation order.
func (s *Store) ListModels(providerID int64) []*Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Model
	for _, m := range s.models {
		if m.ProviderID == providerID {
			copied := *m
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// UpdateModel applies the mutation function to the model under the lock.
func (s *Store) UpdateModel(providerID, modelID int64, mutate func(*Model)) (*Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.models[modelID]
	if !ok || m.ProviderID != providerID {
		return nil, ErrModelNotFound
	}
	mutate(m)
	copied := *m
	return &copied, nil
}

// DeleteModel removes the model. When it was the provider's last model the
// provider is archived, mirroring the card lifecycle in the UI.
func (s *Store) DeleteModel(providerID, modelID int64) (remaining int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.providers[providerID]
	if !ok {
		return 0, ErrProviderNotFound
	}
	m, ok := s.models[modelID]
	if !ok || m.ProviderID != providerID {
		return 0, ErrModelNotFound
	}
	delete(s.models, modelID)
	for _, other := range s.models {
		if other.ProviderID == providerID {
			remaining++
		}
	}
	if remaining == 0 {
		p.IsArchived = true
		p.UpdatedAt = time.Now()
	}
	return remaining, nil
}

// CreateTestRun stores a new test run.
func (s *Store) CreateTestRun(name string, status RunStatus) *TestRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRunID++
	run := &TestRun{ID: s.nextRunID, Name: name, Status: status, CreatedAt: time.Now()}
	s.runs[run.ID] = run
	copied := *run
	return &copied
}

// GetTestRun returns a copy of the test run.
func (s *Store) GetTestRun(id int64) (*TestRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, ErrTestRunNotFound
	}
	copied := *run
	return &copied, nil
}

// AppendResult records one execution result under a test run.
func (s *Store) AppendResult(record ResultRecord) (*ResultRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[record.TestRunID]; !ok {
		return nil, ErrTestRunNotFound
	}
	s.nextResultID++
	record.ID = s.nextResultID
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	stored := record
	s.results[record.TestRunID] = append(s.results[record.TestRunID], &stored)
	copied := stored
	return &copied, nil
}

// ListResults returns the run's results ordered by run index, then id.
func (s *Store) ListResults(testRunID int64) []*ResultRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.results[testRunID]
	out := make([]*ResultRecord, 0, len(records))
	for _, r := range records {
		copied := *r
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RunIndex != out[j].RunIndex {
			return out[i].RunIndex < out[j].RunIndex
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// AppendUsageLog records one LLM invocation.
func (s *Store) AppendUsageLog(log UsageLog) *UsageLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	stored := log
	s.usageLogs = append(s.usageLogs, &stored)
	copied := stored
	return &copied
}

// ListUsageLogs returns logs from the given source, newest first.
func (s *Store) ListUsageLogs(source string, limit, offset int) []*UsageLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*UsageLog
	for i := len(s.usageLogs) - 1; i >= 0; i-- {
		log := s.usageLogs[i]
		if source != "" && log.Source != source {
			continue
		}
		copied := *log
		out = append(out, &copied)
	}
	return paginate(out, limit, offset)
}

// GetSetting returns a copy of the setting record, or nil when unset.
func (s *Store) GetSetting(key string) *SettingRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.settings[key]
	if !ok {
		return nil
	}
	copied := *record
	return &copied
}

// PutSetting upserts a setting record.
func (s *Store) PutSetting(key string, value map[string]any, description string) *SettingRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	record := &SettingRecord{
		Key:         key,
		Value:       value,
		Description: description,
		UpdatedAt:   time.Now(),
	}
	s.settings[key] = record
	copied := *record
	return &copied
}

func paginate[T any](items []*T, limit, offset int) []*T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
