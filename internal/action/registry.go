package action

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry provides action management with caching and thread safety.
// It wraps a Repository and adds an in-memory cache for fast lookups.
//
// The cache is populated on startup via RefreshCache() and kept in sync
// by the write operations. Reads never touch the database.
type Registry struct {
	repo    Repository
	cache   map[string]*Action
	cacheMu sync.RWMutex
	writeMu sync.Mutex
	logger  Logger
}

// NewRegistry creates a new action registry.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:   repo,
		cache:  make(map[string]*Action),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// RefreshCache reloads all actions from the repository into the cache.
// Records still in a legacy shape are upgraded and written back, so the
// upgrade runs once per record rather than on every run.
func (r *Registry) RefreshCache(ctx context.Context) error {
	actions, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading actions: %w", err)
	}

	upgraded := 0
	for i := range actions {
		next, changed := UpgradeLegacy(actions[i])
		if !changed {
			continue
		}
		if err := r.repo.Update(ctx, &next); err != nil {
			return fmt.Errorf("upgrading action %s: %w", next.ID, err)
		}
		actions[i] = next
		upgraded++
	}

	r.cacheMu.Lock()
	r.cache = make(map[string]*Action, len(actions))
	for i := range actions {
		r.cache[actions[i].ID] = actions[i].DeepCopy()
	}
	r.cacheMu.Unlock()

	r.logger.Info("action cache refreshed", "count", len(actions), "upgraded", upgraded)
	return nil
}

// GetAction retrieves an action by ID.
// The returned action is a deep copy; callers can safely modify it.
func (r *Registry) GetAction(_ context.Context, id string) (*Action, error) {
	r.cacheMu.RLock()
	cached, ok := r.cache[id]
	r.cacheMu.RUnlock()

	if ok {
		return cached.DeepCopy(), nil
	}
	return nil, ErrActionNotFound
}

// ListActions retrieves all actions from the cache.
// Returns deep copies sorted by sort_order then name.
func (r *Registry) ListActions(_ context.Context) ([]Action, error) {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	actions := make([]Action, 0, len(r.cache))
	for _, a := range r.cache {
		actions = append(actions, *a.DeepCopy())
	}
	sortActions(actions)
	return actions, nil
}

// sortActions sorts by sort_order then name, matching the DB query ordering.
func sortActions(actions []Action) {
	sort.Slice(actions, func(i, j int) bool {
		if actions[i].SortOrder != actions[j].SortOrder {
			return actions[i].SortOrder < actions[j].SortOrder
		}
		if actions[i].Name != actions[j].Name {
			return actions[i].Name < actions[j].Name
		}
		return actions[i].ID < actions[j].ID
	})
}

// CreateAction validates, persists, and caches a new action.
func (r *Registry) CreateAction(ctx context.Context, a *Action) error {
	if a.ID == "" {
		a.ID = GenerateID()
	}

	upgraded, _ := UpgradeLegacy(*a)
	*a = upgraded

	if err := ValidateAction(a); err != nil {
		return err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if err := r.repo.Create(ctx, a); err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.cache[a.ID] = a.DeepCopy()
	r.cacheMu.Unlock()

	r.logger.Info("action created", "id", a.ID, "name", a.Name)
	return nil
}

// UpdateAction validates, persists, and updates the cached action.
func (r *Registry) UpdateAction(ctx context.Context, a *Action) error {
	upgraded, _ := UpgradeLegacy(*a)
	*a = upgraded

	if err := ValidateAction(a); err != nil {
		return err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if err := r.repo.Update(ctx, a); err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.cache[a.ID] = a.DeepCopy()
	r.cacheMu.Unlock()

	r.logger.Info("action updated", "id", a.ID, "name", a.Name)
	return nil
}

// DeleteAction removes an action from persistence and cache.
func (r *Registry) DeleteAction(ctx context.Context, id string) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}

	r.cacheMu.Lock()
	delete(r.cache, id)
	r.cacheMu.Unlock()

	r.logger.Info("action deleted", "id", id)
	return nil
}

// ToggleAction sets the action's enabled flag to value, or inverts it when
// value is nil (an unset flag counts as enabled). Returns the updated action.
func (r *Registry) ToggleAction(ctx context.Context, id string, value *bool) (*Action, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.cacheMu.RLock()
	cached, ok := r.cache[id]
	r.cacheMu.RUnlock()
	if !ok {
		return nil, ErrActionNotFound
	}

	next := cached.DeepCopy()
	enabled := !next.IsEnabled()
	if value != nil {
		enabled = *value
	}
	next.Enabled = &enabled

	if err := r.repo.Update(ctx, next); err != nil {
		return nil, err
	}

	r.cacheMu.Lock()
	r.cache[id] = next.DeepCopy()
	r.cacheMu.Unlock()

	r.logger.Info("action toggled", "id", id, "enabled", enabled)
	return next, nil
}

// GetActionCount returns the number of cached actions.
func (r *Registry) GetActionCount() int {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	return len(r.cache)
}
