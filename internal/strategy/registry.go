package strategy

import (
	"sort"
	"sync"

	"github.com/rxtech-lab/gfob-engine/pkg/errors"
)

// Registry owns strategy definitions for one engine instance. It replaces a
// process-wide table so independent backtests cannot see each other's
// strategies.
type Registry interface {
	RegisterStrategy(def Definition) error
	GetStrategy(id string) (Definition, error)
	ListStrategies() []Definition
	Clear()
}

// RegistryV1 is the default Registry implementation.
type RegistryV1 struct {
	definitions map[string]Definition
	mu          sync.RWMutex
}

// NewRegistry creates an empty strategy registry.
func NewRegistry() Registry {
	return &RegistryV1{
		definitions: make(map[string]Definition),
		mu:          sync.RWMutex{},
	}
}

// RegisterStrategy validates and adds a definition. Registering an ID twice
// is rejected.
func (r *RegistryV1) RegisterStrategy(def Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.definitions[def.ID]; exists {
		return errors.Newf(errors.ErrCodeStrategyExists, "strategy with id %s already registered", def.ID)
	}

	r.definitions[def.ID] = def

	return nil
}

// GetStrategy retrieves a definition by ID.
func (r *RegistryV1) GetStrategy(id string) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, exists := r.definitions[id]
	if !exists {
		return Definition{}, errors.Newf(errors.ErrCodeStrategyNotRegistered, "strategy with id %s not found", id)
	}

	return def, nil
}

// ListStrategies returns all registered definitions ordered by ID.
func (r *RegistryV1) ListStrategies() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.definitions))
	for id := range r.definitions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	defs := make([]Definition, 0, len(ids))
	for _, id := range ids {
		defs = append(defs, r.definitions[id])
	}

	return defs
}

// Clear removes every registered definition.
func (r *RegistryV1) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.definitions = make(map[string]Definition)
}
