package model

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/Mady2005/multi-modal-price-prediction/internal/domain"
)

// Registry holds the active model. The vectorizer and regressor are always
// swapped together as one Model, so readers can never observe a mismatched
// pair. Reads are lock-free.
type Registry struct {
	current atomic.Pointer[Model]
	reload  sync.Mutex
}

// NewRegistry creates a registry, optionally with an initial model
func NewRegistry(initial *Model) *Registry {
	r := &Registry{}
	if initial != nil {
		r.current.Store(initial)
	}
	return r
}

// Current returns the active model
func (r *Registry) Current() (*Model, error) {
	m := r.current.Load()
	if m == nil {
		return nil, domain.ErrModelNotLoaded
	}
	return m, nil
}

// Swap activates m and returns the previously active model, if any
func (r *Registry) Swap(m *Model) *Model {
	prev := r.current.Swap(m)
	log.Info().
		Str("component", "registry").
		Str("lineage", m.LineageID).
		Int("feature_width", m.Width()).
		Msg("model activated")
	return prev
}

// Reload loads the model in dir and activates it. When loading fails the
// active model is left untouched.
func (r *Registry) Reload(dir string) (*Model, error) {
	r.reload.Lock()
	defer r.reload.Unlock()

	m, err := Load(dir)
	if err != nil {
		log.Error().Err(err).Str("component", "registry").Str("dir", dir).Msg("model reload failed")
		return nil, err
	}
	r.Swap(m)
	return m, nil
}
