// Package pricing holds the process-wide pricing and branding settings.
//
// Readers load an immutable snapshot through an atomic pointer; writers merge a
// patch into a fresh copy under a mutex and swap it in, so a reader never sees
// a half-applied update.
package pricing

import (
	"sync"
	"sync/atomic"

	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/dal"
)

// Provider supplies the current pricing settings to the valuation engine.
type Provider interface {
	Get() dal.PricingSettings
}

// DefaultSettings returns the pricing parameters used at process start.
func DefaultSettings() dal.PricingSettings {
	return dal.PricingSettings{
		BasePrice:              2_000_000,
		PremiumBrandMultiplier: 1.5,
		DepreciationRate:       0.95,
		MileagePenalty:         2000,
		CaptchaEnabled:         false,
		VinSearchEnabled:       false,
	}
}

// Store is the mutable pricing settings holder. The zero value is not usable; use NewStore.
type Store struct {
	mu      sync.Mutex
	current atomic.Pointer[dal.PricingSettings]
}

// NewStore returns a Store initialised with initial.
func NewStore(initial dal.PricingSettings) *Store {
	s := &Store{}
	s.current.Store(&initial)
	return s
}

// Get returns a copy of the current settings.
func (s *Store) Get() dal.PricingSettings {
	return *s.current.Load()
}

// Update merges the non-nil fields of patch over the current settings and
// returns a copy of the result. Values are not validated here.
func (s *Store) Update(patch dal.PricingPatch) dal.PricingSettings {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := *s.current.Load()
	if patch.BasePrice != nil {
		next.BasePrice = *patch.BasePrice
	}
	if patch.PremiumBrandMultiplier != nil {
		next.PremiumBrandMultiplier = *patch.PremiumBrandMultiplier
	}
	if patch.DepreciationRate != nil {
		next.DepreciationRate = *patch.DepreciationRate
	}
	if patch.MileagePenalty != nil {
		next.MileagePenalty = *patch.MileagePenalty
	}
	if patch.CaptchaEnabled != nil {
		next.CaptchaEnabled = *patch.CaptchaEnabled
	}
	if patch.VinSearchEnabled != nil {
		next.VinSearchEnabled = *patch.VinSearchEnabled
	}
	s.current.Store(&next)
	return next
}
