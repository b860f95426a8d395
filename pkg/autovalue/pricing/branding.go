package pricing

import (
	"sync"

	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/dal"
)

// DefaultBranding returns the site branding used at process start.
func DefaultBranding() dal.BrandingSettings {
	return dal.BrandingSettings{
		SiteName:     "AutoValue Pro",
		SiteTagline:  "Мгновенная оценка автомобиля",
		PrimaryColor: "220 90% 56%",
		AccentColor:  "142 76% 36%",
	}
}

// BrandingStore holds the cosmetic branding record.
type BrandingStore struct {
	mu       sync.RWMutex
	settings dal.BrandingSettings
}

// NewBrandingStore returns a BrandingStore initialised with initial.
func NewBrandingStore(initial dal.BrandingSettings) *BrandingStore {
	return &BrandingStore{settings: initial}
}

// Get returns a copy of the current branding.
func (b *BrandingStore) Get() dal.BrandingSettings {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.settings
}

// Update merges the non-nil fields of patch and returns the new branding.
func (b *BrandingStore) Update(patch dal.BrandingPatch) dal.BrandingSettings {
	b.mu.Lock()
	defer b.mu.Unlock()

	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&b.settings.SiteName, patch.SiteName)
	set(&b.settings.SiteTagline, patch.SiteTagline)
	set(&b.settings.LogoURL, patch.LogoURL)
	set(&b.settings.ContactPhone, patch.ContactPhone)
	set(&b.settings.ContactEmail, patch.ContactEmail)
	set(&b.settings.TelegramBot, patch.TelegramBot)
	set(&b.settings.TelegramChannel, patch.TelegramChannel)
	set(&b.settings.WhatsApp, patch.WhatsApp)
	set(&b.settings.PrimaryColor, patch.PrimaryColor)
	set(&b.settings.AccentColor, patch.AccentColor)
	return b.settings
}
