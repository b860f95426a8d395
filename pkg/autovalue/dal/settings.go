package dal

// PricingSettings defines the admin-controlled pricing parameters.
// Amounts are in rubles.
type PricingSettings struct {
	BasePrice              float64 `json:"basePrice" mapstructure:"base_price" yaml:"basePrice"`
	PremiumBrandMultiplier float64 `json:"premiumBrandMultiplier" mapstructure:"premium_brand_multiplier" yaml:"premiumBrandMultiplier"`
	DepreciationRate       float64 `json:"depreciationRate" mapstructure:"depreciation_rate" yaml:"depreciationRate"`
	MileagePenalty         float64 `json:"mileagePenalty" mapstructure:"mileage_penalty" yaml:"mileagePenalty"`
	CaptchaEnabled         bool    `json:"captchaEnabled" mapstructure:"captcha_enabled" yaml:"captchaEnabled"`
	VinSearchEnabled       bool    `json:"vinSearchEnabled" mapstructure:"vin_search_enabled" yaml:"vinSearchEnabled"`
}

// PricingPatch is a partial PricingSettings update. Nil fields are left unchanged.
type PricingPatch struct {
	BasePrice              *float64 `json:"basePrice,omitempty"`
	PremiumBrandMultiplier *float64 `json:"premiumBrandMultiplier,omitempty"`
	DepreciationRate       *float64 `json:"depreciationRate,omitempty"`
	MileagePenalty         *float64 `json:"mileagePenalty,omitempty"`
	CaptchaEnabled         *bool    `json:"captchaEnabled,omitempty"`
	VinSearchEnabled       *bool    `json:"vinSearchEnabled,omitempty"`
}

// BrandingSettings is the cosmetic site configuration. It never affects pricing.
type BrandingSettings struct {
	SiteName        string `json:"siteName"`
	SiteTagline     string `json:"siteTagline"`
	LogoURL         string `json:"logoUrl"`
	ContactPhone    string `json:"contactPhone"`
	ContactEmail    string `json:"contactEmail"`
	TelegramBot     string `json:"telegramBot"`
	TelegramChannel string `json:"telegramChannel"`
	WhatsApp        string `json:"whatsapp"`
	PrimaryColor    string `json:"primaryColor"`
	AccentColor     string `json:"accentColor"`
}

// BrandingPatch is a partial BrandingSettings update.
type BrandingPatch struct {
	SiteName        *string `json:"siteName,omitempty"`
	SiteTagline     *string `json:"siteTagline,omitempty"`
	LogoURL         *string `json:"logoUrl,omitempty"`
	ContactPhone    *string `json:"contactPhone,omitempty"`
	ContactEmail    *string `json:"contactEmail,omitempty"`
	TelegramBot     *string `json:"telegramBot,omitempty"`
	TelegramChannel *string `json:"telegramChannel,omitempty"`
	WhatsApp        *string `json:"whatsapp,omitempty"`
	PrimaryColor    *string `json:"primaryColor,omitempty"`
	AccentColor     *string `json:"accentColor,omitempty"`
}
