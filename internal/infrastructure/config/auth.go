package config

// AuthConfig holds token signing configuration
type AuthConfig struct {
	// HS256 signing key; must be set outside development
	SecretKey string `mapstructure:"secret_key" validate:"required"`

	// Bearer token lifetime in minutes
	TokenExpiryMinutes int `mapstructure:"token_expiry_minutes" validate:"omitempty,min=1"`
}
