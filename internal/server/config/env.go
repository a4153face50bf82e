package config

import "os"

// parseEnv overlays values from environment variables. Only settings that are
// secrets or deployment-specific are read here; everything else goes through
// the JSON file or flags.
//
// Recognized variables:
//
//	SECRET_KEY              token HMAC secret
//	DATABASE_DSN            PostgreSQL DSN
//	PUBLIC_BASE_URL         external URL for verification links
//	SENDER_EMAIL            From address on verification emails
//	POSTMARK_SERVER_TOKEN   Postmark server token
//	POSTMARK_ACCOUNT_TOKEN  Postmark account token
func parseEnv(config *Config) {
	if v := os.Getenv("SECRET_KEY"); v != "" {
		config.SecretKey = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		config.DatabaseDSN = v
	}
	if v := os.Getenv("PUBLIC_BASE_URL"); v != "" {
		config.PublicBaseURL = v
	}
	if v := os.Getenv("SENDER_EMAIL"); v != "" {
		config.SenderEmail = v
	}
	if v := os.Getenv("POSTMARK_SERVER_TOKEN"); v != "" {
		config.PostmarkServerToken = v
	}
	if v := os.Getenv("POSTMARK_ACCOUNT_TOKEN"); v != "" {
		config.PostmarkAccountToken = v
	}
}
