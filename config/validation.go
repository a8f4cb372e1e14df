package config

import (
	"fmt"
	"strings"
)

// ValidateConfig checks that the configuration carries everything the
// service cannot run without.
func ValidateConfig(cfg *Config) error {
	var errors []string

	if cfg.DBHost == "" {
		errors = append(errors, "database host is required")
	}
	if cfg.DBName == "" {
		errors = append(errors, "database name is required")
	}
	if cfg.DBUser == "" {
		errors = append(errors, "database user is required")
	}
	if cfg.DBPassword == "" {
		errors = append(errors, "database password is required")
	}
	if cfg.JWTSecret == "" {
		errors = append(errors, "jwt secret is required")
	}
	if IsProduction() && cfg.JWTSecret == "dev-secret" {
		errors = append(errors, "jwt secret must not use the development default in production")
	}
	if cfg.PageSize < 1 {
		errors = append(errors, "page size must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "; "))
	}
	return nil
}
