package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every failing field
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// ValidateConfig checks the configuration against the requirements of its environment
func ValidateConfig(cfg *Config) error {
	var errs ValidationErrors

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, ValidationError{"server.port", "must be between 1 and 65535"})
	}

	switch cfg.Database.Driver {
	case "postgres":
		if cfg.Database.Host == "" {
			errs = append(errs, ValidationError{"database.host", "is required"})
		}
		if cfg.Database.Name == "" {
			errs = append(errs, ValidationError{"database.name", "is required"})
		}
	case "sqlite":
		if cfg.Database.Path == "" {
			errs = append(errs, ValidationError{"database.path", "is required"})
		}
	default:
		errs = append(errs, ValidationError{"database.driver", "must be postgres or sqlite"})
	}

	if cfg.Redis.Addr == "" && cfg.Redis.URL == "" {
		errs = append(errs, ValidationError{"redis.addr", "redis.addr or redis.url is required"})
	}

	if cfg.Environment == Production {
		if cfg.Auth.ClerkPublicKey == "" {
			errs = append(errs, ValidationError{"auth.clerk_public_key", "is required in production"})
		}
		if cfg.Auth.DevSecret != "" {
			errs = append(errs, ValidationError{"auth.dev_secret", "must not be set in production"})
		}
		if cfg.Database.Driver == "postgres" && cfg.Database.Password == "" {
			errs = append(errs, ValidationError{"database.password", "is required in production"})
		}
		if cfg.LLM.APIKey == "" {
			errs = append(errs, ValidationError{"llm.api_key", "is required in production"})
		}
	} else if cfg.Auth.ClerkPublicKey == "" && cfg.Auth.DevSecret == "" {
		errs = append(errs, ValidationError{"auth", "clerk_public_key or dev_secret is required"})
	}

	if cfg.RateLimit.ChatPerHour < 1 {
		errs = append(errs, ValidationError{"rate_limit.chat_per_hour", "must be positive"})
	}
	if cfg.RateLimit.GeneratePerHour < 1 {
		errs = append(errs, ValidationError{"rate_limit.generate_per_hour", "must be positive"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
