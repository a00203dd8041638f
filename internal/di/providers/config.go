// Package providers contains dependency injection providers for all
// application components.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/answerhubapp/answerhub-server/internal/auth"
	"github.com/answerhubapp/answerhub-server/internal/config"
	"github.com/answerhubapp/answerhub-server/internal/logger"
	"github.com/answerhubapp/answerhub-server/internal/validation"
)

// ProvideConfig loads application configuration.
func ProvideConfig(_ do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the application logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return logger.New(logger.Config{
		Environment: cfg.App.Environment,
		Level:       logger.ParseLevel(cfg.Logger.Level),
	}), nil
}

// AuthKey is the PASETO symmetric key, loaded from or generated under the
// data directory.
type AuthKey []byte

// ProvideAuthKey loads or generates the token signing key.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)

	key, err := auth.LoadOrGenerateKey(cfg.Data.BasePath)
	if err != nil {
		return nil, err
	}
	cfg.Auth.AccessTokenKey = key
	return AuthKey(key), nil
}

// ProvideValidator provides the request validator.
func ProvideValidator(_ do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}
