package providers

import (
	"encoding/hex"

	"github.com/samber/do/v2"

	"github.com/answerhubapp/answerhub-server/internal/auth"
	"github.com/answerhubapp/answerhub-server/internal/config"
)

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	key := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService(hex.EncodeToString(key), cfg.Auth.AccessTokenDuration)
}
