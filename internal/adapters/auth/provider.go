package auth

import (
	"context"
	"time"

	"github.com/PabloGalante/farum-panel/internal/domain"
)

// ConfigProvider reports the credential state derived from configuration.
type ConfigProvider struct {
	credential string
	expiresAt  time.Time
	now        func() time.Time
}

// NewConfigProvider builds a provider for credential. A zero expiresAt
// means the credential never expires.
func NewConfigProvider(credential string, expiresAt time.Time) *ConfigProvider {
	return &ConfigProvider{
		credential: credential,
		expiresAt:  expiresAt,
		now:        time.Now,
	}
}

// WithClock overrides the clock. Used by tests.
func (p *ConfigProvider) WithClock(now func() time.Time) *ConfigProvider {
	p.now = now
	return p
}

// GetCredentialState returns nil while chat is usable.
func (p *ConfigProvider) GetCredentialState(ctx context.Context) (*domain.AuthState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if p.credential == "" {
		return &domain.AuthState{
			Status:  domain.AuthUnauthenticated,
			Message: "Sign in to start chatting",
		}, nil
	}
	if !p.expiresAt.IsZero() && !p.now().Before(p.expiresAt) {
		return &domain.AuthState{
			Status:  domain.AuthExpired,
			Message: "Your session has expired, sign in again",
		}, nil
	}
	return nil, nil
}
