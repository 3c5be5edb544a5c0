package oauth

import (
	"context"
	"time"

	"github.com/forgecode-ai/agent/internal/credential"
	"github.com/forgecode-ai/agent/internal/errkind"
	"github.com/forgecode-ai/agent/pkg/types"
)

// ProviderID is the credential-store key Copilot OAuth state is filed under.
const ProviderID = "github-copilot"

// Manager wires the device-flow Client to a credential Store, presenting
// a single GetAccessToken call that transparently refreshes an expired
// Copilot token without the caller needing to know about the two-token
// (GitHub OAuth token -> Copilot API token) chain.
type Manager struct {
	client *Client
	store  *credential.Store
}

// NewManager returns a Manager persisting to store.
func NewManager(store *credential.Store) *Manager {
	return &Manager{client: NewClient(), store: store}
}

// StartDeviceFlow begins the device authorization flow. Present the
// returned UserCode and VerificationURI to the user, then call
// CompleteDeviceFlow with DeviceCode once they've confirmed.
func (m *Manager) StartDeviceFlow(ctx context.Context) (*DeviceAuth, error) {
	return m.client.Authorize(ctx)
}

// CompleteDeviceFlow polls until the user has authorized the device (or
// the poll fails), persisting the resulting GitHub OAuth token on success.
// Blocks for up to expiresIn, sleeping interval between polls.
func (m *Manager) CompleteDeviceFlow(ctx context.Context, deviceCode string, interval, expiresIn time.Duration) error {
	deadline := time.Now().Add(expiresIn)

	for {
		if time.Now().After(deadline) {
			return errkind.New(errkind.AuthInvalid, errExpired)
		}

		result, err := m.client.Poll(ctx, deviceCode)
		if err != nil {
			return err
		}

		switch result.Status {
		case PollSuccess:
			// Only the long-lived GitHub token is known at this point; the
			// Copilot API token is fetched lazily by GetAccessToken.
			cred := types.NewOAuthCredential(result.GitHubToken, "", 0)
			return m.store.Set(ProviderID, cred)
		case PollFailed:
			return errkind.New(errkind.AuthInvalid, errDeviceFlowFailed)
		case PollPending:
			select {
			case <-ctx.Done():
				return errkind.New(errkind.Cancelled, ctx.Err())
			case <-time.After(interval):
			}
		}
	}
}

// GetAccessToken returns a valid Copilot API token, refreshing the cached
// one if it is missing, forced, or expired. The refreshed
// token is persisted back to the store before being returned.
func (m *Manager) GetAccessToken(ctx context.Context, forceRefresh bool) (string, error) {
	cred, ok := m.store.Get(ProviderID)
	if !ok || !cred.IsOAuth() {
		return "", errkind.New(errkind.AuthMissing, errNoCredential)
	}

	nowMS := time.Now().UnixMilli()
	if !forceRefresh && cred.Access != "" && cred.Expires > nowMS {
		return cred.Access, nil
	}

	token, err := m.client.ExchangeForCopilotToken(ctx, cred.Refresh)
	if err != nil {
		// Per the reference implementation, a failed refresh leaves the
		// previously stored token untouched rather than clearing it —
		// a transient Copilot outage shouldn't force the user to
		// re-run the device flow.
		return "", err
	}

	updated := types.NewOAuthCredential(cred.Refresh, token.Token, token.ExpiresAtMS)
	if err := m.store.Set(ProviderID, updated); err != nil {
		return "", errkind.New(errkind.PersistFailure, err)
	}

	return token.Token, nil
}

// IsAuthenticated reports whether a usable Copilot access token can be
// obtained, refreshing if necessary.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	_, err := m.GetAccessToken(ctx, false)
	return err == nil
}

// Revoke removes the stored Copilot credential.
func (m *Manager) Revoke() error {
	return m.store.Remove(ProviderID)
}
