package powerbi

import (
	"context"
	"errors"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// Scope is the Power BI REST API scope tokens are requested for.
const Scope = "https://analysis.windows.net/powerbi/api/.default"

// ErrAuthentication marks a credential-chain failure. Callers match it with
// errors.Is to suggest re-authentication instead of reporting missing data.
var ErrAuthentication = errors.New("authentication failed")

// TokenProvider supplies a bearer token for a named scope on demand.
type TokenProvider interface {
	GetToken(ctx context.Context, scope string) (string, error)
}

// AzureTokenProvider resolves tokens through the default Azure credential
// chain (CLI login, environment, managed identity).
type AzureTokenProvider struct {
	cred azcore.TokenCredential
}

// NewAzureTokenProvider builds the credential chain. Construction succeeds
// even when no login is available; failures surface on the first GetToken.
func NewAzureTokenProvider() (*AzureTokenProvider, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build credential chain: %v", ErrAuthentication, err)
	}
	return &AzureTokenProvider{cred: cred}, nil
}

func (p *AzureTokenProvider) GetToken(ctx context.Context, scope string) (string, error) {
	tok, err := p.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{scope}})
	if err != nil {
		return "", fmt.Errorf("%w: make sure you're logged in with 'az login': %v", ErrAuthentication, err)
	}
	return tok.Token, nil
}

// StaticTokenProvider returns a fixed token. Used for local development with
// POWERBI_ACCESS_TOKEN and for tests.
type StaticTokenProvider struct {
	Token string
}

func (p StaticTokenProvider) GetToken(ctx context.Context, scope string) (string, error) {
	if p.Token == "" {
		return "", fmt.Errorf("%w: no static token configured", ErrAuthentication)
	}
	return p.Token, nil
}
