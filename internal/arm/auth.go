package arm

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ManagementScope is the AAD scope for the management plane.
const ManagementScope = "https://management.azure.com/.default"

// Credentials selects how bearer tokens for the management plane are obtained.
type Credentials struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	// StaticToken is used verbatim for the management scope when set.
	StaticToken string
	// DataPlaneToken is used verbatim for any other scope when set.
	DataPlaneToken string
	// AuthorityHost defaults to https://login.microsoftonline.com.
	AuthorityHost string
}

// TokenSource returns a static source for a pre-issued token or a client
// credentials source for a service principal.
func (c Credentials) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	return c.ScopedTokenSource(ctx, ManagementScope)
}

// DataPlaneScope is the AAD scope of an account's document endpoint.
func DataPlaneScope(documentEndpoint string) string {
	u, err := url.Parse(documentEndpoint)
	if err != nil || u.Host == "" {
		return documentEndpoint + "/.default"
	}
	return fmt.Sprintf("%s://%s/.default", u.Scheme, u.Hostname())
}

// ErrScopeMismatch is returned when only a static token for another scope is
// available.
var ErrScopeMismatch = errors.New("static token does not cover scope")

// ScopedTokenSource is TokenSource for an arbitrary scope. A static token is
// only handed out for the scope it was issued for; the service principal
// covers every scope.
func (c Credentials) ScopedTokenSource(ctx context.Context, scope string) (oauth2.TokenSource, error) {
	static := c.DataPlaneToken
	if scope == ManagementScope {
		static = c.StaticToken
	}
	if static != "" {
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: static, TokenType: "Bearer"}), nil
	}
	if c.TenantID == "" || c.ClientID == "" || c.ClientSecret == "" {
		if c.StaticToken != "" || c.DataPlaneToken != "" {
			return nil, fmt.Errorf("%w %s", ErrScopeMismatch, scope)
		}
		return nil, errors.New("arm credentials need a static token or tenant, client id and secret")
	}
	host := c.AuthorityHost
	if host == "" {
		host = "https://login.microsoftonline.com"
	}
	cfg := clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     fmt.Sprintf("%s/%s/oauth2/v2.0/token", host, c.TenantID),
		Scopes:       []string{scope},
	}
	return cfg.TokenSource(ctx), nil
}
