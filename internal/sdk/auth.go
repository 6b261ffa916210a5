package sdk

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"github.com/Azure/cosmos-explorer-sub003/internal/account"
)

// EmulatorMasterKey is the well-known key of the local emulator.
const EmulatorMasterKey = "C2y6yDjf5/R+ob0N8A7Cgv30VRDJIWEHLM+4QDU5DE2nQ9nDuVTqobD4b8mGGyPMbIZnqyMsEcaGQy67XIw/Jw=="

// RequestInfo identifies the resource a request addresses.
type RequestInfo struct {
	Verb         string
	ResourceType string
	ResourceID   string
	// Date is the x-ms-date value the request will carry.
	Date string
}

// Authorization is the value of the authorization header. A non-empty Date
// replaces the request's x-ms-date.
type Authorization struct {
	Token string
	Date  string
}

// TokenProvider authorizes one data-plane request.
type TokenProvider interface {
	Authorize(ctx context.Context, info RequestInfo) (Authorization, error)
}

// Credentials holds the secrets each auth mode may need.
type Credentials struct {
	MasterKey     string
	ResourceToken string
	// AAD supplies data-plane bearer tokens for AAD sessions.
	AAD oauth2.TokenSource
	// TokenServiceEndpoint hosts the guest authorization token service.
	TokenServiceEndpoint string
	// EncryptedToken is forwarded to the token service.
	EncryptedToken string
	HTTPClient     *http.Client
}

var ErrMissingCredentials = errors.New("missing credentials for auth mode")

// NewTokenProvider selects the provider for the account's auth mode. Master
// key signing is used only for master key and emulator sessions.
func NewTokenProvider(acct account.Context, creds Credentials) (TokenProvider, error) {
	switch acct.AuthMode {
	case account.AuthEmulator:
		return MasterKey{Key: EmulatorMasterKey}, nil
	case account.AuthMasterKey:
		if creds.MasterKey == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingCredentials, acct.AuthMode)
		}
		return MasterKey{Key: creds.MasterKey}, nil
	case account.AuthResourceToken:
		if creds.ResourceToken == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingCredentials, acct.AuthMode)
		}
		return ResourceToken{Token: creds.ResourceToken}, nil
	case account.AuthAAD:
		if creds.AAD == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingCredentials, acct.AuthMode)
		}
		return AADToken{Source: creds.AAD}, nil
	case account.AuthConnectionString, account.AuthEncryptedToken:
		if creds.TokenServiceEndpoint == "" {
			return nil, fmt.Errorf("%w: %s needs a token service endpoint", ErrMissingCredentials, acct.AuthMode)
		}
		hc := creds.HTTPClient
		if hc == nil {
			hc = http.DefaultClient
		}
		return &TokenService{Endpoint: creds.TokenServiceEndpoint, EncryptedToken: creds.EncryptedToken, HTTPClient: hc}, nil
	}
	return nil, fmt.Errorf("unsupported auth mode %q", acct.AuthMode)
}

// MasterKey signs requests with an account key.
type MasterKey struct {
	Key string
}

func (m MasterKey) Authorize(_ context.Context, info RequestInfo) (Authorization, error) {
	sig, err := SignMasterKey(m.Key, info)
	if err != nil {
		return Authorization{}, err
	}
	return Authorization{Token: sig}, nil
}

// SignMasterKey computes the url-encoded master key authorization value.
func SignMasterKey(key string, info RequestInfo) (string, error) {
	secret, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return "", fmt.Errorf("decoding master key: %w", err)
	}
	payload := strings.ToLower(info.Verb) + "\n" +
		strings.ToLower(info.ResourceType) + "\n" +
		info.ResourceID + "\n" +
		strings.ToLower(info.Date) + "\n" +
		"\n"
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(payload))
	sig := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return url.QueryEscape("type=master&ver=1.0&sig=" + sig), nil
}

// ResourceToken passes a scoped token through unchanged.
type ResourceToken struct {
	Token string
}

func (r ResourceToken) Authorize(context.Context, RequestInfo) (Authorization, error) {
	return Authorization{Token: r.Token}, nil
}

// AADToken sends an AAD bearer token in the data-plane format.
type AADToken struct {
	Source oauth2.TokenSource
}

func (a AADToken) Authorize(context.Context, RequestInfo) (Authorization, error) {
	tok, err := a.Source.Token()
	if err != nil {
		return Authorization{}, fmt.Errorf("acquiring AAD token: %w", err)
	}
	return Authorization{Token: url.QueryEscape("type=aad&ver=1.0&sig=" + tok.AccessToken)}, nil
}

// TokenService fetches per-request tokens from the guest token service.
type TokenService struct {
	Endpoint       string
	EncryptedToken string
	HTTPClient     *http.Client
}

type tokenServiceResponse struct {
	XDate                 string `json:"XDate"`
	PrimaryReadWriteToken string `json:"PrimaryReadWriteToken"`
}

func (s *TokenService) Authorize(ctx context.Context, info RequestInfo) (Authorization, error) {
	body, err := json.Marshal(map[string]string{
		"verb":         info.Verb,
		"resourceType": info.ResourceType,
		"resourceId":   info.ResourceID,
	})
	if err != nil {
		return Authorization{}, err
	}
	endpoint := strings.TrimRight(s.Endpoint, "/") + "/api/guest/runtimeproxy/authorizationTokens"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Authorization{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderEncryptedAuthToken, s.EncryptedToken)

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return Authorization{}, fmt.Errorf("failed to get authorization headers for %s: %w", info.ResourceType, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Authorization{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return Authorization{}, fmt.Errorf("failed to get authorization headers for %s: %w", info.ResourceType, parseError(resp, raw))
	}

	// The service may answer with a JSON document encoded as a JSON string.
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		raw = []byte(encoded)
	}
	var result tokenServiceResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return Authorization{}, fmt.Errorf("decoding token service response: %w", err)
	}
	token, err := url.PathUnescape(result.PrimaryReadWriteToken)
	if err != nil {
		token = result.PrimaryReadWriteToken
	}
	return Authorization{Token: token, Date: result.XDate}, nil
}
