package account

import (
	"errors"
	"fmt"
	"os"
	"strings"

	sigsyaml "sigs.k8s.io/yaml"
)

// AuthMode is how the caller authenticated against the account.
type AuthMode string

const (
	AuthAAD              AuthMode = "AAD"
	AuthMasterKey        AuthMode = "MasterKey"
	AuthResourceToken    AuthMode = "ResourceToken"
	AuthConnectionString AuthMode = "ConnectionString"
	AuthEncryptedToken   AuthMode = "EncryptedToken"
	AuthEmulator         AuthMode = "Emulator"
)

var validAuthModes = []AuthMode{
	AuthAAD, AuthMasterKey, AuthResourceToken, AuthConnectionString, AuthEncryptedToken, AuthEmulator,
}

// APIType is the data model the account exposes.
type APIType string

const (
	APISQL       APIType = "SQL"
	APIMongo     APIType = "Mongo"
	APICassandra APIType = "Cassandra"
	APIGremlin   APIType = "Gremlin"
	APITables    APIType = "Tables"
)

var validAPITypes = []APIType{APISQL, APIMongo, APICassandra, APIGremlin, APITables}

// ErrInvalidContext is returned when an account context is incomplete or malformed.
var ErrInvalidContext = errors.New("invalid account context")

// Features holds the feature flags consulted by the throughput engine.
type Features struct {
	// UseSDKOperations forces data-plane calls even under AAD.
	UseSDKOperations bool `json:"useSDKOperations"`
}

// Context is the explicit session record passed into every throughput operation.
type Context struct {
	AuthMode       AuthMode `json:"authMode"`
	APIType        APIType  `json:"apiType"`
	SubscriptionID string   `json:"subscriptionId"`
	ResourceGroup  string   `json:"resourceGroup"`
	AccountName    string   `json:"accountName"`
	// DocumentEndpoint is the data-plane endpoint, e.g. https://acct.documents.azure.com:443/.
	DocumentEndpoint string   `json:"documentEndpoint"`
	RegionCount      int      `json:"regionCount"`
	Features         Features `json:"features"`
}

// Validate checks enum values and the fields each auth mode needs.
func (c Context) Validate() error {
	if !containsMode(c.AuthMode) {
		return fmt.Errorf("%w: unknown auth mode %q", ErrInvalidContext, c.AuthMode)
	}
	if !containsAPI(c.APIType) {
		return fmt.Errorf("%w: unknown api type %q", ErrInvalidContext, c.APIType)
	}
	if c.AuthMode == AuthAAD && !c.Features.UseSDKOperations {
		if c.SubscriptionID == "" || c.ResourceGroup == "" || c.AccountName == "" {
			return fmt.Errorf("%w: subscriptionId, resourceGroup and accountName are required for AAD", ErrInvalidContext)
		}
	}
	if c.RegionCount < 0 {
		return fmt.Errorf("%w: regionCount must not be negative", ErrInvalidContext)
	}
	return nil
}

// Regions returns the number of regions, treating an unset value as one.
func (c Context) Regions() int {
	if c.RegionCount < 1 {
		return 1
	}
	return c.RegionCount
}

// LoadFile reads an account context from a YAML (or JSON) file.
func LoadFile(path string) (Context, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Context{}, fmt.Errorf("reading account config %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes and validates an account context document.
func Parse(raw []byte) (Context, error) {
	var c Context
	if err := sigsyaml.UnmarshalStrict(raw, &c); err != nil {
		return Context{}, fmt.Errorf("parsing account config: %w", err)
	}
	c.AuthMode = normalizeMode(c.AuthMode)
	c.APIType = normalizeAPI(c.APIType)
	if err := c.Validate(); err != nil {
		return Context{}, err
	}
	return c, nil
}

func normalizeMode(m AuthMode) AuthMode {
	for _, v := range validAuthModes {
		if strings.EqualFold(string(v), string(m)) {
			return v
		}
	}
	return m
}

func normalizeAPI(a APIType) APIType {
	for _, v := range validAPITypes {
		if strings.EqualFold(string(v), string(a)) {
			return v
		}
	}
	return a
}

func containsMode(m AuthMode) bool {
	for _, v := range validAuthModes {
		if v == m {
			return true
		}
	}
	return false
}

func containsAPI(a APIType) bool {
	for _, v := range validAPITypes {
		if v == a {
			return true
		}
	}
	return false
}
