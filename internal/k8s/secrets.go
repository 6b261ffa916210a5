package k8s

import (
	"context"
	"fmt"
	"strings"

	corev1 "k8s.io/api/core/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
)

var secretGVR = schema.GroupVersionResource{
	Group:    "",
	Version:  "v1",
	Resource: "secrets",
}

// Keys read from the credentials Secret.
const (
	KeyTenantID       = "tenantId"
	KeyClientID       = "clientId"
	KeyClientSecret   = "clientSecret"
	KeyARMToken       = "armToken"
	KeyDataPlaneToken = "dataPlaneToken"
	KeyMasterKey      = "masterKey"
	KeyResourceToken  = "resourceToken"
	KeyEncryptedToken = "encryptedToken"
)

// Credentials holds the backend secrets an account session may need.
type Credentials struct {
	TenantID       string
	ClientID       string
	ClientSecret   string
	ARMToken       string
	DataPlaneToken string
	MasterKey      string
	ResourceToken  string
	EncryptedToken string
}

// Merge returns c with every empty field taken from fallback.
func (c Credentials) Merge(fallback Credentials) Credentials {
	pick := func(v, f string) string {
		if v != "" {
			return v
		}
		return f
	}
	return Credentials{
		TenantID:       pick(c.TenantID, fallback.TenantID),
		ClientID:       pick(c.ClientID, fallback.ClientID),
		ClientSecret:   pick(c.ClientSecret, fallback.ClientSecret),
		ARMToken:       pick(c.ARMToken, fallback.ARMToken),
		DataPlaneToken: pick(c.DataPlaneToken, fallback.DataPlaneToken),
		MasterKey:      pick(c.MasterKey, fallback.MasterKey),
		ResourceToken:  pick(c.ResourceToken, fallback.ResourceToken),
		EncryptedToken: pick(c.EncryptedToken, fallback.EncryptedToken),
	}
}

// Manager reads Kubernetes resources with the dynamic client.
type Manager struct {
	dynamic dynamic.Interface
}

// NewManagerFromDynamic creates a Manager over an existing dynamic client.
func NewManagerFromDynamic(client dynamic.Interface) *Manager {
	return &Manager{dynamic: client}
}

// GetSecret reads a Kubernetes Secret and returns its data.
func (m *Manager) GetSecret(ctx context.Context, namespace, name string) (map[string][]byte, error) {
	obj, err := m.dynamic.Resource(secretGVR).Namespace(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("getting secret %s/%s: %w", namespace, name, err)
	}

	var secret corev1.Secret
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(obj.Object, &secret); err != nil {
		return nil, fmt.Errorf("converting secret %s/%s: %w", namespace, name, err)
	}

	data := secret.Data
	if data == nil {
		data = map[string][]byte{}
	}
	for k, v := range secret.StringData {
		data[k] = []byte(v)
	}
	return data, nil
}

// LoadCredentials reads the credentials Secret. A missing Secret yields empty
// credentials.
func LoadCredentials(ctx context.Context, reader SecretReader, namespace, name string) (Credentials, error) {
	data, err := reader.GetSecret(ctx, namespace, name)
	if err != nil {
		if k8serrors.IsNotFound(err) {
			return Credentials{}, nil
		}
		return Credentials{}, err
	}

	value := func(key string) string {
		return strings.TrimSpace(string(data[key]))
	}
	return Credentials{
		TenantID:       value(KeyTenantID),
		ClientID:       value(KeyClientID),
		ClientSecret:   value(KeyClientSecret),
		ARMToken:       value(KeyARMToken),
		DataPlaneToken: value(KeyDataPlaneToken),
		MasterKey:      value(KeyMasterKey),
		ResourceToken:  value(KeyResourceToken),
		EncryptedToken: value(KeyEncryptedToken),
	}, nil
}
