package synth

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidmdm/hangar/pkg/resource"
	"github.com/davidmdm/hangar/pkg/spec"
)

func TestSecretSync(t *testing.T) {
	doc, err := SecretSync(DefaultConfig(), normalize(t, "service", "my-api", map[string]any{
		"external_secrets": []string{"db-password", "api-key:API_KEY"},
	}))
	require.NoError(t, err)

	require.Equal(
		t,
		&resource.Document{
			APIVersion: "external-secrets.io/v1beta1",
			Kind:       "ExternalSecret",
			Metadata:   resource.Metadata{Name: "my-api", Namespace: "default"},
			Spec: ExternalSecretSpec{
				RefreshInterval: "1h",
				SecretStoreRef:  SecretStoreRef{Name: "gcp-secret-store", Kind: "SecretStore"},
				Target:          ExternalSecretTarget{Name: "my-api-secrets", CreationPolicy: "Owner"},
				Data: []ExternalSecretData{
					{SecretKey: "db-password", RemoteRef: RemoteRef{Key: "db-password"}},
					{SecretKey: "API_KEY", RemoteRef: RemoteRef{Key: "api-key"}},
				},
			},
		},
		doc,
	)
}

func TestSecretSyncStoreSettings(t *testing.T) {
	doc, err := SecretSync(DefaultConfig(), normalize(t, "job", "migrate", map[string]any{
		"external_secrets":        "db-url:DATABASE_URL",
		"secret_store":            "vault",
		"secret_refresh_interval": "10m",
	}))
	require.NoError(t, err)

	secret := doc.Spec.(ExternalSecretSpec)
	require.Equal(t, "10m", secret.RefreshInterval)
	require.Equal(t, SecretStoreRef{Name: "vault", Kind: "SecretStore"}, secret.SecretStoreRef)
}

func TestSecretSyncWithoutDirectives(t *testing.T) {
	doc, err := SecretSync(DefaultConfig(), normalize(t, "service", "my-api", nil))
	require.NoError(t, err)
	require.Nil(t, doc)
}

func TestSecretSyncRejectsDuplicateLocalKeys(t *testing.T) {
	deployment := normalize(t, "service", "my-api", nil)
	deployment.ExternalSecrets = []string{"a:KEY", "b:KEY"}

	_, err := SecretSync(DefaultConfig(), deployment)
	require.ErrorIs(t, err, spec.ErrConfig)
}
