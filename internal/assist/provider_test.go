package assist

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateAWS keeps the host's AWS profile and credential files out of the test.
func isolateAWS(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
}

func TestLoadAWSConfig_StaticCredentials(t *testing.T) {
	isolateAWS(t)
	ctx := context.Background()

	awsCfg, err := loadAWSConfig(ctx, BedrockConfig{
		Region:          "eu-west-1",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "wJalrXUtnFEMI",
	})
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", awsCfg.Region)

	creds, err := awsCfg.Credentials.Retrieve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "AKIDEXAMPLE", creds.AccessKeyID)
	assert.Equal(t, "wJalrXUtnFEMI", creds.SecretAccessKey)
}

func TestNewProvider(t *testing.T) {
	isolateAWS(t)
	ctx := context.Background()

	p, err := NewProvider(ctx, ProviderConfig{})
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = NewProvider(ctx, ProviderConfig{Provider: "openai"})
	assert.Error(t, err)

	_, err = NewProvider(ctx, ProviderConfig{Provider: "gemini"})
	assert.Error(t, err, "gemini needs an api key")

	p, err = NewProvider(ctx, ProviderConfig{
		Provider:        "bedrock",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "wJalrXUtnFEMI",
	})
	require.NoError(t, err)
	require.IsType(t, &BedrockProvider{}, p)
	assert.Equal(t, "bedrock", p.Name())
	assert.Equal(t, "anthropic.claude-3-haiku-20240307-v1:0", p.(*BedrockProvider).modelID)
}
