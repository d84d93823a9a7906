package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/akeren/digitalcraft-dispatch/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAutoMigrateAllowed(t *testing.T) {
	tests := []struct {
		env     string
		allowed bool
	}{
		{env: "", allowed: true},
		{env: "dev", allowed: true},
		{env: "  Local  ", allowed: true},
		{env: "TESTING", allowed: true},
		{env: "production", allowed: false},
		{env: " Staging ", allowed: false},
		{env: "qa", allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			err := ValidateAutoMigrateAllowed(tt.env)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, AppEnvKey)
		})
	}
}

func TestGetAppEnv_Normalizes(t *testing.T) {
	t.Setenv(AppEnvKey, "  Production ")
	assert.Equal(t, "production", GetAppEnv())
}

func TestGetValueFromEnvironmentVariable_KeepsExplicitEmpty(t *testing.T) {
	t.Setenv("DISPATCH_API_KEY", "")
	assert.Equal(t, "", GetValueFromEnvironmentVariable("DISPATCH_API_KEY", "fallback"))
	assert.Equal(t, "fallback", GetValueFromEnvironmentVariable("DISPATCH_UNSET_KEY_FOR_TEST", "fallback"))
}

func TestDotenvFiles(t *testing.T) {
	t.Setenv(DotenvFilesKey, "")
	assert.Equal(t, []string{".env"}, dotenvFiles())

	t.Setenv(DotenvFilesKey, " .env.local , ,.env ")
	assert.Equal(t, []string{".env.local", ".env"}, dotenvFiles())
}

func TestInitializeEnvFile_EarliestFileWinsWithoutOverridingProcess(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, ".env.local")
	shared := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(local, []byte("BRAND_NAME=Local Craft\n"), 0o600))
	require.NoError(t, os.WriteFile(shared, []byte("BRAND_NAME=Shared Craft\nOPERATOR_EMAIL=file@example.com\nDISPATCH_TIMEOUT=20s\n"), 0o600))

	t.Setenv("SKIP_DOTENV", "")
	t.Setenv(DotenvFilesKey, local+","+filepath.Join(dir, "missing.env")+","+shared)
	t.Setenv("OPERATOR_EMAIL", "process@example.com")
	// Registered so t.Setenv restores the values the files set.
	t.Setenv("BRAND_NAME", "")
	t.Setenv("DISPATCH_TIMEOUT", "")
	require.NoError(t, os.Unsetenv("BRAND_NAME"))
	require.NoError(t, os.Unsetenv("DISPATCH_TIMEOUT"))

	InitializeEnvFile(log.NewLoggerWithJSONOutput())

	assert.Equal(t, "Local Craft", os.Getenv("BRAND_NAME"))
	assert.Equal(t, "process@example.com", os.Getenv("OPERATOR_EMAIL"))
	assert.Equal(t, "20s", os.Getenv("DISPATCH_TIMEOUT"))
}
