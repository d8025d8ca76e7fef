package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:                  "development",
		Port:                 "8080",
		JWTSecret:            "secure-secret-at-least-32-chars-long",
		DBDriver:             "sqlite",
		DBPath:               "test.db",
		ImageStorage:         "local",
		ImageMaxUploadSizeMB: 10,
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.DBDriver = "postgres"
			c.DBSSLMode = tt.sslMode
			c.DBPassword = "secure-password"

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateDriverAndStorage(t *testing.T) {
	c := validConfig()
	c.DBDriver = "mysql"
	assert.Error(t, c.Validate())

	c = validConfig()
	c.DBPath = ""
	assert.Error(t, c.Validate())

	c = validConfig()
	c.ImageStorage = "minio"
	assert.Error(t, c.Validate(), "minio requires an endpoint")

	c.MinioEndpoint = "localhost:9000"
	c.MinioBucket = "images"
	assert.NoError(t, c.Validate())

	c = validConfig()
	c.Env = "production"
	c.JWTSecret = defaultJWTSecret
	assert.Error(t, c.Validate())
}

func TestConfig_MonitorInterval(t *testing.T) {
	c := validConfig()
	assert.Equal(t, 300*time.Second, c.MonitorInterval())
	c.MonitorIntervalSeconds = 5
	assert.Equal(t, 5*time.Second, c.MonitorInterval())
}

func TestLoadConfig_Normalization(t *testing.T) {
	defer os.Unsetenv("APP_ENV")
	defer os.Unsetenv("DB_SSLMODE")
	defer os.Unsetenv("DB_DRIVER")
	defer viper.Reset()

	os.Setenv("APP_ENV", "development")
	os.Setenv("DB_SSLMODE", "  DISABLE  ")
	os.Setenv("DB_DRIVER", " SQLite ")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, "8375", c.Port)
}
