package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PixelForum/internal/pkg/env"
)

func withEnv(t *testing.T, values map[string]string) {
	t.Helper()
	prev := env.Env
	env.Env = values
	t.Cleanup(func() { env.Env = prev })
}

func TestMetricsCredentials(t *testing.T) {
	tests := []struct {
		name     string
		values   map[string]string
		user     string
		password string
		wantErr  bool
	}{
		{
			name:     "configured",
			values:   map[string]string{"APP_ENV": "prod", "METRICS_USER": "scraper", "METRICS_PASSWORD": "s3cret"},
			user:     "scraper",
			password: "s3cret",
		},
		{
			name:    "missing in production",
			values:  map[string]string{"APP_ENV": "prod"},
			wantErr: true,
		},
		{
			name:    "password missing in production",
			values:  map[string]string{"APP_ENV": "prod", "METRICS_USER": "scraper"},
			wantErr: true,
		},
		{
			name:     "development fallback",
			values:   map[string]string{"APP_ENV": "dev"},
			user:     "admin",
			password: "test",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withEnv(t, tt.values)
			t.Setenv("METRICS_USER", "")
			t.Setenv("METRICS_PASSWORD", "")

			user, password, err := metricsCredentials()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.user, user)
			assert.Equal(t, tt.password, password)
		})
	}
}
