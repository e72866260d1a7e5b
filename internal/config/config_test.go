package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a Config that passes Validate after ApplyDefaults.
func validConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

func TestApplyDefaults_ProducesValidConfig(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, "file", cfg.Catalog.Source)
	assert.Equal(t, DefaultQuickMatchTopK, cfg.Recognition.QuickMatchTopK)
	assert.Equal(t, DefaultMaxResults, cfg.Recognition.MaxResults)
	assert.Equal(t, DefaultMinImageDimension, cfg.Recognition.MinImageDimension)
	assert.InDelta(t, 1.0,
		cfg.Recognition.ColorWeight+cfg.Recognition.ShapeWeight+
			cfg.Recognition.TextureWeight+cfg.Recognition.VectorWeight, 1e-9)
	assert.InDelta(t, 1.0,
		cfg.Recognition.LexicalWeight+cfg.Recognition.KeyFeatureWeight+
			cfg.Recognition.SeriesWeight+cfg.Recognition.TextColorWeight+
			cfg.Recognition.NameWeight, 1e-9)
}

func TestApplyDefaults_DoesNotOverrideExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 9999
	cfg.Recognition.ColorWeight = 0.7
	cfg.Recognition.ShapeWeight = 0.1
	cfg.Recognition.TextureWeight = 0.1
	cfg.Recognition.VectorWeight = 0.1
	ApplyDefaults(cfg)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 0.7, cfg.Recognition.ColorWeight)
}

func TestValidate_Failures(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{
			name:    "bad server port",
			mutate:  func(c *Config) { c.Server.Port = -1 },
			wantMsg: "server.port",
		},
		{
			name:    "bad server mode",
			mutate:  func(c *Config) { c.Server.Mode = "production" },
			wantMsg: "server.mode",
		},
		{
			name:    "bad catalog source",
			mutate:  func(c *Config) { c.Catalog.Source = "dynamo" },
			wantMsg: "catalog.source",
		},
		{
			name: "file source without path",
			mutate: func(c *Config) {
				c.Catalog.Source = "file"
				c.Catalog.Path = ""
			},
			wantMsg: "catalog.path",
		},
		{
			name: "postgres source without user",
			mutate: func(c *Config) {
				c.Catalog.Source = "postgres"
				c.Database.User = ""
			},
			wantMsg: "database.user",
		},
		{
			name: "visual weights off by far",
			mutate: func(c *Config) {
				c.Recognition.ColorWeight = 0.9
			},
			wantMsg: "visual weights",
		},
		{
			name: "text weights off by far",
			mutate: func(c *Config) {
				c.Recognition.NameWeight = 0.9
			},
			wantMsg: "text weights",
		},
		{
			name:    "zero top k",
			mutate:  func(c *Config) { c.Recognition.QuickMatchTopK = -3 },
			wantMsg: "quick_match_top_k",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantMsg: "log.level",
		},
		{
			name: "milvus enabled without addr",
			mutate: func(c *Config) {
				c.Milvus.Enabled = true
				c.Milvus.Addr = ""
			},
			wantMsg: "milvus.addr",
		},
		{
			name: "kafka enabled without brokers",
			mutate: func(c *Config) {
				c.Kafka.Enabled = true
				c.Kafka.Brokers = nil
			},
			wantMsg: "kafka.brokers",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantMsg)
		})
	}
}
