package cmd

import (
	"log/slog"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	m "github.com/samir-djili/obfuscator/internal/model"
)

func TestParseSlogLevel(t *testing.T) {
	cases := []struct {
		value string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"Error", slog.LevelError},
		{"-4", slog.LevelDebug},
		{"8", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, c := range cases {
		require.Equal(t, c.want, parseSlogLevel(c.value, slog.LevelInfo), "value %q", c.value)
	}
}

func TestBuildConfig_Defaults(t *testing.T) {
	cfg := buildConfig()
	want := m.DefaultConfig()

	require.Equal(t, want.Level, cfg.Level)
	require.Equal(t, want.NamePattern, cfg.NamePattern)
	require.Equal(t, want.StringEncoding, cfg.StringEncoding)
	require.Equal(t, want.RandomizeSeed, cfg.RandomizeSeed)
	require.Equal(t, want.DeadCodeDensity, cfg.DeadCodeDensity)
	require.Equal(t, want.MaxRetries, cfg.MaxRetries)
	require.Equal(t, want.ExcludedPatterns, cfg.ExcludedPatterns)
	require.Empty(t, cfg.Techniques)
}

func TestBuildConfig_ReadsViperOverrides(t *testing.T) {
	viper.Set(levelConfigKey, 3)
	viper.Set(encodingConfigKey, "hex")
	viper.Set(techniquesConfigKey, []string{"string_encoding", "dead_code"})
	viper.Set(densityConfigKey, 0.5)

	defaults := m.DefaultConfig()

	t.Cleanup(func() {
		viper.Set(levelConfigKey, defaults.Level)
		viper.Set(encodingConfigKey, string(defaults.StringEncoding))
		viper.Set(techniquesConfigKey, []string{})
		viper.Set(densityConfigKey, defaults.DeadCodeDensity)
	})

	cfg := buildConfig()

	require.Equal(t, 3, cfg.Level)
	require.Equal(t, m.EncodingHex, cfg.StringEncoding)
	require.Equal(t, []m.TechniqueName{m.TechniqueStringEncoding, m.TechniqueDeadCode}, cfg.Techniques)
	require.InDelta(t, 0.5, cfg.DeadCodeDensity, 1e-9)
}
