package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_MalformedConfigErrors(t *testing.T) {
	req := require.New(t)
	wd, err := os.Getwd()
	req.NoError(err)
	req.NoError(os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("CONFIG_ENV", "bad")
	req.NoError(os.Mkdir("config", 0o755))
	req.NoError(os.WriteFile("config/config.bad.yaml", []byte("port: [not, a, number]\n"), 0o644))

	cfg, err := Load()

	req.Error(err)
	req.Nil(cfg)
}

func TestLoad_DefaultsWhenFileAbsent(t *testing.T) {
	req := require.New(t)
	t.Setenv("CONFIG_ENV", "nonexistent")

	cfg, err := Load()

	req.NoError(err)
	req.Equal("release", cfg.Mode)
	req.Equal(5000, cfg.Port)
	req.Equal(int64(32768), cfg.ReadLimit)
	req.Equal(25*time.Second, cfg.PingPeriod)
	req.Equal([]string{"General", "Games", "Music"}, cfg.Rooms)
}
