// SPDX-License-Identifier: MIT

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvlearn/internal/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:8080", cfg.Address)
	require.Equal(t, 30*time.Second, cfg.ClientTimeout)
	require.Equal(t, "adam", cfg.Optimizer)
	require.Equal(t, uint64(7), cfg.Seed)
	require.Equal(t, "model.lvm", cfg.ModelPath)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("LVLEARN_TRAIN_EPOCHS", "3")
	t.Setenv("LVLEARN_PCA_BACKEND", "gonum")

	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	require.Equal(t, 3, cfg.Epochs)
	require.Equal(t, "gonum", cfg.Backend)
}

func TestLoadConfig_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("LVLEARN_SERVER_ADDRESS=0.0.0.0:9999\n"), 0o644))
	t.Setenv("LVLEARN_SERVER_ADDRESS", "")
	require.NoError(t, os.Unsetenv("LVLEARN_SERVER_ADDRESS"))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:9999", cfg.Address)
}

func TestLoadConfig_BadValue(t *testing.T) {
	t.Setenv("LVLEARN_TRAIN_EPOCHS", "many")
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.env"))
	require.Error(t, err)
}
