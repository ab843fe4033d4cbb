package injector

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/drivesim/internal/config"
)

func TestInitializeAppMissingTrack(t *testing.T) {
	fs := config.Flags("test")
	require.NoError(t, fs.Parse([]string{"--track", filepath.Join(t.TempDir(), "none.yaml"), "--storage", "none"}))
	cfg, err := config.Load(fs)
	require.NoError(t, err)

	_, err = InitializeApp(cfg)
	assert.Error(t, err)
}
