package signconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pktsign.conf")
	contents := "[Application Options]\n" +
		"workers=4\n" +
		"sequential=1\n" +
		"preserveworkers=0\n" +
		"debuglevel=POOL=trace,PSBT=info\n" +
		"journal=$PKTSIGN_TEST_DIR/journal.db\n" +
		"rpcuser=ignored\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
	t.Setenv("PKTSIGN_TEST_DIR", dir)

	cfg, err := LoadFile(path, true)
	require.Nil(t, err)
	require.Equal(t, 4, cfg.Workers)
	require.True(t, cfg.Sequential)
	require.False(t, cfg.PreserveWorkers)
	require.Equal(t, "POOL=trace,PSBT=info", cfg.DebugLevel)
	require.Equal(t, filepath.Join(dir, "journal.db"), cfg.Journal)
	require.Equal(t, "", cfg.LogFile())

	pc := cfg.PoolConfig()
	require.Equal(t, 4, pc.WorkerCount)
	require.True(t, pc.Sequential)
	require.False(t, pc.PreserveWorkers)
}

func TestLoadFileMissing(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "none.conf")
	cfg, err := LoadFile(path, false)
	require.Nil(t, err)
	require.Equal(t, Default(), cfg)

	_, err = LoadFile(path, true)
	require.NotNil(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Workers = -1
	require.True(t, ErrInvalid.Is(cfg.Validate()))

	cfg = &Config{LogDir: "/tmp/x/../logs"}
	require.Nil(t, cfg.Validate())
	require.Equal(t, defaultDebugLevel, cfg.DebugLevel)
	require.Equal(t, filepath.Join("/tmp/logs", defaultLogFilename), cfg.LogFile())
}

func TestCreateDefaultConfigFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sub", "pktsign.conf")
	require.Nil(t, CreateDefaultConfigFile(path))

	cfg, err := LoadFile(path, true)
	require.Nil(t, err)
	require.Equal(t, Default(), cfg)

	// An existing file is left alone.
	require.NoError(t, os.WriteFile(path, []byte("workers=2\n"), 0600))
	require.Nil(t, CreateDefaultConfigFile(path))
	cfg, err = LoadFile(path, true)
	require.Nil(t, err)
	require.Equal(t, 2, cfg.Workers)
}
