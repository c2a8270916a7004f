package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/openfluke/ranksort/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetLogger(t *testing.T) {
	t.Cleanup(func() { Init(config.DefaultConfig().Logging) })
}

func TestInitWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ranksort.log")
	require.NoError(t, Init(config.LoggingConfig{Level: "debug", File: path}))
	resetLogger(t)

	assert.Equal(t, logrus.DebugLevel, Get().GetLevel())
	WithFields(logrus.Fields{"job": 7}).Debug("job state")
	Infof("Adapter %s", "test")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "job=7")
	assert.Contains(t, string(data), "Adapter test")
}

func TestForJobFieldOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranksort.log")
	require.NoError(t, Init(config.LoggingConfig{Level: "debug", File: path}))
	resetLogger(t)

	ForJob(12, "u32", 300).WithField("attempt", 1).WithField(FieldState, "mapped").Debug("job state")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := string(data)
	idx := func(s string) int {
		i := strings.Index(line, s)
		require.GreaterOrEqual(t, i, 0, "%q missing from %q", s, line)
		return i
	}
	assert.Less(t, idx(`msg="job state"`), idx("job=12"))
	assert.Less(t, idx("job=12"), idx("kind=u32"))
	assert.Less(t, idx("kind=u32"), idx("n=300"))
	assert.Less(t, idx("n=300"), idx("state=mapped"))
	assert.Less(t, idx("state=mapped"), idx("attempt=1"))
}

func TestInitUnknownLevelFallsBackToInfo(t *testing.T) {
	require.NoError(t, Init(config.LoggingConfig{Level: "chatty"}))
	resetLogger(t)
	assert.Equal(t, logrus.InfoLevel, Get().GetLevel())
}

func TestNewWithoutDestinationDiscards(t *testing.T) {
	l, err := New(config.LoggingConfig{Level: "info"})
	require.NoError(t, err)
	l.Info("dropped")
}
