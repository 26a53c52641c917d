// internal/observability/logger_test.go
package observability

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/mimic/internal/config"
)

// syncBuffer is a goroutine-safe WriteSyncer so tests can inspect console output.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) Sync() error { return nil }

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func setup(t *testing.T, cfg config.LoggerConfig) *syncBuffer {
	t.Helper()
	ResetForTest()
	t.Cleanup(ResetForTest)
	out := &syncBuffer{}
	Initialize(cfg, out)
	return out
}

func TestInitialize(t *testing.T) {
	t.Run("console output is colorized", func(t *testing.T) {
		out := setup(t, config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "TestService",
			Colors:      config.ColorConfig{Info: "green"},
		})

		GetLogger().Info("hovering target")
		Sync()

		s := out.String()
		assert.Contains(t, s, "INFO")
		assert.Contains(t, s, "hovering target")
		assert.Contains(t, s, ansiColors["green"])
		assert.Contains(t, s, colorReset)
		assert.Contains(t, s, "TestService.")
	})

	t.Run("json output is structured", func(t *testing.T) {
		out := setup(t, config.LoggerConfig{Level: "info", Format: "json", ServiceName: "JSONTest"})

		GetLogger().Warn("probe failed", zap.String("selector", "#spinner"))
		Sync()

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(out.String()), &entry))
		assert.Equal(t, "warn", entry["level"])
		assert.Equal(t, "JSONTest", entry["logger"])
		assert.Equal(t, "probe failed", entry["msg"])
		assert.Equal(t, "#spinner", entry["selector"])
	})

	t.Run("level filters lower entries", func(t *testing.T) {
		out := setup(t, config.LoggerConfig{Level: "warn", Format: "json"})
		GetLogger().Info("dropped")
		GetLogger().Error("kept")
		Sync()
		assert.NotContains(t, out.String(), "dropped")
		assert.Contains(t, out.String(), "kept")
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		out := setup(t, config.LoggerConfig{Level: "chatty", Format: "json"})
		GetLogger().Debug("hidden")
		GetLogger().Info("shown")
		Sync()
		assert.NotContains(t, out.String(), "hidden")
		assert.Contains(t, out.String(), "shown")
	})

	t.Run("file sink receives entries", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "mimic.log")
		setup(t, config.LoggerConfig{Level: "debug", Format: "console", LogFile: path, MaxSize: 1})

		GetLogger().Error("written to file")
		Sync()

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "written to file")
		assert.Contains(t, string(content), `"level":"error"`, "file sink is always JSON")
	})

	t.Run("initializes only once", func(t *testing.T) {
		out := setup(t, config.LoggerConfig{Level: "info", Format: "json", ServiceName: "First"})
		first := GetLogger()

		Initialize(config.LoggerConfig{Level: "debug", ServiceName: "Second"}, &syncBuffer{})
		second := GetLogger()

		assert.Same(t, first, second)
		second.Info("test")
		Sync()
		assert.Contains(t, out.String(), "First")
		assert.NotContains(t, out.String(), "Second")
	})
}

func TestGetLogger(t *testing.T) {
	t.Run("fallback before initialization", func(t *testing.T) {
		ResetForTest()
		require.NotNil(t, GetLogger())
	})

	t.Run("named children share the root", func(t *testing.T) {
		out := setup(t, config.LoggerConfig{Level: "info", Format: "json", ServiceName: "root"})
		Named("walker").Info("scan")
		Sync()
		assert.Contains(t, out.String(), `"logger":"root.walker"`)
	})
}

func TestColorizedLevelEncoder_NoColor(t *testing.T) {
	enc := colorizedLevelEncoder(config.ColorConfig{})
	arr := &levelCollector{}
	enc(zapcore.WarnLevel, arr)
	assert.Equal(t, []string{"WARN"}, arr.values)
}

type levelCollector struct {
	zapcore.PrimitiveArrayEncoder
	values []string
}

func (l *levelCollector) AppendString(s string) { l.values = append(l.values, s) }
