package enginelog

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/yesoreyeram/routegraph/pkg/ids"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{name: "default config", config: DefaultConfig()},
		{name: "debug level", config: Config{Level: "debug", Output: &bytes.Buffer{}, Pretty: false}},
		{name: "pretty output", config: Config{Level: "info", Output: &bytes.Buffer{}, Pretty: true}},
		{name: "with caller", config: Config{Level: "info", Output: &bytes.Buffer{}, Pretty: false, IncludeCaller: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.config)
			if logger == nil {
				t.Error("Expected logger to be created, got nil")
			}
		})
	}
}

func TestLogger_Info(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(Config{Level: "info", Output: buf, Pretty: false})

	logger.Info("test message")

	output := buf.String()
	if !strings.Contains(output, "test message") {
		t.Errorf("Expected log to contain 'test message', got: %s", output)
	}
	if !strings.Contains(output, `"level":"INFO"`) {
		t.Errorf("Expected log to contain level INFO, got: %s", output)
	}
}

func TestLogger_Debug(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(Config{Level: "debug", Output: buf, Pretty: false})

	logger.Debug("debug message")

	output := buf.String()
	if !strings.Contains(output, "debug message") {
		t.Errorf("Expected log to contain 'debug message', got: %s", output)
	}
	if !strings.Contains(output, `"level":"DEBUG"`) {
		t.Errorf("Expected log to contain level DEBUG, got: %s", output)
	}
}

func TestLogger_DebugNotLogged(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(Config{Level: "info", Output: buf, Pretty: false})

	logger.Debug("debug message")

	if output := buf.String(); output != "" {
		t.Errorf("Expected no log output for debug when level is info, got: %s", output)
	}
}

func TestLogger_Warn(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(Config{Level: "warn", Output: buf, Pretty: false})

	logger.Warn("warning message")

	output := buf.String()
	if !strings.Contains(output, "warning message") {
		t.Errorf("Expected log to contain 'warning message', got: %s", output)
	}
	if !strings.Contains(output, `"level":"WARN"`) {
		t.Errorf("Expected log to contain level WARN, got: %s", output)
	}
}

func TestLogger_Error(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(Config{Level: "error", Output: buf, Pretty: false})

	logger.Error("error message")

	output := buf.String()
	if !strings.Contains(output, "error message") {
		t.Errorf("Expected log to contain 'error message', got: %s", output)
	}
	if !strings.Contains(output, `"level":"ERROR"`) {
		t.Errorf("Expected log to contain level ERROR, got: %s", output)
	}
}

func TestLogger_WithRenderID(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(Config{Level: "info", Output: buf, Pretty: false})

	logger = logger.WithRenderID("render-123")
	logger.Info("test")

	output := buf.String()
	if !strings.Contains(output, `"render_id":"render-123"`) {
		t.Errorf("Expected log to contain render_id, got: %s", output)
	}
}

func TestLogger_WithDag(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(Config{Level: "info", Output: buf, Pretty: false})

	logger = logger.WithDag(ids.Toplevel)
	logger.Info("test")

	output := buf.String()
	if !strings.Contains(output, `"dag":1`) {
		t.Errorf("Expected log to contain dag, got: %s", output)
	}
}

func TestLogger_WithNode(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(Config{Level: "info", Output: buf, Pretty: false})

	logger = logger.WithNode(ids.NodeHandle{Dag: ids.Toplevel, Local: 7})
	logger.Info("test")

	output := buf.String()
	if !strings.Contains(output, `"node":7`) {
		t.Errorf("Expected log to contain node, got: %s", output)
	}
}

func TestLogger_WithEffect(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(Config{Level: "info", Output: buf, Pretty: false})

	logger = logger.WithEffect("sine")
	logger.Info("test")

	output := buf.String()
	if !strings.Contains(output, `"effect_name":"sine"`) {
		t.Errorf("Expected log to contain effect_name, got: %s", output)
	}
}

func TestLogger_WithField(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(Config{Level: "info", Output: buf, Pretty: false})

	logger = logger.WithField("custom_field", "custom_value")
	logger.Info("test")

	output := buf.String()
	if !strings.Contains(output, `"custom_field":"custom_value"`) {
		t.Errorf("Expected log to contain custom_field, got: %s", output)
	}
}

func TestLogger_WithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(Config{Level: "info", Output: buf, Pretty: false})

	logger = logger.WithFields(map[string]interface{}{
		"field1": "value1",
		"field2": 42,
	})
	logger.Info("test")

	output := buf.String()
	if !strings.Contains(output, `"field1":"value1"`) {
		t.Errorf("Expected log to contain field1, got: %s", output)
	}
	if !strings.Contains(output, `"field2":42`) {
		t.Errorf("Expected log to contain field2, got: %s", output)
	}
}

func TestLogger_WithError(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(Config{Level: "info", Output: buf, Pretty: false})

	logger = logger.WithError(ErrInvalidLogLevel)
	logger.Info("test")

	output := buf.String()
	if !strings.Contains(output, "invalid log level") {
		t.Errorf("Expected log to contain the wrapped error, got: %s", output)
	}
}

func TestLogger_WithContext(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(Config{Level: "info", Output: buf, Pretty: false})

	ctx := logger.WithContext(context.Background())
	got := FromContext(ctx)

	if got != logger {
		t.Error("FromContext did not return the logger stored by WithContext")
	}
}

func TestFromContext_DefaultWhenAbsent(t *testing.T) {
	got := FromContext(context.Background())
	if got == nil {
		t.Error("FromContext should return a default logger when none is present")
	}
}

func TestLogger_PrettyOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(Config{Level: "info", Output: buf, Pretty: true})

	logger.Info("test message")

	output := buf.String()
	if strings.Contains(output, `"level":"INFO"`) {
		t.Errorf("Expected text output, not JSON, got: %s", output)
	}
	if !strings.Contains(output, "test message") {
		t.Errorf("Expected log to contain 'test message', got: %s", output)
	}
}

func TestLogger_GetSlogLogger(t *testing.T) {
	logger := New(DefaultConfig())
	if logger.GetSlogLogger() == nil {
		t.Error("GetSlogLogger returned nil")
	}
}
