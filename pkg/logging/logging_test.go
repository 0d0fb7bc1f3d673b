package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"DEBUG", LevelDebug},
		{"Warning", LevelWarn},
		{"dEbUg", LevelDebug},
		{"", LevelInfo},
		{"trace", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	if got := ParseFormat("JSON"); got != FormatJSON {
		t.Errorf("ParseFormat(JSON) = %q, want %q", got, FormatJSON)
	}
	if got := ParseFormat("yaml"); got != FormatText {
		t.Errorf("ParseFormat(yaml) = %q, want %q", got, FormatText)
	}
}

func TestNew_JSONIncludesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(New(Config{Level: LevelDebug, Format: FormatJSON, Output: &buf}), "registry")
	logger.Debug("seed registered", "group", "checkout")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("log output is not JSON: %v (%q)", err, buf.String())
	}
	if record["component"] != "registry" {
		t.Errorf("component = %v, want registry", record["component"])
	}
	if record["group"] != "checkout" {
		t.Errorf("group = %v, want checkout", record["group"])
	}
}

func TestFromStrings_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := FromStrings("warn", "text", &buf)
	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record written at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn record missing: %q", out)
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
}
