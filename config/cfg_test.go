package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mdql/common"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}
	if cfg.Preview.MaxFileSize != 500000 {
		t.Errorf("MaxFileSize = %d, want 500000", cfg.Preview.MaxFileSize)
	}
	if cfg.Layout.Breakpoint != 320 {
		t.Errorf("Breakpoint = %v, want 320", cfg.Layout.Breakpoint)
	}
	if cfg.Layout.Normal.Heading(1).FontSize != 32 {
		t.Errorf("Normal h1 size = %v, want 32", cfg.Layout.Normal.Heading(1).FontSize)
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	path := writeConfig(t, `version: 1
layout:
  normal:
    table:
      max_table_width: 500
preview:
  width: 300
  format: json
logging:
  console:
    level: debug
`)
	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if cfg.Layout.Normal.Table.MaxTableWidth != 500 {
		t.Errorf("MaxTableWidth = %v, want 500", cfg.Layout.Normal.Table.MaxTableWidth)
	}
	// untouched values keep defaults
	if cfg.Layout.Normal.Table.MinColumnWidth != 50 {
		t.Errorf("MinColumnWidth = %v, want 50", cfg.Layout.Normal.Table.MinColumnWidth)
	}
	if cfg.Preview.Width != 300 || cfg.Preview.Format != "json" {
		t.Errorf("Preview = %+v", cfg.Preview)
	}
	if cfg.Logging.ConsoleLogger.Level != "debug" {
		t.Errorf("console level = %q, want debug", cfg.Logging.ConsoleLogger.Level)
	}
}

func TestLoadConfiguration_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"invalid yaml", "version: [1", "failed to process configuration file"},
		{"unknown field", "version: 1\nunknown: 1\n", "field unknown not found"},
		{"validation", "version: 2\n", "Version"},
		{"bad format", "version: 1\npreview:\n  format: pdf\n", "Format"},
		{"min above max", "version: 1\nlayout:\n  narrow:\n    table:\n      min_column_width: 500\n", "MaxColumnWidth"},
		{"narrow two columns", "version: 1\nlayout:\n  narrow:\n    front_matter:\n      two_column_min_fields: 2\n", "always single column"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfiguration(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("LoadConfiguration() expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("LoadConfiguration() error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadConfiguration_NonExistentFile(t *testing.T) {
	if _, err := LoadConfiguration(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadConfiguration() expected error for missing file")
	}
}

func TestPrepareAndDump(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	for _, want := range []string{"version: 1", "breakpoint: 320", "max_file_size: 500000", "min_column_width: 50"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("Prepare() output does not contain %q", want)
		}
	}

	// dumped configuration must be loadable again
	cfg, err := LoadConfiguration(writeConfig(t, string(data)))
	if err != nil {
		t.Fatalf("LoadConfiguration(dump) error = %v", err)
	}
	if cfg.Layout.Narrow.Table.MaxColumnWidth != 120 {
		t.Errorf("Narrow MaxColumnWidth = %v, want 120", cfg.Layout.Narrow.Table.MaxColumnWidth)
	}
}

func TestDefaultLayout(t *testing.T) {
	l := DefaultLayout()

	tests := []struct {
		width float64
		want  common.WidthTier
	}{
		{0, common.WidthTierNarrow},
		{319.9, common.WidthTierNarrow},
		{320, common.WidthTierNormal},
		{1200, common.WidthTierNormal},
	}
	for _, tt := range tests {
		if got := l.TierFor(tt.width); got != tt.want {
			t.Errorf("TierFor(%v) = %v, want %v", tt.width, got, tt.want)
		}
	}

	narrow, normal := l.Tier(common.WidthTierNarrow), l.Tier(common.WidthTierNormal)
	if narrow.BodyFontSize >= normal.BodyFontSize {
		t.Errorf("narrow body %v is not smaller than normal %v", narrow.BodyFontSize, normal.BodyFontSize)
	}
	if normal.Heading(0) != normal.Heading(1) || normal.Heading(9) != normal.Heading(6) {
		t.Error("Heading() does not clamp level")
	}

	// copies are independent
	l.Normal.Headings[0].FontSize = 1
	if DefaultLayout().Normal.Headings[0].FontSize != 32 {
		t.Error("DefaultLayout() returned shared headings")
	}
}
