package config

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func readArchive(t *testing.T, name string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(name)
	if err != nil {
		t.Fatalf("zip.OpenReader() error = %v", err)
	}
	defer zr.Close()

	out := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("Open(%s) error = %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("ReadAll(%s) error = %v", f.Name, err)
		}
		out[f.Name] = string(data)
	}
	return out
}

func TestReportClose_WritesEntries(t *testing.T) {
	dir := t.TempDir()
	conf := ReporterConfig{Destination: filepath.Join(dir, "report.zip")}
	r, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	src := filepath.Join(dir, "source.md")
	if err := os.WriteFile(src, []byte("# Title"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	r.Store("source.md", src)
	r.Store("missing.log", filepath.Join(dir, "nope.log"))
	r.StoreData("dump.txt", []byte("tree"))
	r.StoreData("dump.txt", []byte("tree again"))

	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	files := readArchive(t, r.Name())
	if files["source.md"] != "# Title" {
		t.Errorf("source.md = %q, want %q", files["source.md"], "# Title")
	}
	if files["dump.txt"] != "tree" {
		t.Errorf("dump.txt = %q, want %q", files["dump.txt"], "tree")
	}
	if _, ok := files["missing.log"]; ok {
		t.Error("absent file should not be archived")
	}
	if _, ok := files["MANIFEST"]; !ok {
		t.Error("MANIFEST is missing")
	}
	// versioned duplicate + MANIFEST + source + dump
	if len(files) != 4 {
		t.Errorf("archive has %d entries, want 4", len(files))
	}
}

func TestReportStore_PanicsOnOverwrite(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	r.Store("a", "/tmp/one")
	defer func() {
		if recover() == nil {
			t.Error("Store() with different path did not panic")
		}
	}()
	r.Store("a", "/tmp/two")
}

func TestReportClose_NilReport(t *testing.T) {
	var r *Report
	if err := r.Close(); err != nil {
		t.Errorf("Close() on nil report error = %v", err)
	}
	if r.Name() != "" {
		t.Errorf("Name() on nil report = %q", r.Name())
	}
	r.Store("x", "y")
	r.StoreData("x", nil)
}

func TestReportClose_NilFile(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	if err := r.Close(); err != nil {
		t.Errorf("Close() with nil file error = %v", err)
	}
}
