package htmlout

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/equalpants/pigmap-go/internal/mapcoord"
)

func TestWriteSubstitutesPlaceholders(t *testing.T) {
	htmlDir := t.TempDir()
	outDir := t.TempDir()

	template := "tile={tileSize} b={B} t={T} z={baseZoom}"
	if err := os.WriteFile(filepath.Join(htmlDir, "template.html"), []byte(template), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(htmlDir, "style.css"), []byte("body{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	mp := mapcoord.MapParams{B: 6, T: 1, BaseZoom: 3}
	if err := Write(htmlDir, outDir, mp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(outDir, "pigmap-default.html"))
	if err != nil {
		t.Fatal(err)
	}
	want := "tile=" + strconv.FormatInt(mp.TileSize(), 10) + " b=6 t=1 z=3"
	if string(got) != want {
		t.Fatalf("output = %q, want %q", got, want)
	}

	css, err := os.ReadFile(filepath.Join(outDir, "style.css"))
	if err != nil {
		t.Fatal(err)
	}
	if string(css) != "body{}" {
		t.Fatalf("style.css = %q, want copied unchanged", css)
	}
}

func TestWriteMissingTemplateIsSilentNoOp(t *testing.T) {
	htmlDir := t.TempDir()
	outDir := t.TempDir()

	if err := Write(htmlDir, outDir, mapcoord.MapParams{B: 6, T: 1, BaseZoom: 1}); err != nil {
		t.Fatalf("missing template.html should be a silent no-op, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "pigmap-default.html")); !os.IsNotExist(err) {
		t.Fatal("no output file should have been written")
	}
}
