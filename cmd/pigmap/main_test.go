package main

import (
	"flag"
	"testing"
)

// resetFlags lets each test call parseFlags-equivalent validation against a
// fresh config without flag.Parse's global state leaking between tests.
func resetFlags() {
	flag.CommandLine = flag.NewFlagSet("pigmap", flag.ContinueOnError)
}

func TestValidateRequiresInputAndOutputForFullRender(t *testing.T) {
	resetFlags()
	cfg := config{blockSize: 6, tileMult: 1}
	if _, err := validate(cfg); err == nil {
		t.Fatal("expected an error when -i/-o are missing")
	}
}

func TestValidateFullRenderRequiresBlockSizeAndTileMult(t *testing.T) {
	resetFlags()
	cfg := config{inputDir: "in", outputDir: "out"}
	if _, err := validate(cfg); err == nil {
		t.Fatal("expected an error when -B/-T are missing from a full render")
	}
}

func TestValidateFullRenderAccepted(t *testing.T) {
	resetFlags()
	cfg := config{inputDir: "in", outputDir: "out", blockSize: 6, tileMult: 1}
	mode, err := validate(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mode != modeFull {
		t.Fatalf("mode = %d, want modeFull", mode)
	}
}

func TestValidateFullRenderRejectsAllowExpand(t *testing.T) {
	resetFlags()
	cfg := config{inputDir: "in", outputDir: "out", blockSize: 6, tileMult: 1, allowExpand: true}
	if _, err := validate(cfg); err == nil {
		t.Fatal("expected an error: -x does not apply to a full render")
	}
}

func TestValidateIncrementalRejectsBlockSizeAndTileMult(t *testing.T) {
	resetFlags()
	flag.Int("B", 0, "")
	flag.Set("B", "6")
	cfg := config{inputDir: "in", outputDir: "out", chunkList: "list.txt"}
	if _, err := validate(cfg); err == nil {
		t.Fatal("expected an error: -B is not allowed alongside -c")
	}
}

func TestValidateIncrementalRejectsBothChunkAndRegionList(t *testing.T) {
	resetFlags()
	cfg := config{inputDir: "in", outputDir: "out", chunkList: "c.txt", regionList: "r.txt"}
	if _, err := validate(cfg); err == nil {
		t.Fatal("expected an error: -c and -r are mutually exclusive")
	}
}

func TestValidateIncrementalAccepted(t *testing.T) {
	resetFlags()
	cfg := config{inputDir: "in", outputDir: "out", chunkList: "c.txt"}
	mode, err := validate(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mode != modeIncremental {
		t.Fatalf("mode = %d, want modeIncremental", mode)
	}
}

func TestValidateTestWorldRejectsOtherFlags(t *testing.T) {
	resetFlags()
	cfg := config{testWorldSet: true, testWorldSize: 100, inputDir: "in"}
	if _, err := validate(cfg); err == nil {
		t.Fatal("expected an error: -w cannot be combined with -i")
	}
}

func TestValidateTestWorldRequiresPositiveSize(t *testing.T) {
	resetFlags()
	cfg := config{testWorldSet: true, testWorldSize: 0}
	if _, err := validate(cfg); err == nil {
		t.Fatal("expected an error: -w requires a positive size")
	}
}

func TestValidateTestWorldAccepted(t *testing.T) {
	resetFlags()
	cfg := config{testWorldSet: true, testWorldSize: 500}
	mode, err := validate(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mode != modeTest {
		t.Fatalf("mode = %d, want modeTest", mode)
	}
}
