package assets

import (
	"io"
	"os"
	"testing"
)

func TestOpenEmbedded(t *testing.T) {
	f, err := Open(SawyerWindowHorizontal)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Error("open: embedded asset is empty")
	}
}

func TestOpenMissing(t *testing.T) {
	if _, err := Open("sawyer_xyz/missing.xml"); err == nil {
		t.Error("open: expected error for missing asset")
	}
	if _, err := Open("./missing.xml"); err == nil {
		t.Error("open: expected error for missing file")
	}
}

func TestFullPath(t *testing.T) {
	path, err := FullPath(SawyerWindowHorizontal)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("fullPath: asset not written to disk: %v", err)
	}
}
