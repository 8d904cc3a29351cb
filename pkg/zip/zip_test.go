package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
)

func TestArchiveAssets(t *testing.T) {
	archive, err := ArchiveAssets([]Asset{
		{Filename: "a.png", MIME: "image/png", Data: []byte{1, 2, 3}},
		{Filename: "empty.png", MIME: "image/png"},
		{Filename: "b.jpg", MIME: "image/jpeg", Data: []byte{4, 5}},
	})
	if err != nil {
		t.Fatalf("ArchiveAssets returned error: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("archive holds %d files, want 2 (empty asset skipped)", len(zr.File))
	}

	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatalf("open entry: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read entry: %v", err)
	}
	if zr.File[0].Name != "a.png" || !bytes.Equal(data, []byte{1, 2, 3}) {
		t.Fatalf("entry = %q %v", zr.File[0].Name, data)
	}
}

func TestArchiveAssetsEmptyInput(t *testing.T) {
	archive, err := ArchiveAssets(nil)
	if err != nil {
		t.Fatalf("ArchiveAssets returned error: %v", err)
	}
	if _, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive))); err != nil {
		t.Fatalf("empty archive unreadable: %v", err)
	}
}
