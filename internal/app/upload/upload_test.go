package upload

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// formFile round-trips content through a real multipart body so the
// header carries an honest Size.
func formFile(t *testing.T, filename string, content []byte) (multipart.File, *multipart.FileHeader) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	file, header, err := req.FormFile("file")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	t.Cleanup(func() { file.Close() })
	return file, header
}

func TestStageWritesFile(t *testing.T) {
	dir := t.TempDir()
	policy := ExperimentPolicy(dir)

	file, header := formFile(t, "Readings.CSV", []byte("a,b\n1,2\n"))
	staged, err := policy.Stage(file, header)
	if err != nil {
		t.Fatalf("stage: %v", err)
	}

	if !strings.HasPrefix(filepath.Base(staged.Path), "exp-") || !strings.HasSuffix(staged.Path, ".csv") {
		t.Fatalf("staged path = %q", staged.Path)
	}
	if !strings.HasPrefix(staged.URL, "/uploads/experiments/") {
		t.Fatalf("staged url = %q", staged.URL)
	}

	data, err := os.ReadFile(staged.Path)
	if err != nil {
		t.Fatalf("read staged file: %v", err)
	}
	if string(data) != "a,b\n1,2\n" {
		t.Fatalf("staged content = %q", data)
	}
}

func TestStageRejectsUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	policy := PostcardPolicy(dir)

	file, header := formFile(t, "image.bmp", []byte("bmp"))
	_, err := policy.Stage(file, header)
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("rejection must leave nothing on disk: %v", entries)
	}
}

func TestStageRejectsOversizedFile(t *testing.T) {
	dir := t.TempDir()
	policy := PostcardPolicy(dir)
	policy.MaxBytes = 16

	file, header := formFile(t, "big.png", bytes.Repeat([]byte{'x'}, 17))
	_, err := policy.Stage(file, header)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("rejection must leave nothing on disk: %v", entries)
	}
}

func TestStageNamesAreUnique(t *testing.T) {
	dir := t.TempDir()
	policy := PostcardPolicy(dir)

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		file, header := formFile(t, "photo.png", []byte("png"))
		staged, err := policy.Stage(file, header)
		if err != nil {
			t.Fatalf("stage %d: %v", i, err)
		}
		if seen[staged.Path] {
			t.Fatalf("duplicate staged name %q", staged.Path)
		}
		seen[staged.Path] = true
	}
}

func TestDiscard(t *testing.T) {
	dir := t.TempDir()
	policy := PostcardPolicy(dir)

	file, header := formFile(t, "photo.jpg", []byte("jpg"))
	staged, err := policy.Stage(file, header)
	if err != nil {
		t.Fatalf("stage: %v", err)
	}

	if err := staged.Discard(); err != nil {
		t.Fatalf("discard: %v", err)
	}
	if _, err := os.Stat(staged.Path); !os.IsNotExist(err) {
		t.Fatalf("file still present after discard")
	}

	// Nil receiver and double discard are tolerated asymmetrically: nil is
	// a no-op, a second discard surfaces the missing file.
	var none *Staged
	if err := none.Discard(); err != nil {
		t.Fatalf("nil discard: %v", err)
	}
	if err := staged.Discard(); err == nil {
		t.Fatalf("second discard should report the missing file")
	}
}
