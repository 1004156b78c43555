package resource

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/speedata/imageimport/bag"
)

func TestReadBytesFile(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "img.bin")
	content := []byte{0x89, 0x50, 0x4e, 0x47}
	if err := os.WriteFile(fn, content, 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewLoader()
	b, err := l.ReadBytes(fn)
	if err != nil {
		t.Fatalf("ReadBytes() = %v, want nil error", err)
	}
	if !bytes.Equal(b, content) {
		t.Error("ReadBytes returned different content")
	}

	_, err = l.ReadBytes(filepath.Join(dir, "does-not-exist"))
	if !errors.Is(err, bag.ErrNotFound) {
		t.Errorf("ReadBytes(missing) error = %v, want ErrNotFound", err)
	}
}

func TestReadBytesURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte("image bytes"))
		case "/gone":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	l := NewLoader()
	b, err := l.ReadBytes(srv.URL + "/ok")
	if err != nil {
		t.Fatalf("ReadBytes(ok) = %v, want nil error", err)
	}
	if got, want := string(b), "image bytes"; got != want {
		t.Errorf("body = %q, want %q", got, want)
	}

	if _, err = l.ReadBytes(srv.URL + "/gone"); !errors.Is(err, bag.ErrNotFound) {
		t.Errorf("ReadBytes(404) error = %v, want ErrNotFound", err)
	}
	if _, err = l.ReadBytes(srv.URL + "/boom"); !errors.Is(err, bag.ErrIO) {
		t.Errorf("ReadBytes(500) error = %v, want ErrIO", err)
	}
}
