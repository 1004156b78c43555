// Package resource reads image bytes from the local filesystem or
// from http(s) URLs.
package resource

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/speedata/imageimport/bag"
)

// Loader fetches bytes from a path or URL. The zero value is not
// usable, create one with NewLoader.
type Loader struct {
	// Client performs the URL requests. Replace it to change the
	// timeout or transport.
	Client *http.Client
}

// NewLoader returns a loader with a 10 second request timeout.
func NewLoader() *Loader {
	return &Loader{
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

// ReadBytes returns the contents behind pathOrURL. Missing files and
// 404 responses map to bag.ErrNotFound, every other failure to
// bag.ErrIO.
func (l *Loader) ReadBytes(pathOrURL string) ([]byte, error) {
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return l.readURL(pathOrURL)
	}
	b, err := os.ReadFile(pathOrURL)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", bag.ErrNotFound, pathOrURL)
		}
		return nil, fmt.Errorf("%w: %v", bag.ErrIO, err)
	}
	return b, nil
}

func (l *Loader) readURL(url string) ([]byte, error) {
	resp, err := l.Client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bag.ErrIO, err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", bag.ErrNotFound, url)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: %s returned status %d", bag.ErrIO, url, resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bag.ErrIO, err)
	}
	return b, nil
}
