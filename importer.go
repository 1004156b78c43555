package imageimport

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/speedata/imageimport/bag"
	"github.com/speedata/imageimport/raster"
)

// Flags is what a finalizer reports back to the importer.
type Flags struct {
	// NeedsRecode is set when the finalizer could not use the bytes
	// as supplied and wants one normalization pass.
	NeedsRecode bool
	// SplitAlpha is set when the source carries a separable alpha
	// channel.
	SplitAlpha bool
}

// A Finalizer turns a record's raw bytes into the container-ready
// FinalData payload and stream parameters. There is one finalizer per
// target format.
type Finalizer interface {
	Finalize(rec *Record) (Flags, error)
}

// Importer runs the import pipeline and owns the cache of finished
// records. It is safe for concurrent use; concurrent imports of the
// same key collapse into a single build.
type Importer struct {
	// SessionID identifies this importer instance in log output.
	SessionID uuid.UUID

	reader     Reader
	codec      raster.Codec
	finalizers map[raster.Format]Finalizer

	mu       sync.Mutex
	records  map[string]*Record
	inflight map[string]chan struct{}
}

// New creates an importer. The reader resolves paths and URLs, the
// finalizers map target formats to their container-specific encoder.
// A nil codec selects the default raster codec.
func New(reader Reader, codec raster.Codec, finalizers map[raster.Format]Finalizer) *Importer {
	if codec == nil {
		codec = raster.NewCodec()
	}
	fin := make(map[raster.Format]Finalizer, len(finalizers))
	for f, v := range finalizers {
		fin[f] = v
	}
	return &Importer{
		SessionID:  uuid.New(),
		reader:     reader,
		codec:      codec,
		finalizers: fin,
		records:    make(map[string]*Record),
		inflight:   make(map[string]chan struct{}),
	}
}

// Import resolves a reference into a finished record. A width or
// height of 0 means "use the natural dimension"; quality is clamped
// to 0..100 and only affects JPEG targets. The result is cached under
// a key derived from the four request values, a second call with the
// same arguments returns the stored record.
func (im *Importer) Import(ref string, width, height, quality int, defaultForPrint bool) (*Record, error) {
	if quality < 0 {
		quality = 0
	}
	if quality > 100 {
		quality = 100
	}
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	key := DeriveKey(ref, width, height, quality)

	for {
		im.mu.Lock()
		if rec, ok := im.records[key]; ok {
			im.mu.Unlock()
			bag.LogWithFields(bag.Fields{"component": "imageimport"}).Debugf("cache hit for %s", key)
			return rec, nil
		}
		ch, building := im.inflight[key]
		if !building {
			im.inflight[key] = make(chan struct{})
			im.mu.Unlock()
			break
		}
		im.mu.Unlock()
		<-ch
	}

	rec, err := im.build(key, ref, width, height, quality, defaultForPrint)

	im.mu.Lock()
	if err == nil {
		im.records[key] = rec
	}
	close(im.inflight[key])
	delete(im.inflight, key)
	im.mu.Unlock()
	return rec, err
}

// GetByKey looks up a previously imported record.
func (im *Importer) GetByKey(key string) (*Record, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	rec, ok := im.records[key]
	if !ok {
		return nil, fmt.Errorf("%w: no image for key %s", bag.ErrNotFound, key)
	}
	return rec, nil
}

func (im *Importer) build(key, ref string, width, height, quality int, defaultForPrint bool) (*Record, error) {
	bag.LogWithFields(bag.Fields{
		"component": "imageimport",
		"session":   im.SessionID,
	}).Infof("Load image %s", ref)

	rec, err := im.acquire(ref)
	if err != nil {
		return nil, err
	}
	rec.Key = key
	rec.DefaultForPrint = defaultForPrint
	if len(rec.Raw) == 0 {
		return rec, nil
	}

	if width <= 0 {
		width = rec.Width
	}
	if height <= 0 {
		height = rec.Height
	}

	if !rec.IsNativeFormat || width != rec.Width || height != rec.Height {
		if err = im.recode(rec, width, height, true, quality); err != nil {
			return nil, err
		}
	}

	flags, err := im.finalize(rec)
	if err != nil {
		return nil, err
	}
	if flags.NeedsRecode {
		// the container claimed a format the finalizer could not
		// parse; normalize once and try again
		if err = im.recode(rec, width, height, true, quality); err != nil {
			return nil, err
		}
		if flags, err = im.finalize(rec); err != nil {
			return nil, err
		}
		if flags.NeedsRecode {
			return nil, fmt.Errorf("%w: %s not usable after recode", bag.ErrDecode, rec.TargetFormat)
		}
	}

	if flags.SplitAlpha {
		plain := rec.Clone()
		if err = im.recode(plain, rec.Width, rec.Height, false, quality); err != nil {
			return nil, err
		}
		if _, err = im.finalize(plain); err != nil {
			return nil, err
		}
		mask, err := im.extractAlphaMask(rec)
		if err != nil {
			return nil, err
		}
		if _, err = im.finalize(mask); err != nil {
			return nil, err
		}
		rec.Plain = plain
		rec.Mask = mask
	}
	return rec, nil
}

func (im *Importer) finalize(rec *Record) (Flags, error) {
	fin, ok := im.finalizers[rec.TargetFormat]
	if !ok {
		return Flags{}, fmt.Errorf("%w: no finalizer for target format %q", bag.ErrDecode, rec.TargetFormat)
	}
	return fin.Finalize(rec)
}
