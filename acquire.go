package imageimport

// Markers a reference string can start with.
const (
	// InlineMarker prefixes literal image bytes.
	InlineMarker = '@'
	// LinkMarker prefixes a path or URL that must be linked, not
	// embedded.
	LinkMarker = '&'
)

// Reader obtains the raw bytes behind a path or URL.
type Reader interface {
	ReadBytes(pathOrURL string) ([]byte, error)
}

// acquire resolves a reference into a record with raw bytes and
// header metadata. An empty reference yields the all-defaults record.
// Reader errors propagate unchanged.
func (im *Importer) acquire(ref string) (*Record, error) {
	rec := newRecord()
	if ref == "" {
		return rec, nil
	}
	switch ref[0] {
	case InlineMarker:
		rec.Raw = []byte(ref[1:])
		rec.Source = Source{Kind: SourceInline, Embed: true}
	case LinkMarker:
		rest := ref[1:]
		b, err := im.reader.ReadBytes(rest)
		if err != nil {
			return nil, err
		}
		rec.Raw = b
		rec.Source = Source{Kind: sourceKind(rest), Ref: rest, Embed: false}
	default:
		b, err := im.reader.ReadBytes(ref)
		if err != nil {
			return nil, err
		}
		rec.Raw = b
		rec.Source = Source{Kind: sourceKind(ref), Ref: ref, Embed: true}
	}
	if err := rec.refreshMetadata(); err != nil {
		return nil, err
	}
	return rec, nil
}
