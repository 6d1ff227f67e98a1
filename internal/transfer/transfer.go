// Package transfer converts snapshots to and from the JSON document admins
// download and upload. It never talks to a store.
package transfer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/debemdeboas/yasny-slukh/internal/model"
)

// MaxDocumentSize bounds an uploaded document.
const MaxDocumentSize = 32 << 20

const filenameLayout = "2006-01-02"

var errNotObject = errors.New("document is not a JSON object")

// FormatError reports an import document that does not parse as a snapshot.
type FormatError struct {
	Err error
}

func (e *FormatError) Error() string {
	return "invalid document: " + e.Err.Error()
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

type Document struct {
	Filename string
	Body     []byte
}

// Filename is the download name of an export made at now.
func Filename(now time.Time) string {
	return "admin-data-" + now.Format(filenameLayout) + ".json"
}

// Export serializes every collection and the hero as indented JSON.
func Export(s *model.Snapshot, now time.Time) (Document, error) {
	body, err := json.MarshalIndent(s.Clone(), "", "  ")
	if err != nil {
		return Document{}, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return Document{Filename: Filename(now), Body: append(body, '\n')}, nil
}

// Import parses a document produced by Export. Missing collections come back
// empty and unknown fields are ignored.
func Import(r io.Reader) (*model.Snapshot, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxDocumentSize+1))
	if err != nil {
		return nil, &FormatError{Err: err}
	}
	if len(data) > MaxDocumentSize {
		return nil, &FormatError{Err: fmt.Errorf("document exceeds %d bytes", MaxDocumentSize)}
	}
	return Parse(data)
}

// Parse is Import over an in-memory document.
func Parse(data []byte) (*model.Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		if !json.Valid(trimmed) {
			return nil, &FormatError{Err: errors.New("document is not valid JSON")}
		}
		return nil, &FormatError{Err: errNotObject}
	}

	s := &model.Snapshot{}
	if err := json.Unmarshal(trimmed, s); err != nil {
		return nil, &FormatError{Err: err}
	}
	s.Normalize()
	return s, nil
}
