// Package docio reads and writes the JSON interchange format for drawing
// documents.
//
// The format is the loader/saver contract of the core: an external
// converter produces it from the native drawing format, and this package
// turns it into a fully-populated [model.Document]. The format is
// human-readable and designed for round-trip fidelity: load, transform,
// save, re-load produces identical results.
package docio

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/drawrev/drawrev/pkg/errors"
	"github.com/drawrev/drawrev/pkg/model"
)

// document is the serialization shape of a drawing document.
type document struct {
	Layers  []model.Layer  `json:"layers"`
	Records []model.Record `json:"records"`
}

// Marshal converts a document to indented JSON bytes.
// Layers and records keep their document order.
func Marshal(doc *model.Document) ([]byte, error) {
	out := toWire(doc)
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return data, nil
}

// Write writes a document as JSON to w.
func Write(doc *model.Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toWire(doc)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteFile writes a document to a JSON file with 0644 permissions.
func WriteFile(doc *model.Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(doc, f)
}

// Read decodes a JSON document from r and validates its structural
// invariants. Returns an INVALID_DOCUMENT error for inconsistent content,
// such as a record referencing a missing layer.
func Read(r io.Reader) (*model.Document, error) {
	var data document
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode document")
	}
	return fromWire(data)
}

// ReadFile reads a JSON file and returns the decoded document.
// Returns FILE_NOT_FOUND if the path does not exist.
func ReadFile(path string) (*model.Document, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "document %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

func toWire(doc *model.Document) document {
	out := document{
		Layers:  make([]model.Layer, 0, doc.LayerCount()),
		Records: make([]model.Record, 0, doc.RecordCount()),
	}
	for _, l := range doc.Layers() {
		out.Layers = append(out.Layers, *l)
	}
	for _, r := range doc.Records() {
		out.Records = append(out.Records, *r.Clone())
	}
	return out
}

func fromWire(data document) (*model.Document, error) {
	doc := model.New()
	for _, l := range data.Layers {
		if err := doc.AddLayer(l); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "layer %q", l.Name)
		}
	}
	for _, r := range data.Records {
		if err := doc.AddRecord(r); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "record %q", r.Handle)
		}
	}
	return doc, nil
}
