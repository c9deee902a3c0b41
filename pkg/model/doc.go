// Package model provides the in-memory representation of an engineering
// drawing: ordered layers plus a flat, document-ordered collection of typed
// records.
//
// # Overview
//
// A [Document] holds one loaded drawing version. Layers carry presentation
// defaults (color, linetype, visibility); records are the atomic comparable
// units (lines, circles, text, dimensions, and so on). Records reference
// their layer by name, and the document invariant is that every reference
// resolves ([Document.Validate]).
//
// # Identity
//
// Record handles come from the source file and are only meaningful within
// one document. The same logical record can carry different handles in two
// revisions of a file, and a handle can be reused for different content.
// Cross-document matching is therefore content-based: see the fingerprint
// and compare packages.
//
// # Mutability
//
// Documents consumed by the compare package are treated as immutable. The
// fix package mutates only working copies produced by [Document.Clone];
// mutation helpers such as [Document.RemoveRecord] and
// [Document.RenameLayer] exist for that purpose.
//
// # Basic Usage
//
//	doc := model.New()
//	doc.AddLayer(model.Layer{Name: "0", Color: 7, Linetype: "CONTINUOUS", Visible: true})
//	doc.AddRecord(model.Record{
//		Handle: "A1",
//		Kind:   model.KindLine,
//		Layer:  "0",
//		Geom:   model.Geometry{Points: []model.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}},
//	})
package model
