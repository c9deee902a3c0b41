package fingerprint

import (
	"fmt"

	"github.com/drawrev/drawrev/pkg/model"
)

// Feature weights for similarity scoring. Discriminating features (text
// content, insertion point, radius) weigh more than peripheral ones so that
// a changed annotation scores lower than a nudged vertex.
const (
	weightText      = 3.0
	weightAnchor    = 2.0
	weightRadius    = 1.5
	weightAttribute = 1.0
	weightVertex    = 1.0
	weightExtent    = 0.5
)

// Similarity scores how alike two records are, in [0, 1].
//
// The score is a weighted Jaccard overlap over a decomposed feature set:
// quantized geometry components and non-volatile attributes, weighted by
// how discriminating each feature is for the record kind. Records of
// different kinds score 0; records with identical fingerprints score 1.
//
// The comparator uses this as a fallback when exact fingerprints fail to
// align counts; the fix package uses it for near-duplicate consolidation.
func (f *Fingerprinter) Similarity(a, b *model.Record) float64 {
	if a.Kind != b.Kind {
		return 0
	}
	if f.Fingerprint(a) == f.Fingerprint(b) {
		return 1
	}

	fa := f.features(a)
	fb := f.features(b)

	var intersection, union float64
	for feat, w := range fa {
		if _, ok := fb[feat]; ok {
			intersection += w
		}
		union += w
	}
	for feat, w := range fb {
		if _, ok := fa[feat]; !ok {
			union += w
		}
	}
	if union == 0 {
		return 0
	}
	return intersection / union
}

// features decomposes a record into weighted features. The first geometry
// point is treated as the record's anchor (line start, circle center, text
// insertion point) and keyed by position; remaining points form an
// order-insensitive vertex set so that re-ordered polyline serializations
// still overlap.
func (f *Fingerprinter) features(r *model.Record) map[string]float64 {
	feats := make(map[string]float64)

	for i, p := range r.Geom.Points {
		key := fmt.Sprintf("pt:%d,%d,%d", f.quantize(p.X), f.quantize(p.Y), f.quantize(p.Z))
		if i == 0 {
			feats["anchor:"+key] = weightAnchor
		} else {
			feats[key] = weightVertex
		}
	}
	if r.Geom.Radius != 0 {
		feats[fmt.Sprintf("r:%d", f.quantize(r.Geom.Radius))] = weightRadius
	}
	if r.Geom.StartAngle != 0 || r.Geom.EndAngle != 0 {
		feats[fmt.Sprintf("ang:%d,%d", f.quantize(r.Geom.StartAngle), f.quantize(r.Geom.EndAngle))] = weightVertex
	}
	for _, e := range r.Geom.Extents {
		feats[fmt.Sprintf("ext:%d", f.quantize(e))] = weightExtent
	}

	for k, v := range r.Attrs {
		if f.isVolatile(k) {
			continue
		}
		w := weightAttribute
		if k == model.AttrText {
			w = weightText
		}
		feats["attr:"+k+"="+canonicalValue(v, f)] = w
	}

	return feats
}
