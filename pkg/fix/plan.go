package fix

import (
	"time"

	"github.com/google/uuid"

	"github.com/drawrev/drawrev/pkg/errors"
	"github.com/drawrev/drawrev/pkg/fingerprint"
	"github.com/drawrev/drawrev/pkg/model"
	"github.com/drawrev/drawrev/pkg/standards"
)

// Validate checks the ruleset configuration.
func (rs Ruleset) Validate() error {
	if err := rs.Fingerprint.Validate(); err != nil {
		return err
	}
	return errors.ValidateUnitInterval("near-duplicate threshold", rs.NearDuplicateThreshold)
}

// Build evaluates the document against the enabled rule catalog and returns
// the corrective plan. Nothing is mutated: the input document stays intact
// and the plan is inert until passed to [Apply], so callers can inspect or
// filter it first.
//
// Rules are evaluated in catalog order against a scratch copy that absorbs
// each rule's actions before the next rule runs, so the plan is internally
// consistent (a record scheduled for removal is never also scheduled for a
// merge). Planning on an already-fixed document yields an empty plan.
func Build(doc *model.Document, rs Ruleset, policy standards.Policy) (*Plan, error) {
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "document")
	}

	fp, err := fingerprint.New(rs.Fingerprint)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		ID:        uuid.NewString(),
		Standard:  policy.Name,
		CreatedAt: time.Now().UTC(),
	}

	scratch := doc.Clone()
	for _, g := range generators {
		if !g.enabled(rs) {
			continue
		}
		actions := g.gen(scratch, fp, rs, policy)
		for _, a := range actions {
			// A generator emitting an inapplicable action is a planner bug,
			// not a caller error.
			if err := applyAction(scratch, a); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, err, "rule %s produced inapplicable action", g.rule)
			}
		}
		plan.Actions = append(plan.Actions, actions...)
	}

	return plan, nil
}
