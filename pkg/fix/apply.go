package fix

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/drawrev/drawrev/pkg/errors"
	"github.com/drawrev/drawrev/pkg/model"
)

// Apply executes the plan against a working copy of the document and
// returns the fixed document, the applied actions, and the pre-mutation
// backup. The input document is never mutated.
//
// Apply is all-or-nothing: every action's post-condition is validated
// against the working copy, and if any action fails, the returned result
// carries the ORIGINAL document, no applied actions, and a
// RULE_VALIDATION_FAILED error enumerating the failing rule ids.
//
// The backup is taken before any mutation and is present in the result even
// when the apply is rejected, so callers can always hand it to their
// persistence layer.
//
// Applying the same plan twice to the same input is idempotent in effect:
// planning against the fixed document yields an empty plan.
func Apply(doc *model.Document, plan *Plan) (*Result, error) {
	if plan == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "plan must not be nil")
	}
	if err := doc.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "document")
	}

	// Backup precedes validation: it must be obtainable even when the
	// apply below is rejected.
	backup := &Backup{
		ID:       uuid.NewString(),
		TakenAt:  time.Now().UTC(),
		Document: doc.Clone(),
	}

	working := doc.Clone()
	var failed []string
	for _, a := range plan.Actions {
		if err := applyAction(working, a); err != nil {
			failed = append(failed, a.Rule)
			continue
		}
		if err := validateAction(working, a); err != nil {
			failed = append(failed, a.Rule)
		}
	}

	if len(failed) == 0 {
		// Structural invariant must survive the rewrite; a violation here
		// means an action sequence broke a layer reference.
		if err := working.Validate(); err != nil {
			failed = append(failed, "document-invariant")
		}
	}

	if len(failed) > 0 {
		return &Result{Document: doc, Backup: backup, PlanID: plan.ID},
			errors.Wrap(errors.ErrCodeRuleValidationFailed,
				&errors.RuleValidationError{FailedRules: dedupSorted(failed)},
				"apply rejected, document unchanged")
	}

	return &Result{
		Document: working,
		Applied:  slices.Clone(plan.Actions),
		Backup:   backup,
		PlanID:   plan.ID,
	}, nil
}

func dedupSorted(ids []string) []string {
	slices.Sort(ids)
	return slices.Compact(ids)
}
