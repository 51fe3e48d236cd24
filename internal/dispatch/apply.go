package dispatch

import (
	"context"
	"fmt"
	"iter"
)

// Outcome is the result of applying an action to one resource
type Outcome struct {
	ID  string
	Err error
}

// ApplyOptions controls how Apply treats per-item failures
type ApplyOptions struct {
	Verb    string // used in error messages: "stop", "start", ...
	Isolate bool   // keep going after a failed item

	// OnFailure is called for every isolated failure
	OnFailure func(id string, err error)
}

// Apply runs action on every resource of seq, in order.
//
// With Isolate set a failed item is recorded and reported through OnFailure and the
// loop moves on to the next resource. Otherwise the first failure stops the loop and
// is returned wrapped with the resource ID. An error yielded by seq itself always stops
// the loop and is returned as is. The outcomes of every item the action ran on are
// returned in both cases.
func Apply[R any](ctx context.Context, seq iter.Seq2[R, error], id func(R) string, action func(context.Context, R) error, opts ApplyOptions) ([]Outcome, error) {
	var outcomes []Outcome

	for r, err := range seq {
		if err != nil {
			return outcomes, err
		}
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		rid := id(r)
		err := action(ctx, r)
		outcomes = append(outcomes, Outcome{ID: rid, Err: err})
		if err == nil {
			continue
		}

		if !opts.Isolate {
			return outcomes, fmt.Errorf("%s %s: %w", opts.Verb, rid, err)
		}
		if opts.OnFailure != nil {
			opts.OnFailure(rid, err)
		}
	}

	return outcomes, nil
}

// Failures returns the outcomes that carry an error
func Failures(outcomes []Outcome) []Outcome {
	var failed []Outcome
	for _, o := range outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}
