// Package pipeline implements the asset transformation pass: select
// assets by rule, re-encode them through a codec, land the output in
// the snapshot, rewrite textual references to renamed assets, and
// aggregate a savings report.
package pipeline

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/fulmenhq/assetpress/pkg/codec"
	"github.com/fulmenhq/assetpress/pkg/rules"
	"github.com/fulmenhq/assetpress/pkg/snapshot"
)

// Options configures one pipeline pass.
type Options struct {
	// OverrideExtension strips an asset's existing extension before
	// appending the codec's output extension.
	OverrideExtension bool

	// KeepOriginal leaves originals in place (non-destructive mode).
	// When false, originals are deleted and references rewritten.
	KeepOriginal bool

	// Concurrency bounds in-flight transforms; zero means unbounded.
	Concurrency int

	// Progress, when set, is called once per outcome as it settles.
	// Calls are serialized; outcomes arrive in settle order.
	Progress func(Outcome)
}

// Pipeline runs transformation passes over a snapshot.
type Pipeline struct {
	rules *rules.Set
	opts  Options
}

// New creates a pipeline from a compiled rule set.
func New(set *rules.Set, opts Options) *Pipeline {
	return &Pipeline{rules: set, opts: opts}
}

// Result is the settled state of one pass.
type Result struct {
	// Outcomes holds one entry per matched asset, in settle order.
	// Unmatched assets contribute nothing.
	Outcomes []Outcome

	// Renames maps original→new names for destructively transformed
	// assets. Empty in non-destructive mode.
	Renames map[string]string

	// Rewritten lists the textual assets whose content was patched to
	// point at renamed outputs.
	Rewritten []string

	// Report is the fold of all outcomes.
	Report Report
}

// Run executes one pass over the store. All matched assets are
// transformed concurrently; Run returns only after every launched
// transform has settled and, when renames occurred, after textual
// references have been rewritten. A failed transform never cancels or
// blocks its siblings.
func (p *Pipeline) Run(ctx context.Context, store snapshot.Store) (*Result, error) {
	renames := newRenameMap()
	output := &outputManager{
		store:        store,
		renames:      renames,
		keepOriginal: p.opts.KeepOriginal,
	}

	var mu sync.Mutex
	var outcomes []Outcome
	settle := func(outcome Outcome) {
		mu.Lock()
		outcomes = append(outcomes, outcome)
		if p.opts.Progress != nil {
			p.opts.Progress(outcome)
		}
		mu.Unlock()
	}

	group, gctx := errgroup.WithContext(ctx)
	if p.opts.Concurrency > 0 {
		group.SetLimit(p.opts.Concurrency)
	}

	// The name list is fixed before any transform lands, so assets
	// added during the pass are never re-matched.
	for _, name := range store.Names() {
		rule, ok := p.rules.Match(name)
		if !ok {
			continue // untouched, contributes nothing to the report
		}

		name := name
		group.Go(func() error {
			settle(p.transform(gctx, store, output, name, rule))
			// Failures are isolated per asset: never propagate into
			// the group, which would cancel in-flight siblings.
			return nil
		})
	}

	// Join barrier: everything downstream depends on all transforms
	// having settled.
	_ = group.Wait()

	result := &Result{
		Outcomes: outcomes,
		Renames:  renames.snapshot(),
		Report:   Aggregate(outcomes),
	}

	if len(result.Renames) > 0 {
		result.Rewritten = rewriteReferences(store, result.Renames)
	}

	return result, nil
}

// transform runs one asset through its rule's codec and lands the
// output. The derived name is reported even on failure.
func (p *Pipeline) transform(ctx context.Context, store snapshot.Store, output *outputManager, name string, rule rules.Rule) Outcome {
	c, err := codec.Lookup(rule.Codec)
	if err != nil {
		// Rule sets validate codecs at compile time; reaching this
		// means the registry changed underneath us.
		return Outcome{OriginalName: name, NewName: name, Err: err}
	}

	newName := OutputName(name, rule.Options.OutputExt(c), p.opts.OverrideExtension)
	outcome := Outcome{OriginalName: name, NewName: newName}

	content, err := store.Read(name)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	transformed, err := c.Transform(ctx, content, rule.Options)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	if err := output.apply(name, newName, transformed); err != nil {
		outcome.Err = err
		return outcome
	}

	outcome.Succeeded = true
	outcome.SavedBytes = int64(len(content)) - int64(len(transformed))
	return outcome
}
