package pipeline

import (
	"github.com/fulmenhq/assetpress/pkg/snapshot"
)

// outputManager is the only writer of the shared snapshot. Each call
// targets a distinct original name (the orchestrator matches every
// asset at most once), so concurrent applies never touch the same key.
type outputManager struct {
	store        snapshot.Store
	renames      *renameMap
	keepOriginal bool
}

// apply lands one successful transform in the snapshot. In
// non-destructive mode the new asset is added next to the original.
// In destructive mode the new asset is added, the original is deleted,
// and the rename is recorded for the reference rewriter.
//
// When the derived name equals the original, the content is replaced
// in place and no rename is recorded: no textual reference changes.
func (m *outputManager) apply(original, renamed string, content []byte) error {
	if renamed == original {
		return m.store.Update(original, content)
	}

	if err := m.store.Add(renamed, content); err != nil {
		return err
	}

	if m.keepOriginal {
		return nil
	}

	if err := m.store.Delete(original); err != nil {
		return err
	}
	return m.renames.record(original, renamed)
}
