package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulmenhq/assetpress/pkg/codec"
	"github.com/fulmenhq/assetpress/pkg/rules"
	"github.com/fulmenhq/assetpress/pkg/snapshot"
)

// faultyStore wraps a MemStore and fails reads for selected names, to
// exercise per-asset failure isolation.
type faultyStore struct {
	*snapshot.MemStore
	failReads map[string]bool
}

func (s *faultyStore) Read(name string) ([]byte, error) {
	if s.failReads[name] {
		return nil, errors.New("injected read failure")
	}
	return s.MemStore.Read(name)
}

func identityRules(t *testing.T, patterns ...string) *rules.Set {
	t.Helper()
	list := make([]rules.Rule, 0, len(patterns))
	for _, pattern := range patterns {
		list = append(list, rules.Rule{Pattern: pattern, Codec: "identity", Options: codec.Options{Ext: ".out"}})
	}
	set, err := rules.NewSet(list)
	require.NoError(t, err)
	return set
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		name     string
		ext      string
		override bool
		expected string
	}{
		{"photo.png", ".avif", true, "photo.avif"},
		{"photo.png", ".avif", false, "photo.png.avif"},
		{"img/photo.png", ".zst", true, "img/photo.zst"},
		{"img/photo.png", ".zst", false, "img/photo.png.zst"},
		{"noext", ".zst", true, "noext.zst"},
		{"noext", ".zst", false, "noext.zst"},
		{"archive.tar.gz", ".zst", true, "archive.tar.zst"},
	}

	for _, test := range tests {
		result := OutputName(test.name, test.ext, test.override)
		assert.Equal(t, test.expected, result, "OutputName(%q, %q, %v)", test.name, test.ext, test.override)
	}
}

func TestRunNonDestructive(t *testing.T) {
	store := snapshot.NewMemStoreFrom(map[string][]byte{
		"a.png":     []byte("imagebytes"),
		"style.css": []byte("url(a.png)"),
	})
	p := New(identityRules(t, "*.png"), Options{OverrideExtension: true, KeepOriginal: true})

	result, err := p.Run(context.Background(), store)
	require.NoError(t, err)

	// Both the original and the new asset are present
	_, readErr := store.Read("a.png")
	assert.NoError(t, readErr)
	content, readErr := store.Read("a.out")
	require.NoError(t, readErr)
	assert.Equal(t, "imagebytes", string(content))

	// No renames, so references stay untouched
	assert.Empty(t, result.Renames)
	assert.Empty(t, result.Rewritten)
	css, _ := store.Read("style.css")
	assert.Equal(t, "url(a.png)", string(css))

	require.Len(t, result.Outcomes, 1)
	assert.True(t, result.Outcomes[0].Succeeded)
	assert.Equal(t, int64(0), result.Outcomes[0].SavedBytes)
}

func TestRunDestructive(t *testing.T) {
	store := snapshot.NewMemStoreFrom(map[string][]byte{
		"a.png":     []byte("imagebytes"),
		"style.css": []byte("url(a.png)"),
		"app.js":    []byte("'a.png'"),
	})
	p := New(identityRules(t, "*.png"), Options{OverrideExtension: true, KeepOriginal: false})

	result, err := p.Run(context.Background(), store)
	require.NoError(t, err)

	_, readErr := store.Read("a.png")
	assert.ErrorIs(t, readErr, snapshot.ErrNotFound, "original must be removed")
	_, readErr = store.Read("a.out")
	assert.NoError(t, readErr)

	assert.Equal(t, map[string]string{"a.png": "a.out"}, result.Renames)
	assert.ElementsMatch(t, []string{"app.js", "style.css"}, result.Rewritten)

	css, _ := store.Read("style.css")
	assert.Equal(t, "url(a.out)", string(css))
	js, _ := store.Read("app.js")
	assert.Equal(t, "'a.out'", string(js))
}

func TestRunUnmatchedContributesNothing(t *testing.T) {
	store := snapshot.NewMemStoreFrom(map[string][]byte{
		"readme.txt": []byte("hello"),
	})
	p := New(identityRules(t, "*.png"), Options{OverrideExtension: true, KeepOriginal: true})

	result, err := p.Run(context.Background(), store)
	require.NoError(t, err)

	assert.Empty(t, result.Outcomes)
	assert.Equal(t, Report{}, result.Report)
	assert.Equal(t, 1, store.Len(), "unmatched asset passes through untouched")
}

func TestRunAtMostOnce(t *testing.T) {
	// Asset matches both rules; only the first applies, so exactly one
	// outcome and one new asset exist afterwards.
	store := snapshot.NewMemStoreFrom(map[string][]byte{"x.png": []byte("bytes")})
	set, err := rules.NewSet([]rules.Rule{
		{Pattern: "*.png", Codec: "identity", Options: codec.Options{Ext: ".first"}},
		{Pattern: "*.{png,jpg}", Codec: "identity", Options: codec.Options{Ext: ".second"}},
	})
	require.NoError(t, err)

	p := New(set, Options{OverrideExtension: true, KeepOriginal: true})
	result, runErr := p.Run(context.Background(), store)
	require.NoError(t, runErr)

	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, "x.first", result.Outcomes[0].NewName)
	_, readErr := store.Read("x.second")
	assert.ErrorIs(t, readErr, snapshot.ErrNotFound)
}

func TestRunFailureIsolation(t *testing.T) {
	store := &faultyStore{
		MemStore: snapshot.NewMemStoreFrom(map[string][]byte{
			"a.png": []byte("good"),
			"b.png": []byte("bad"),
		}),
		failReads: map[string]bool{"b.png": true},
	}
	p := New(identityRules(t, "*.png"), Options{OverrideExtension: true, KeepOriginal: true})

	result, err := p.Run(context.Background(), store)
	require.NoError(t, err)

	// a.png's output is present and correct despite b.png's failure
	content, readErr := store.Read("a.out")
	require.NoError(t, readErr)
	assert.Equal(t, "good", string(content))

	assert.Equal(t, 1, result.Report.FailureCount)
	require.Len(t, result.Outcomes, 2)

	for _, outcome := range result.Outcomes {
		if outcome.OriginalName == "b.png" {
			assert.False(t, outcome.Succeeded)
			assert.Error(t, outcome.Err)
			assert.Equal(t, "b.out", outcome.NewName, "derived name is reported even on failure")
		} else {
			assert.True(t, outcome.Succeeded)
		}
	}
}

func TestRunFailedAssetNotRenamed(t *testing.T) {
	store := &faultyStore{
		MemStore: snapshot.NewMemStoreFrom(map[string][]byte{
			"a.png":     []byte("good"),
			"b.png":     []byte("bad"),
			"style.css": []byte("url(a.png) url(b.png)"),
		}),
		failReads: map[string]bool{"b.png": true},
	}
	p := New(identityRules(t, "*.png"), Options{OverrideExtension: true, KeepOriginal: false})

	result, err := p.Run(context.Background(), store)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"a.png": "a.out"}, result.Renames)

	css, _ := store.Read("style.css")
	assert.Equal(t, "url(a.out) url(b.png)", string(css),
		"references to the failed asset must survive unchanged")
}

func TestRunSameOutputNameUpdatesInPlace(t *testing.T) {
	// A rule whose target extension matches the current one replaces
	// content under the same name; nothing to rename or rewrite.
	store := snapshot.NewMemStoreFrom(map[string][]byte{
		"a.out":     []byte("old"),
		"style.css": []byte("url(a.out)"),
	})
	p := New(identityRules(t, "*.out"), Options{OverrideExtension: true, KeepOriginal: false})

	result, err := p.Run(context.Background(), store)
	require.NoError(t, err)

	assert.Empty(t, result.Renames)
	content, readErr := store.Read("a.out")
	require.NoError(t, readErr)
	assert.Equal(t, "old", string(content))
	css, _ := store.Read("style.css")
	assert.Equal(t, "url(a.out)", string(css))
}

func TestRunConcurrentFanOut(t *testing.T) {
	// All matched assets settle even with a large unbounded fan-out.
	assets := make(map[string][]byte)
	for i := 0; i < 200; i++ {
		assets[fmt.Sprintf("img/%03d.png", i)] = []byte(strings.Repeat("x", i+1))
	}
	store := snapshot.NewMemStoreFrom(assets)

	p := New(identityRules(t, "*.png"), Options{OverrideExtension: false, KeepOriginal: true})
	result, err := p.Run(context.Background(), store)
	require.NoError(t, err)

	assert.Len(t, result.Outcomes, 200)
	assert.Equal(t, 0, result.Report.FailureCount)
	assert.Equal(t, 400, store.Len())
}

func TestRunBoundedConcurrency(t *testing.T) {
	// A bound must not change observable behavior
	assets := make(map[string][]byte)
	for i := 0; i < 50; i++ {
		assets[fmt.Sprintf("%02d.png", i)] = []byte("data")
	}
	store := snapshot.NewMemStoreFrom(assets)

	p := New(identityRules(t, "*.png"), Options{OverrideExtension: true, KeepOriginal: false, Concurrency: 2})
	result, err := p.Run(context.Background(), store)
	require.NoError(t, err)

	assert.Len(t, result.Outcomes, 50)
	assert.Len(t, result.Renames, 50)
}

func TestRunProgressCallback(t *testing.T) {
	store := snapshot.NewMemStoreFrom(map[string][]byte{
		"a.png": []byte("a"),
		"b.png": []byte("b"),
		"c.png": []byte("c"),
	})

	var mu sync.Mutex
	var seen []string
	p := New(identityRules(t, "*.png"), Options{
		OverrideExtension: true,
		KeepOriginal:      true,
		Progress: func(outcome Outcome) {
			mu.Lock()
			seen = append(seen, outcome.OriginalName)
			mu.Unlock()
		},
	})

	_, err := p.Run(context.Background(), store)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.png", "b.png", "c.png"}, seen)
}

func TestRunZstdEndToEnd(t *testing.T) {
	original := []byte(strings.Repeat("highly compressible payload ", 100))
	store := snapshot.NewMemStoreFrom(map[string][]byte{
		"a.png":     original,
		"style.css": []byte("url(a.png)"),
		"app.js":    []byte("'a.png'"),
	})

	set, err := rules.NewSet([]rules.Rule{{Pattern: "*.png", Codec: "zstd"}})
	require.NoError(t, err)
	p := New(set, Options{OverrideExtension: true, KeepOriginal: false})

	result, runErr := p.Run(context.Background(), store)
	require.NoError(t, runErr)

	_, readErr := store.Read("a.png")
	assert.ErrorIs(t, readErr, snapshot.ErrNotFound)
	compressed, readErr := store.Read("a.zst")
	require.NoError(t, readErr)
	assert.Less(t, len(compressed), len(original))

	css, _ := store.Read("style.css")
	assert.Equal(t, "url(a.zst)", string(css))
	js, _ := store.Read("app.js")
	assert.Equal(t, "'a.zst'", string(js))

	assert.Equal(t, 0, result.Report.FailureCount)
	assert.Equal(t, int64(len(original)-len(compressed)), result.Report.TotalSavedBytes)
}

func TestRunNegativeSavings(t *testing.T) {
	// Tiny incompressible input grows under gzip framing
	store := snapshot.NewMemStoreFrom(map[string][]byte{"a.png": []byte("x")})
	set, err := rules.NewSet([]rules.Rule{{Pattern: "*.png", Codec: "gzip"}})
	require.NoError(t, err)

	p := New(set, Options{OverrideExtension: true, KeepOriginal: true})
	result, runErr := p.Run(context.Background(), store)
	require.NoError(t, runErr)

	require.Len(t, result.Outcomes, 1)
	assert.True(t, result.Outcomes[0].Succeeded)
	assert.Negative(t, result.Outcomes[0].SavedBytes)
	assert.Negative(t, result.Report.TotalSavedBytes)
}
