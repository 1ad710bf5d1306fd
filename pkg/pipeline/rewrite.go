package pipeline

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/fulmenhq/assetpress/pkg/logger"
	"github.com/fulmenhq/assetpress/pkg/snapshot"
)

// referenceExts selects the textual assets that may reference other
// assets by name: stylesheets and scripts, including their companion
// source maps.
var referenceExts = []string{
	".css", ".js", ".mjs", ".html",
	".css.map", ".js.map", ".mjs.map",
}

// isReferenceAsset reports whether name is a rewrite candidate.
func isReferenceAsset(name string) bool {
	for _, ext := range referenceExts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// combinedPattern builds one regexp matching any renamed original as a
// literal. Keys are sorted by descending length so that when one name
// is a substring of another, the longer name always wins at a given
// position.
func combinedPattern(renames map[string]string) *regexp.Regexp {
	keys := make([]string, 0, len(renames))
	for key := range renames {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	quoted := make([]string, len(keys))
	for i, key := range keys {
		quoted[i] = regexp.QuoteMeta(key)
	}
	return regexp.MustCompile(strings.Join(quoted, "|"))
}

// rewriteReferences patches every textual asset so occurrences of
// renamed originals point at their new names. Runs once, after all
// transforms have settled, with the fully populated rename map.
// Returns the names of assets whose content changed.
//
// Per-asset failures are contained: an asset that cannot be decoded or
// written back is skipped with a warning and the rest continue.
func rewriteReferences(store snapshot.Store, renames map[string]string) []string {
	pattern := combinedPattern(renames)

	var rewritten []string
	for _, name := range store.Names() {
		if !isReferenceAsset(name) {
			continue
		}

		content, err := store.Read(name)
		if err != nil {
			logger.Warn("skipping reference rewrite", logger.String("asset", name), logger.Err(err))
			continue
		}

		// Fail closed on binary content
		if !utf8.Valid(content) {
			logger.Warn("skipping reference rewrite: content is not valid UTF-8", logger.String("asset", name))
			continue
		}

		replaced := pattern.ReplaceAllStringFunc(string(content), func(match string) string {
			return renames[match]
		})
		if replaced == string(content) {
			continue // zero occurrences: observably identical, no write
		}

		if err := store.Update(name, []byte(replaced)); err != nil {
			logger.Warn("failed to write rewritten asset", logger.String("asset", name), logger.Err(err))
			continue
		}
		rewritten = append(rewritten, name)
	}

	sort.Strings(rewritten)
	return rewritten
}
