// Package rules holds the ordered matcher→codec rule set that decides
// which assets are transformed and how. Order is significant: the
// first rule whose matcher accepts an asset name wins, with no
// fallthrough to later rules.
package rules

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/fulmenhq/assetpress/pkg/codec"
)

// regexPrefix marks a rule pattern as a raw regular expression instead
// of a glob.
const regexPrefix = "re:"

// DefaultPattern is the glob used when no rules are configured: common
// raster image formats anywhere in the snapshot.
const DefaultPattern = "*.{png,jpg,jpeg,gif,bmp}"

// DefaultCodec is the codec used by the default rule.
const DefaultCodec = "zstd"

// Rule pairs an asset-name matcher with codec configuration. Rules are
// immutable once the set is built.
type Rule struct {
	// Pattern is a doublestar glob, or a regular expression when
	// prefixed with "re:". No normalization or case folding is applied.
	Pattern string `mapstructure:"pattern" yaml:"pattern"`

	// Codec names the registered codec this rule applies.
	Codec string `mapstructure:"codec" yaml:"codec"`

	// Options is the opaque codec configuration handed through on
	// every transform.
	Options codec.Options `mapstructure:",squash" yaml:",inline"`
}

type compiledRule struct {
	rule  Rule
	match func(name string) bool
}

// Set is an ordered, compiled rule set.
type Set struct {
	rules []compiledRule
}

// NewSet compiles rules in declaration order. Every pattern must be
// valid and every codec must be registered.
func NewSet(ruleList []Rule) (*Set, error) {
	set := &Set{rules: make([]compiledRule, 0, len(ruleList))}

	for i, rule := range ruleList {
		if rule.Pattern == "" {
			return nil, fmt.Errorf("rule %d: empty pattern", i)
		}
		if rule.Codec == "" {
			rule.Codec = DefaultCodec
		}
		if _, err := codec.Lookup(rule.Codec); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}

		match, err := compileMatcher(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		set.rules = append(set.rules, compiledRule{rule: rule, match: match})
	}

	return set, nil
}

// Default returns the built-in single-rule set matching common raster
// image extensions.
func Default() *Set {
	set, err := NewSet([]Rule{{Pattern: DefaultPattern, Codec: DefaultCodec}})
	if err != nil {
		// The built-in pattern is a constant; failing to compile it is
		// a programming error.
		panic("rules: default rule set: " + err.Error())
	}
	return set
}

// Match returns the first rule whose matcher accepts name, in
// declaration order. No side effects.
func (s *Set) Match(name string) (Rule, bool) {
	for _, compiled := range s.rules {
		if compiled.match(name) {
			return compiled.rule, true
		}
	}
	return Rule{}, false
}

// Len returns the number of rules in the set.
func (s *Set) Len() int {
	return len(s.rules)
}

// compileMatcher builds the predicate for one pattern. Globs with no
// path separator also match against the base name, so "*.png" selects
// images in subdirectories too.
func compileMatcher(pattern string) (func(string) bool, error) {
	if rest, ok := strings.CutPrefix(pattern, regexPrefix); ok {
		re, err := regexp.Compile(rest)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern %q: %w", rest, err)
		}
		return re.MatchString, nil
	}

	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern %q", pattern)
	}

	baseOnly := !strings.Contains(pattern, "/")
	return func(name string) bool {
		if matched, err := doublestar.Match(pattern, name); err == nil && matched {
			return true
		}
		if baseOnly {
			if matched, err := doublestar.Match(pattern, path.Base(name)); err == nil && matched {
				return true
			}
		}
		return false
	}, nil
}
