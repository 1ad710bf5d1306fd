package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// rulesFile is the on-disk rules document shape.
type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadFile reads an ordered rule list from a YAML document:
//
//	rules:
//	  - pattern: "*.{png,jpg}"
//	    codec: zstd
//	    level: 19
//	  - pattern: "fonts/**"
//	    codec: gzip
func LoadFile(path string) ([]Rule, error) {
	content, err := os.ReadFile(path) // #nosec G304 -- user-supplied rules file path
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var doc rulesFile
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	if len(doc.Rules) == 0 {
		return nil, fmt.Errorf("rules file %s declares no rules", path)
	}
	return doc.Rules, nil
}
