// Package config provides configuration types for mockdeck.
// This file contains utilities for loading rules from file references and globs.

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/mockdeck/mockdeck/pkg/mock"
)

// ruleFileContent represents the possible contents of a rule file.
// A rule file can contain a single rule, a document with a rules list,
// or a bare array of rules.
type ruleFileContent struct {
	rule  mock.Rule
	rules []*mock.Rule
}

// UnmarshalYAML implements custom YAML unmarshaling to handle the single
// rule, rule collection, and bare array formats.
func (c *ruleFileContent) UnmarshalYAML(node *yaml.Node) error {
	// Check if it's a bare array
	if node.Kind == yaml.SequenceNode {
		return node.Decode(&c.rules)
	}

	// Check for a collection document: {rules: [...]}
	var rf mock.RuleFile
	if err := node.Decode(&rf); err == nil && len(rf.Rules) > 0 {
		c.rules = rf.Rules
		return nil
	}

	// Otherwise, unmarshal as a single rule
	return node.Decode(&c.rule)
}

// LoadRulesFromEntry loads rules from a RuleEntry.
// For inline rules, it returns the converted rule.
// For file references, it loads and parses the referenced file.
// For globs, it expands the pattern and loads all matching files.
// The baseDir is used to resolve relative paths.
func LoadRulesFromEntry(entry RuleEntry, baseDir string) ([]*mock.Rule, error) {
	switch {
	case entry.IsInline():
		rule := entry.ToRule()
		if err := rule.Validate(); err != nil {
			return nil, err
		}
		return []*mock.Rule{rule}, nil
	case entry.IsFileRef():
		return loadRulesFromFile(entry.File, baseDir)
	case entry.IsGlob():
		return loadRulesFromGlob(entry.Files, baseDir)
	default:
		return nil, errors.New("invalid rule entry: no id, file, or files specified")
	}
}

// LoadAllRules loads all rules from a slice of RuleEntry.
// It expands file references and globs, returning a flat slice of rules.
func LoadAllRules(entries []RuleEntry, baseDir string) ([]*mock.Rule, error) {
	var result []*mock.Rule

	for i, entry := range entries {
		rules, err := LoadRulesFromEntry(entry, baseDir)
		if err != nil {
			// Provide context about which entry failed
			if entry.IsFileRef() {
				return nil, fmt.Errorf("rules[%d] (file: %s): %w", i, entry.File, err)
			}
			if entry.IsGlob() {
				return nil, fmt.Errorf("rules[%d] (files: %s): %w", i, entry.Files, err)
			}
			return nil, fmt.Errorf("rules[%d]: %w", i, err)
		}
		result = append(result, rules...)
	}

	return result, nil
}

// loadRulesFromFile loads rules from a single file. Files are parsed as
// YAML, which accepts JSON documents as well. Loaded rules are validated
// and carry the resolved file path in their Source field.
func loadRulesFromFile(filePath, baseDir string) ([]*mock.Rule, error) {
	// Resolve the path relative to baseDir
	resolvedPath := ResolvePath(baseDir, filePath)

	// Read file
	file, err := os.Open(resolvedPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", resolvedPath)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("permission denied: %s", resolvedPath)
		}
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("file is empty: %s", resolvedPath)
	}

	// Apply environment variable expansion
	expanded := ExpandEnvVars(string(data))

	// Parse - handle single rule, rules list, and bare array formats
	var content ruleFileContent
	if err := yaml.Unmarshal([]byte(expanded), &content); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	rules := content.rules
	if len(rules) == 0 {
		// Single rule format - check if it has valid content
		if content.rule.ID == "" {
			return nil, fmt.Errorf("invalid rule file: missing 'id' field: %s", resolvedPath)
		}
		rule := content.rule
		rules = []*mock.Rule{&rule}
	}

	for _, rule := range rules {
		if rule == nil {
			return nil, fmt.Errorf("invalid rule file: null rule entry: %s", resolvedPath)
		}
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("rule %q: %w", rule.ID, err)
		}
		rule.Source = resolvedPath
	}

	return rules, nil
}

// loadRulesFromGlob loads rules from files matching a glob pattern.
// Supports ** for recursive directory matching via the doublestar library.
func loadRulesFromGlob(pattern, baseDir string) ([]*mock.Rule, error) {
	// Resolve the pattern relative to baseDir
	resolvedPattern := ResolvePath(baseDir, pattern)

	matches, err := expandGlob(resolvedPattern)
	if err != nil {
		return nil, fmt.Errorf("expanding glob pattern: %w", err)
	}

	if len(matches) == 0 {
		// Not an error, just no matches
		return []*mock.Rule{}, nil
	}

	// Sort matches for deterministic ordering
	sort.Strings(matches)

	var result []*mock.Rule
	for _, match := range matches {
		// Calculate relative path from baseDir for error messages
		relPath, _ := filepath.Rel(baseDir, match)
		if relPath == "" {
			relPath = match
		}

		rules, err := loadRulesFromFile(match, "")
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", relPath, err)
		}
		result = append(result, rules...)
	}

	return result, nil
}

// expandGlob expands a glob pattern to a list of matching file paths.
// Uses doublestar for ** support, falls back to filepath.Glob for simple patterns.
func expandGlob(pattern string) ([]string, error) {
	if strings.Contains(pattern, "**") {
		// FilepathGlob returns matches using the OS path separator
		return doublestar.FilepathGlob(pattern)
	}

	return filepath.Glob(pattern)
}
