package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mockdeck/mockdeck/pkg/mock"
)

func TestLoadRulesFromEntry_Inline(t *testing.T) {
	entry := RuleEntry{
		ID: "health-check",
		Matcher: &mock.Matcher{
			Path: "/health",
		},
		Response: &mock.Response{
			StatusCode: 200,
			Body:       `{"status": "ok"}`,
		},
	}

	rules, err := LoadRulesFromEntry(entry, "/tmp")
	if err != nil {
		t.Fatalf("LoadRulesFromEntry failed: %v", err)
	}

	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}

	if rules[0].ID != "health-check" {
		t.Errorf("expected ID 'health-check', got %q", rules[0].ID)
	}
	if rules[0].Matcher.Path != "/health" {
		t.Errorf("expected path '/health', got %q", rules[0].Matcher.Path)
	}
	if rules[0].Response.StatusCode != 200 {
		t.Errorf("expected status code 200, got %d", rules[0].Response.StatusCode)
	}
}

func TestLoadRulesFromEntry_Inline_Invalid(t *testing.T) {
	// Inline rule with no response fails validation
	entry := RuleEntry{
		ID:      "bad-rule",
		Matcher: &mock.Matcher{Path: "/bad"},
	}

	_, err := LoadRulesFromEntry(entry, "/tmp")
	if err == nil {
		t.Fatal("expected validation error for inline rule without response")
	}
}

func TestLoadRulesFromEntry_FileRef_SingleRule(t *testing.T) {
	// Create a temp directory
	tmpDir := t.TempDir()

	// Create a rule file with a single rule
	ruleContent := `id: get-user
matcher:
  method: GET
  path: /api/user
response:
  statusCode: 200
  body: '{"id": 1, "name": "John"}'
`
	ruleFile := filepath.Join(tmpDir, "user.yaml")
	if err := os.WriteFile(ruleFile, []byte(ruleContent), 0644); err != nil {
		t.Fatalf("failed to write rule file: %v", err)
	}

	entry := RuleEntry{File: "./user.yaml"}
	rules, err := LoadRulesFromEntry(entry, tmpDir)
	if err != nil {
		t.Fatalf("LoadRulesFromEntry failed: %v", err)
	}

	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}

	if rules[0].ID != "get-user" {
		t.Errorf("expected ID 'get-user', got %q", rules[0].ID)
	}
	if rules[0].Matcher.Path != "/api/user" {
		t.Errorf("expected path '/api/user', got %q", rules[0].Matcher.Path)
	}
	if rules[0].Source != ruleFile {
		t.Errorf("expected Source %q, got %q", ruleFile, rules[0].Source)
	}
}

func TestLoadRulesFromEntry_FileRef_RulesList(t *testing.T) {
	tmpDir := t.TempDir()

	// Create a rule file with a rules list document
	ruleContent := `rules:
  - id: list-users
    matcher:
      method: GET
      path: /api/users
    response:
      statusCode: 200
      body: '[]'
  - id: create-user
    priority: 5
    matcher:
      method: POST
      path: /api/users
    response:
      statusCode: 201
      body: '{"id": 1}'
`
	ruleFile := filepath.Join(tmpDir, "users.yaml")
	if err := os.WriteFile(ruleFile, []byte(ruleContent), 0644); err != nil {
		t.Fatalf("failed to write rule file: %v", err)
	}

	entry := RuleEntry{File: "users.yaml"}
	rules, err := LoadRulesFromEntry(entry, tmpDir)
	if err != nil {
		t.Fatalf("LoadRulesFromEntry failed: %v", err)
	}

	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}

	if rules[0].ID != "list-users" {
		t.Errorf("expected first rule ID 'list-users', got %q", rules[0].ID)
	}
	if rules[1].ID != "create-user" {
		t.Errorf("expected second rule ID 'create-user', got %q", rules[1].ID)
	}
	if rules[1].Priority != 5 {
		t.Errorf("expected priority 5, got %d", rules[1].Priority)
	}
}

func TestLoadRulesFromEntry_FileRef_ArrayOfRules(t *testing.T) {
	tmpDir := t.TempDir()

	// Create a rule file with a bare array of rules
	ruleContent := `- id: rule-a
  matcher:
    path: /a
  response:
    statusCode: 200

- id: rule-b
  matcher:
    path: /b
  response:
    statusCode: 204
`
	ruleFile := filepath.Join(tmpDir, "rules.yaml")
	if err := os.WriteFile(ruleFile, []byte(ruleContent), 0644); err != nil {
		t.Fatalf("failed to write rule file: %v", err)
	}

	entry := RuleEntry{File: "rules.yaml"}
	rules, err := LoadRulesFromEntry(entry, tmpDir)
	if err != nil {
		t.Fatalf("LoadRulesFromEntry failed: %v", err)
	}

	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}

	if rules[0].ID != "rule-a" {
		t.Errorf("expected first rule ID 'rule-a', got %q", rules[0].ID)
	}
	if rules[1].ID != "rule-b" {
		t.Errorf("expected second rule ID 'rule-b', got %q", rules[1].ID)
	}
}

func TestLoadRulesFromEntry_FileRef_JSON(t *testing.T) {
	tmpDir := t.TempDir()

	// JSON documents parse through the YAML decoder
	ruleContent := `{
  "id": "json-rule",
  "matcher": {"method": "GET", "path": "/api/json"},
  "response": {"statusCode": 200, "body": "{}"}
}
`
	ruleFile := filepath.Join(tmpDir, "rule.json")
	if err := os.WriteFile(ruleFile, []byte(ruleContent), 0644); err != nil {
		t.Fatalf("failed to write rule file: %v", err)
	}

	entry := RuleEntry{File: "rule.json"}
	rules, err := LoadRulesFromEntry(entry, tmpDir)
	if err != nil {
		t.Fatalf("LoadRulesFromEntry failed: %v", err)
	}

	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	if rules[0].ID != "json-rule" {
		t.Errorf("expected ID 'json-rule', got %q", rules[0].ID)
	}
	if rules[0].Matcher.Method != "GET" {
		t.Errorf("expected method 'GET', got %q", rules[0].Matcher.Method)
	}
}

func TestLoadRulesFromEntry_Glob(t *testing.T) {
	tmpDir := t.TempDir()

	// Create a rules subdirectory
	rulesDir := filepath.Join(tmpDir, "rules")
	if err := os.MkdirAll(rulesDir, 0755); err != nil {
		t.Fatalf("failed to create rules dir: %v", err)
	}

	// Create rule files
	rule1 := `id: rule-1
matcher:
  path: /one
response:
  statusCode: 200
`
	rule2 := `id: rule-2
matcher:
  path: /two
response:
  statusCode: 200
`
	if err := os.WriteFile(filepath.Join(rulesDir, "one.yaml"), []byte(rule1), 0644); err != nil {
		t.Fatalf("failed to write rule1: %v", err)
	}
	if err := os.WriteFile(filepath.Join(rulesDir, "two.yaml"), []byte(rule2), 0644); err != nil {
		t.Fatalf("failed to write rule2: %v", err)
	}

	entry := RuleEntry{Files: "./rules/*.yaml"}
	rules, err := LoadRulesFromEntry(entry, tmpDir)
	if err != nil {
		t.Fatalf("LoadRulesFromEntry failed: %v", err)
	}

	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}

	// Rules should be sorted by filename
	ids := []string{rules[0].ID, rules[1].ID}
	if ids[0] != "rule-1" || ids[1] != "rule-2" {
		t.Errorf("expected IDs ['rule-1', 'rule-2'], got %v", ids)
	}
}

func TestLoadRulesFromEntry_Glob_Recursive(t *testing.T) {
	tmpDir := t.TempDir()

	// Create nested directory structure
	subDir := filepath.Join(tmpDir, "rules", "api", "users")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatalf("failed to create nested dirs: %v", err)
	}

	// Create rule files at different levels
	rootRule := `id: root-rule
matcher:
  path: /root
response:
  statusCode: 200
`
	nestedRule := `id: nested-rule
matcher:
  path: /nested
response:
  statusCode: 200
`
	if err := os.WriteFile(filepath.Join(tmpDir, "rules", "root.yaml"), []byte(rootRule), 0644); err != nil {
		t.Fatalf("failed to write root rule: %v", err)
	}
	if err := os.WriteFile(filepath.Join(subDir, "users.yaml"), []byte(nestedRule), 0644); err != nil {
		t.Fatalf("failed to write nested rule: %v", err)
	}

	entry := RuleEntry{Files: "./rules/**/*.yaml"}
	rules, err := LoadRulesFromEntry(entry, tmpDir)
	if err != nil {
		t.Fatalf("LoadRulesFromEntry failed: %v", err)
	}

	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}

	// Check both rules were loaded
	ids := make(map[string]bool)
	for _, r := range rules {
		ids[r.ID] = true
	}
	if !ids["root-rule"] {
		t.Error("expected to find 'root-rule'")
	}
	if !ids["nested-rule"] {
		t.Error("expected to find 'nested-rule'")
	}
}

func TestLoadRulesFromEntry_FileNotFound(t *testing.T) {
	tmpDir := t.TempDir()

	entry := RuleEntry{File: "./nonexistent.yaml"}
	_, err := LoadRulesFromEntry(entry, tmpDir)
	if err == nil {
		t.Fatal("expected error for nonexistent file")
	}
}

func TestLoadRulesFromEntry_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()

	// Create an invalid YAML file (unclosed bracket is truly invalid)
	invalidYAML := `invalid: [unclosed bracket
id: test`
	ruleFile := filepath.Join(tmpDir, "invalid.yaml")
	if err := os.WriteFile(ruleFile, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write invalid file: %v", err)
	}

	entry := RuleEntry{File: "./invalid.yaml"}
	_, err := LoadRulesFromEntry(entry, tmpDir)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoadRulesFromEntry_EmptyFile(t *testing.T) {
	tmpDir := t.TempDir()

	// Create an empty file
	ruleFile := filepath.Join(tmpDir, "empty.yaml")
	if err := os.WriteFile(ruleFile, []byte(""), 0644); err != nil {
		t.Fatalf("failed to write empty file: %v", err)
	}

	entry := RuleEntry{File: "./empty.yaml"}
	_, err := LoadRulesFromEntry(entry, tmpDir)
	if err == nil {
		t.Fatal("expected error for empty file")
	}
}

func TestLoadRulesFromEntry_MissingID(t *testing.T) {
	tmpDir := t.TempDir()

	// Rule file without an id field
	ruleContent := `matcher:
  path: /anonymous
response:
  statusCode: 200
`
	ruleFile := filepath.Join(tmpDir, "noid.yaml")
	if err := os.WriteFile(ruleFile, []byte(ruleContent), 0644); err != nil {
		t.Fatalf("failed to write rule file: %v", err)
	}

	entry := RuleEntry{File: "./noid.yaml"}
	_, err := LoadRulesFromEntry(entry, tmpDir)
	if err == nil {
		t.Fatal("expected error for rule file without id")
	}
}

func TestLoadRulesFromEntry_InvalidRule(t *testing.T) {
	tmpDir := t.TempDir()

	// Rule with an out-of-range status code fails validation
	ruleContent := `id: bad-status
matcher:
  path: /bad
response:
  statusCode: 999
`
	ruleFile := filepath.Join(tmpDir, "bad.yaml")
	if err := os.WriteFile(ruleFile, []byte(ruleContent), 0644); err != nil {
		t.Fatalf("failed to write rule file: %v", err)
	}

	entry := RuleEntry{File: "./bad.yaml"}
	_, err := LoadRulesFromEntry(entry, tmpDir)
	if err == nil {
		t.Fatal("expected validation error for invalid status code")
	}
}

func TestLoadRulesFromEntry_Glob_NoMatches(t *testing.T) {
	tmpDir := t.TempDir()

	entry := RuleEntry{Files: "./rules/*.yaml"}
	rules, err := LoadRulesFromEntry(entry, tmpDir)
	if err != nil {
		t.Fatalf("LoadRulesFromEntry failed: %v", err)
	}

	// No matches should return empty slice, not error
	if len(rules) != 0 {
		t.Errorf("expected 0 rules, got %d", len(rules))
	}
}

func TestLoadRulesFromEntry_InvalidEntry(t *testing.T) {
	entry := RuleEntry{} // Empty entry - no ID, no File, no Files
	_, err := LoadRulesFromEntry(entry, "/tmp")
	if err == nil {
		t.Fatal("expected error for invalid entry")
	}
}

func TestLoadAllRules(t *testing.T) {
	tmpDir := t.TempDir()

	// Create rule files
	ruleFile := `id: file-rule
matcher:
  path: /file
response:
  statusCode: 200
`
	if err := os.WriteFile(filepath.Join(tmpDir, "file.yaml"), []byte(ruleFile), 0644); err != nil {
		t.Fatalf("failed to write rule file: %v", err)
	}

	entries := []RuleEntry{
		{
			ID:       "inline-rule",
			Matcher:  &mock.Matcher{Path: "/inline"},
			Response: &mock.Response{StatusCode: 200},
		},
		{File: "./file.yaml"},
	}

	rules, err := LoadAllRules(entries, tmpDir)
	if err != nil {
		t.Fatalf("LoadAllRules failed: %v", err)
	}

	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}

	// Check both rules are present
	ids := make(map[string]bool)
	for _, r := range rules {
		ids[r.ID] = true
	}
	if !ids["inline-rule"] {
		t.Error("expected to find 'inline-rule'")
	}
	if !ids["file-rule"] {
		t.Error("expected to find 'file-rule'")
	}
}

func TestLoadAllRules_FileError(t *testing.T) {
	tmpDir := t.TempDir()

	entries := []RuleEntry{
		{
			ID:       "inline-rule",
			Matcher:  &mock.Matcher{Path: "/inline"},
			Response: &mock.Response{StatusCode: 200},
		},
		{File: "./nonexistent.yaml"},
	}

	_, err := LoadAllRules(entries, tmpDir)
	if err == nil {
		t.Fatal("expected error for nonexistent file")
	}

	// Error message should include the entry index and file path
	errStr := err.Error()
	if errStr == "" {
		t.Error("expected non-empty error message")
	}
}

func TestLoadRulesFromEntry_EnvVarExpansion(t *testing.T) {
	tmpDir := t.TempDir()

	// Set environment variable
	os.Setenv("TEST_STATUS_CODE", "201")
	defer os.Unsetenv("TEST_STATUS_CODE")

	ruleContent := `id: env-rule
matcher:
  path: /env
response:
  statusCode: ${TEST_STATUS_CODE}
  body: '{"created": true}'
`
	ruleFile := filepath.Join(tmpDir, "env.yaml")
	if err := os.WriteFile(ruleFile, []byte(ruleContent), 0644); err != nil {
		t.Fatalf("failed to write rule file: %v", err)
	}

	entry := RuleEntry{File: "./env.yaml"}
	rules, err := LoadRulesFromEntry(entry, tmpDir)
	if err != nil {
		t.Fatalf("LoadRulesFromEntry failed: %v", err)
	}

	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}

	if rules[0].Response.StatusCode != 201 {
		t.Errorf("expected status code 201, got %d", rules[0].Response.StatusCode)
	}
}
