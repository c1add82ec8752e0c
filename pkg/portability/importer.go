package portability

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode"

	"github.com/mockdeck/mockdeck/pkg/env"
)

// ImportResult contains the result of an import operation.
type ImportResult struct {
	// Environments are the parsed entries, ids cleared so the save
	// path assigns fresh ones
	Environments []*env.Environment

	// Count is the number of environments parsed
	Count int
}

// Import parses a JSON array of environments. The root must be an
// array; anything else rejects the whole import, so a failed import
// never applies partially. Every element is validated up front for the
// same reason. Callers persist the result through the environment
// store's save path, which assigns each entry a fresh id.
func Import(data []byte) (*ImportResult, error) {
	trimmed := bytes.TrimLeftFunc(data, unicode.IsSpace)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &ImportError{Message: "root must be a JSON array of environments"}
	}

	var envs []*env.Environment
	if err := json.Unmarshal(data, &envs); err != nil {
		return nil, &ImportError{Message: "parsing environments", Cause: err}
	}

	imported := make([]*env.Environment, 0, len(envs))
	for i, e := range envs {
		if e == nil {
			return nil, &ImportError{Message: fmt.Sprintf("environment %d is null", i)}
		}
		if err := e.Validate(); err != nil {
			return nil, &ImportError{
				Message: fmt.Sprintf("environment %d (%q)", i, e.Name),
				Cause:   err,
			}
		}
		clone := e.Clone()
		clone.ID = ""
		imported = append(imported, clone)
	}

	return &ImportResult{Environments: imported, Count: len(imported)}, nil
}

// ImportError represents an error during import.
type ImportError struct {
	Message string
	Cause   error
}

func (e *ImportError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ImportError) Unwrap() error {
	return e.Cause
}
