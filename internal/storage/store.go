// Package storage provides rule storage abstractions and implementations.
package storage

import (
	"github.com/mockdeck/mockdeck/pkg/mock"
)

// RuleStore defines the interface for storing and retrieving mock rules.
type RuleStore interface {
	// Get retrieves a rule by ID. Returns nil if not found.
	Get(id string) *mock.Rule

	// Set stores or updates a rule.
	Set(r *mock.Rule) error

	// Delete removes a rule by ID. Returns true if deleted, false if not found.
	Delete(id string) bool

	// List returns all stored rules.
	List() []*mock.Rule

	// ListBySource returns all rules loaded from a specific source file.
	ListBySource(source string) []*mock.Rule

	// Count returns the number of stored rules.
	Count() int

	// Clear removes all stored rules.
	Clear()

	// Exists checks if a rule with the given ID exists.
	Exists(id string) bool
}
