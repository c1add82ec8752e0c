// Package storage provides rule storage abstractions and implementations.
//
// It defines the RuleStore interface for storing, retrieving, and managing
// mock rules, along with concrete implementations.
//
// Key types:
//
//   - RuleStore: Interface defining the contract for rule storage backends
//   - InMemoryRuleStore: Thread-safe in-memory implementation of RuleStore
//   - FilteredRuleStore: Wrapper that scopes an underlying store to one service
//
// The RuleStore interface supports:
//
//   - CRUD operations (Get, Set, Delete)
//   - Listing rules (all or by source file)
//   - Existence checking and counting
//   - Bulk clear operations
//
// The InMemoryRuleStore implementation is safe for concurrent access and
// is the storage backend each mock service serves from.
package storage
