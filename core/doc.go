// Package core provides the foundational domain types used by AgentMind. It
// defines the core abstractions for:
//
//   - Messages (role-based chat turns exchanged with a model)
//   - Sources (document citations attached to a completion)
//   - Ledger records (memory, reflection, hypothesis, self-state)
//
// The package intentionally keeps implementation concerns (persistence,
// capability adapters, orchestration) out of scope so that ledgers and
// capability providers can depend on a small, stable vocabulary without
// introducing dependency cycles.
package core
