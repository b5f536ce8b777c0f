// Package model defines the generative capabilities the cognition layer
// consumes: Completer (chat completion) and Embedder (text embedding),
// together with the typed failures each may report. Concrete providers live
// in subpackages (model/openai, model/anthropic); deterministic mocks for
// tests and examples live here.
//
// Ledgers depend only on the two interfaces, so providers can be swapped at
// wiring time without touching cognition logic.
package model
