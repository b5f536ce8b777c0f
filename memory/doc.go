// Package memory implements the agent's decaying semantic memory: an
// append-only ledger of embedded text snippets with decay-weighted cosine
// similarity search. Records whose embedding call failed are stored without
// a vector and score zero on the similarity term rather than erroring.
//
// Search scores combine three factors: cosine similarity to the query,
// a light importance weight (0.2 + 0.8*importance) and an exponential age
// decay halving every half-life days. The decay multiplies similarity
// without renormalization, so old-but-relevant records can rank low.
package memory
