// Package diag aggregates the engine's tail-call decisions for generated
// callers into counters and a ranked rejection breakdown.
package diag
