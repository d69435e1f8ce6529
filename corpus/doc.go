// Package corpus keeps mismatching trials in a SQLite database so they can
// be listed and replayed later with their trial index and seed.
package corpus
