// Package document is the in-memory editing engine for word-processing
// template packages. It loads the XML parts of a package into mutable trees
// and populates them: placeholder substitution across split text runs, table
// row replication with per-instance renaming, section truncation and
// duplication, and relationship- and image-identifier resolution.
//
// The engine is synchronous and single-threaded; a Document must not be
// shared between goroutines. Operation ordering matters: section operations
// restructure the body, and the placeholder index has no automatic
// invalidation beyond the row-cloning case, so callers run structural
// operations first.
package document
