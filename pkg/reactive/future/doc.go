// Package future provides a single-assignment result cell used to bridge a
// stream into one awaited value.
//
// The first of TrySetResult, TrySetError and TrySetCanceled to run wins; the
// transition out of Pending is a compare-and-swap, so concurrent resolvers
// never overwrite each other.
package future
