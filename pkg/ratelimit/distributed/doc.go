// Package distributed provides a Redis-backed token bucket shared by every
// process that uses the same key.
package distributed
