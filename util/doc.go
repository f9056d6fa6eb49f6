// Package util provides small generic helpers shared across analyticskit:
// map copying and layered merging, sorted keys, and log-safe secret masking.
package util
