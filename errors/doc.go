// Package errors provides structured error handling for analyticskit.
//
// Configuration errors (INVALID_OPTIONS, INITIALIZE_FAILED, INVALID_CONFIG,
// MISSING_FIELD) are returned synchronously from constructors and mean the
// caller must not use the value. Vendor-side failures are logged, never
// escalated.
package errors
