// Package store provides SQLite-backed durable storage for OLP documents.
//
// The store keeps named collections, each serialized as a whole JSON array
// on every write, plus single-valued slots (the signed-in user):
//   - users: User records
//   - courses: Course records with their lessons
//   - progress: one Progress record per (user, course)
//   - credentials: password hashes keyed by user id
//
// There is no indexing beyond a linear scan of a decoded collection. Writes
// are visible to the next read immediately; nothing is cached.
//
// # Atomicity
//
// Update runs a function inside one SQLite transaction. Operations that touch
// several collections (enrollment, course deletion, registration) go through
// Update so that either every write lands or none does.
//
// # Malformed data
//
// A collection whose stored body cannot be decoded reads as empty and the
// problem is logged at Warn level. Callers never see a decode error from Get.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON
package store
