// Package kv defines the string-keyed persistence contract shared by the
// windows of one application, plus the cross-window change notification
// channel that rides on top of it.
//
// Responsibilities:
//   - Store reads and writes raw string values synchronously.
//   - Notifier delivers a Change to every subscriber of every *other* window
//     view when a write lands. The writing view never sees its own change.
//   - Fanout implements the delivery queue used by every backend so that
//     changes are delivered in write order (FIFO per key) and a subscriber
//     writing from inside a callback does not deadlock the store.
//
// Backends:
//
//	Hub (this package)      in-memory, one process, used by tests and examples
//	badgerkv.DB             BadgerDB, windows hosted in one process
//	filekv.Store            one file per key, fsnotify for other processes
package kv
