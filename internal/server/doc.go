// Package server implements the siderequest HTTP surface.
//
// Owns:
//   - The request adapter (Side): 'd'/'s' parsing, validation, PNG response
//   - The money endpoints built on a Store
//   - Store implementations (memory, JSON file, SQLite, Redis)
//
// Does not own:
//   - Payload serialization (package payload)
//   - Pixel packing (package pixcodec)
//
// Invariants:
//   - Invalid 's' or 'd' is a 400 text response; no image is produced
//   - Business errors are image payloads with status 200
//   - Every response carries the no-cache headers
package server
