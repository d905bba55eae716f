// Package contrib provides additional functionality and utilities
// for the client library.
//
// Everything in this package is intended to extend the core client
// with features that are not part of the core library, such as
// diagnostic tooling and experimental features.
//
// Note that this package is outside of the backward compatibility
// guarantees provided by the core client library. Changes to this
// package may introduce breaking changes without following semantic
// versioning.
//
// The contrib directory includes
// [github.com/alex-arzola-imp/glide-for-redis/contrib/glideping], a
// latency and availability probe that exercises the client's
// reconnection behavior against a live server.
package contrib
