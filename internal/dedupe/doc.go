// Package dedupe provides a TTL cache over gateway event ids so redelivered
// events are processed at most once.
package dedupe
