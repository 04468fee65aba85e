// Package store implements the hierarchical key/value store the alarm
// registry persists into.
//
// Keys are slash-separated paths such as "/alarms/<id>/name". Values are
// strings. A subtree is a path together with every key below it. Three
// backends are provided: FileStore (a YAML file), RedisStore (one redis hash)
// and MemoryStore (tests and throwaway runs).
package store
