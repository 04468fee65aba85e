// Package metrics holds the prometheus collectors of the alarm manager.
//
// Init registers them once with the default registry; the helpers are no-ops
// until then, so packages can record unconditionally.
package metrics
