// Package registry maps alarms onto the hierarchical store.
//
// Layout:
//
//	/alarms/<id>/<field>          scalar fields of one alarm
//	/alarms/<id>/alert/<field>    optional alert override
//	/positions/<id>               display position, outside the alarm subtree
//	/default-alert/<field>        the shared default alert
//
// The Registry keeps the ordered in-memory list and is the only writer of these
// keys. It is not safe for concurrent use; the scheduler serializes access.
package registry
