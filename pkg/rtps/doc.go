// Package rtps holds the RTPS value types shared by the message composer,
// the message group and the history cache: GUIDs, sequence and fragment
// numbers with their bitmap sets, wire timestamps and cache changes.
package rtps
