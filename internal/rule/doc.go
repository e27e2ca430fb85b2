// Package rule holds the correlation rules ("contexts") and the index that
// decides which of them are candidates for a given event.
//
// A Map owns an append-only list of rules. Each rule is identified by its
// position, which never changes: rules are never removed or reordered once
// inserted. A pattern index maps every subscription pattern to the
// positions of the rules subscribed to it; rules without patterns are kept
// in a separate wildcard set and match every event.
//
// Lookup unions the index lists hit by an event's keys with the wildcard
// set, then sorts and deduplicates. The result visits each candidate rule
// at most once per event, in insertion order.
package rule
