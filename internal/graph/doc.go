// Package graph routes ships through a universe of sectors linked by gate pairs.
//
// FindRoute answers "what is the cheapest sequence of gate jumps from here to that
// sector" under a position-dependent cost model. FindInRange answers "which sectors
// within N jumps satisfy this predicate", ordered by jump distance.
//
// Both searches are pure functions of a read-only View. They hold no state between
// calls, so any number of them may run concurrently against one snapshot as long as
// nobody mutates it meanwhile.
package graph
