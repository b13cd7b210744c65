// Package layout computes conflict-free horizontal placements for events on a
// single day axis.
//
// # Algorithm
//
// [LayOut] runs three stages:
//
//  1. Sort & Validate ([event.SortAndValidate]): malformed events are rejected
//     with a reason and the rest are stable-sorted by start.
//  2. Block Builder ([BuildBlocks]): one greedy pass groups transitively
//     overlapping events into blocks. An event joins the current block when it
//     starts strictly before the latest end of any column's last event. Inside
//     a block it goes to the leftmost column whose last event ends at or before
//     its start, or opens a new column.
//  3. Geometry Resolver ([Resolve]): every event in column i of a block with n
//     columns gets width 100/n and offset i*100/n, in percent.
//
// Touching events (a.End == b.Start) never conflict: they may share a column
// and they end one block and start the next.
//
// # Guarantees
//
// Events that overlap in time never overlap horizontally, all events of a
// block share one width, and every input event is either placed once or
// reported in [Result.Rejected]. [Verify] checks these properties on a
// [Result].
//
// # Concurrency
//
// All functions are pure and safe for concurrent use. Inputs are never
// modified.
package layout
