// Package frontier implements the pending-URL queue driving a crawl
// session's fetch phase.
//
// A Frontier pairs a FIFO queue with two sets: the URLs ever enqueued and
// the URLs successfully fetched. Traversal is breadth-first by discovery
// order and stops when the queue drains or the visited count reaches the
// page budget.
//
// Design decision: enqueue is at-most-once for the whole session, tracked
// separately from the visited set, because:
//  1. A page whose fetch failed must not be retried when a later page
//     links to it again
//  2. Budget accounting counts successful fetches only, so the two sets
//     genuinely differ
//  3. Membership checks stay O(1) without scanning the queue
package frontier
