// Package settlementengine closes out claims whose voting window has ended.
//
// Settlement is two ordered, separately idempotent steps. Tally freezes the
// verdict from the recorded vote counts (majority true wins, ties and empty
// claims resolve to false). Distribution splits the submission fee between
// the correct voters and the platform account, credits earnings, adjusts
// reputation, and moves the claim to its terminal state. A sweep worker
// settles expired claims on a schedule so settlement never depends on an
// operator call, and an outbox relay publishes settlement events to the bus.
package settlementengine
