// Package votingengine implements the vote recorder inside the fact-check
// context.
//
// The module owns single-vote intake for open claims: ordered precondition
// checks (claim open, voting window, per-claim cap, one vote per voter) and
// the atomic vote-insert + tally-increment against the ledger store. It never
// triggers settlement; closing a claim is the settlement engine's job.
package votingengine
