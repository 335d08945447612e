// Package governanceengine implements the Governance Engine inside the
// assembly-governance context.
//
// The module owns the meeting lifecycle state machine, attendance and proxy
// delegation tracking, weighted ballot casting, and official tally
// computation with quorum/majority policy evaluation. It keeps business rules
// in application/domain layers and isolates infrastructure concerns behind
// ports and adapters.
package governanceengine
