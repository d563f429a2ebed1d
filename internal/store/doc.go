// Package store provides SQLite-backed durable storage for workflows,
// fireworks and launches.
//
// The store holds four logical tables plus the counter table:
//   - meta: one monotonic id counter per entity class
//   - fireworks: firework id → (state, opaque blob)
//   - workflows: workflow id → opaque blob
//   - mapping: firework id → owning workflow id (membership index)
//   - launches: launch id → (firework id, state, opaque blob)
//
// # Critical Patterns
//
// CP-1: Composite Atomicity
//   - Every mutation spanning more than one table runs in a single
//     transaction (InsertWorkflow, ApplyRefresh, ClaimFirework).
//   - A reader never observes a mapping row without its workflow
//     payload, or a workflow referencing an absent firework.
//
// CP-2: Serialized Allocation
//   - NextID performs read-then-advance of a counter inside one
//     transaction on a single-writer connection; concurrent callers
//     never receive overlapping ranges.
//
// CP-3: Claim Linearizability
//   - ClaimFirework re-reads the firework state inside its transaction
//     and fails with ErrClaimLost on any mismatch; two workers can
//     never claim the same firework.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
