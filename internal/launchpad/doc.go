// Package launchpad composes the store into the workflow coordination
// API: submitting workflows, claiming runnable fireworks, recording
// completions, and keeping downstream states consistent.
//
// The LaunchPad holds no entity state across calls - every operation
// re-reads authoritative rows before mutating, so concurrent workers
// against one store never act on stale in-memory copies. Linearizable
// sections (id allocation, claims) live in the store's transactions;
// this package supplies the policy on top: readiness propagation,
// selection, lifecycle rules, and lost-run reclamation.
package launchpad
