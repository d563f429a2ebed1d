// Package model defines the persistent entities of the launchpad:
// Firework (a task node), Workflow (a DAG of fireworks), Launch (one
// execution attempt), and Action (the result a task hands back).
//
// Each entity splits into a record for storage: a small set of indexed
// scalar columns the store can query cheaply (id, state) and an opaque
// canonical-JSON blob carrying everything else. ToRecord and FromRecord
// are exact inverses; round-tripping an entity reproduces it.
package model
