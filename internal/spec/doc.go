// Package spec implements the dynamic-but-typed value tree used for
// firework specifications.
//
// A specification is the working data of a firework: an arbitrary,
// task-defined key/value document that tasks consume and mutate. Rather
// than passing raw map[string]any around, values are constrained to a
// sealed set of variants (Null, String, Int, Float, Bool, List, Dict) so
// internal code can pattern-match safely while serialization stays
// generic.
//
// Storage uses canonical encoding (sorted keys, NFC-normalized strings,
// no HTML escaping) so a spec blob written twice from equal values is
// byte-identical. See MarshalCanonical.
package spec
