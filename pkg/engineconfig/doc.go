// Package engineconfig centralizes the engine-wide limits that bound an
// otherwise unbounded pull evaluator (§5's "no guarantee of bounded
// latency per sample" note): how large a graph may grow and how wide a
// single render window may be. It also carries a nesting depth and a JIT
// cache size, which are validated but not enforced anywhere.
//
// Structure mirrors the teacher's pkg/config: a flat Config struct,
// Default/Development/Production/Testing constructors, Validate and
// Clone.
package engineconfig
