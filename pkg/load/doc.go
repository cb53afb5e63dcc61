// Package load resolves effect identities to descriptors.
//
// # Overview
//
// LoadByID implements §4.5: a primitive identity resolves to the fixed
// descriptor from package primitive; a file:// identity ending in .f32
// resolves to a Buffer-bodied descriptor; anything else is searched for
// across the directories registered with a ResourceManager, schema
// validated, decoded, and — if its body is a nested graph — has every
// referenced child effect recursively loaded before being returned with
// its content hash filled in.
//
// # Resource managers
//
// FSResourceManager is the only ResourceManager implementation this
// package ships: a flat, non-recursive scan of explicitly registered
// directories, filtered by content hash when the caller's identity
// specifies one. It deliberately does not auto-discover search paths.
package load
