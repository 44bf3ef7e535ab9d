// Package symbol defines the vocabulary of the game: symbols, sets of
// discovered symbols, and the registry of display names.
//
// A Symbol is a tagged variant:
//
//	Static("🌀")          a glyph authored in the catalog
//	Fuse(a, b)            a dynamically synthesized fusion of two symbols
//	Fuse(a, a)            the evolution form of a single symbol
//
// Every symbol has exactly one canonical string. Static symbols are NFC
// normalized; fused symbols render as ⟨a|b⟩ and evolutions as ⟨a⟩². The runes
// ⟨ ⟩ and | are reserved and may never appear inside a static glyph, which
// keeps Parse unambiguous no matter how deeply fusions nest.
//
// Symbols are comparable with ==, so they can be used as map keys directly.
package symbol
