// Package engine embeds the redline document library in a sandboxed Lua
// interpreter.
//
// The library operates on CriticMarkup text: deletions {--...--},
// insertions {++...++}, highlights {==...==}, and metadata {>>...<<}.
// Tracked changes stay pending in the markup until accepted; the engine
// exposes extraction of either view, edit application, and wholesale
// acceptance.
//
// Threading model: a gopher-lua state is single-threaded, so the engine
// funnels every call through one executor goroutine. Callers see a
// plain, concurrency-safe Go API and never touch the interpreter
// directly.
//
// Sandboxing: the interpreter opens only the base, table, string, and
// math libraries. The library source is embedded at build time and is
// the only code the interpreter ever evaluates.
package engine
