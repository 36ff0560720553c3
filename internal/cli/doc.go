// Package cli implements the redmark command tree.
//
// Every command is a thin client: it reads documents from disk, drives
// the in-process request stack (client, coordinator, engine host), and
// writes results back. The two purely textual commands, diff and markup,
// skip the stack entirely and call their libraries directly, since
// neither needs the engine.
//
// Global flags layer on top of the loaded configuration: defaults, then
// config file, then environment, then flags, highest wins. The resolved
// configuration also selects the process-wide slog handler.
package cli
