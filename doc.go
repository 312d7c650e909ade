// Package triviad implements the session and access engine behind the
// trivia MCP tool server: an immutable question catalog, per-user active
// question and streak state, a periodic expiry sweeper, and a day-pass
// access gate settled by an out-of-band payment bridge.
//
// The MCP transport facade lives in the mcp subpackage; the triviad binary
// in cmd/triviad wires everything together.
package triviad
