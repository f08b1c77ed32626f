// Package governance implements the proposal, vote and finalize state machine
// of the chain. It is generic over the account identity type and performs no
// I/O; the state package persists it.
package governance
