// Package wallet implements the multi-wallet session core: loading and
// validating credential material, the role/provider keyed identity
// registry, and the active-identity selection policy shared by every
// MCP operation handler.
package wallet
