// Package driving defines the inbound ports of the sync engine, consumed by
// presentation surfaces (CLI, UI bridges).
package driving
