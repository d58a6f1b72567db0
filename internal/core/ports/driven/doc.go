// Package driven defines the outbound ports of the sync engine: the
// connector contracts each provider implements, and the storage ports the
// engine persists its state through.
package driven
