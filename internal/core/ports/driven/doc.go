// Package driven defines the interfaces the core requires from
// infrastructure: storage, search indexing, configuration and event
// publication. Adapters implement these ports.
package driven
