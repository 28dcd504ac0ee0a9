// Package driving defines the service interfaces the CLI (and any
// future API surface) consumes, along with their request/response
// types.
package driving
