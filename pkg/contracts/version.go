// Package contracts holds the types shared between the server and its clients.
package contracts

// APIVersion is the version of the HTTP and WebSocket contracts under
// pkg/contracts/api and pkg/contracts/events.
const APIVersion = "v1"
