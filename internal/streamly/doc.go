// Package streamly provides typed clients for the Streamly backend REST API.
//
// All requests flow through [gateway.Gateway], which applies credential
// attachment and the 401 renew-and-retry policy uniformly. The clients here
// only shape requests and decode responses; payload semantics are owned by
// the backend.
package streamly
