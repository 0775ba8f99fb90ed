// package session owns the client-side authentication lifecycle: restoring a
// session at startup, logging in and out, silently renewing credentials ahead
// of expiry, and propagating logout across concurrently running processes.
//
// A [Manager] moves through three states. It starts Unknown, and the first
// restore attempt resolves it to either Authenticated or Anonymous. From then
// on every transition is explicit: Login, Logout, a failed renewal, or a
// logout signal from another process.
package session
