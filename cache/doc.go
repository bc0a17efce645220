// Package cache provides the response cache used in front of every
// outbound Battle.net call.
//
// Entries are raw response bodies keyed by the fully resolved request URL
// and expire after a per-entry TTL. Several backends implement Store:
//
//   - Memory: in-process map, used by tests and short-lived processes
//   - Redis: a shared Redis server
//   - Bolt: a local bbolt file
//   - DaemonClient: a cache daemon (Server) reached over a unix or TCP socket
//
// Disabled is substituted when caching is switched off; it never touches a
// backend.
package cache
