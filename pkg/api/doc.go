// Package api defines the wire types shared between the bridge and the host.
//
// The central type is [Notification]: the structured description of an
// accepted HTTP request that the bridge hands to the host. The host never
// sees the raw connection; it decides based on the notification and answers
// through the decision API in pkg/transport, correlating by the notification
// ID.
//
// The package also provides the [SignalKind] constants that classify
// notifications by route, the [APIError] taxonomy used for every error body
// the bridge emits on its own authority, and correlation-ID generation.
// It performs no I/O.
package api
