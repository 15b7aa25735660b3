// Package models defines the data shapes shared by the session layer, the Spotify client and the HTTP handlers.
//
// The package contains three categories of types:
//
// 1. Credentials: [SessionCredential] is the provider token embedded in the signed session cookie.
//
// 2. Spotify payloads: [Profile], [Track] and [RecentlyPlayed] mirror the upstream JSON. [RecentlyPlayedItem]
// carries the locally computed Liked flag, which the recently-played endpoint never supplies.
//
// 3. Response contracts: [ErrorResponse] with its [ErrorCode] taxonomy, and [ActivitySummary] for the charts.
//
// Nothing here is persisted; every value lives for a single request.
package models
