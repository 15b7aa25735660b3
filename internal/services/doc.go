// Package services implements the Spotify side of listenlog.
//
// # Upstream client
//
// [SpotifyClient] implements [Upstream] with exactly three calls:
//   - FetchProfile: GET /me, returned as raw JSON so the proxy can pass it through verbatim
//   - FetchRecentlyPlayed: GET /me/player/recently-played?limit=50
//   - FetchLikedStatus: GET /me/tracks/contains?ids=..., positional booleans
//
// Requests carry the caller's access token and Cache-Control: no-cache. There are no retries and no local timeout
// beyond whatever the injected [http.Client] sets.
//
// # Errors
//
// A non-2xx response becomes [*UpstreamError] with the HTTP status and the decoded body (nil when the body is not
// JSON). Transport failures wrap [shared.ErrAPIRequest]. Callers match with errors.As.
//
// # Sign-in
//
// [SpotifyAuth] wraps [oauth2.Config] for the authorization code flow. Tokens are never refreshed: an expired
// credential sends the user back through sign-in.
package services
