// Package server provides HTTP routing, middleware and the handlers behind the listenlog API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Authenticated Proxy
//
// [ProxyHandler] serves the Spotify-backed resources. Every request runs the same pipeline: find the session, check
// that it carries an access token, check the token's expiry, then call the upstream and shape the response. Failures at
// each stage map to a fixed [models.ErrorCode], so clients can tell "sign in again" from "try again later".
//
// # Sign-in
//
// [AuthHandler] runs the OAuth2 authorization code flow against Spotify and turns the resulting token into a signed
// session cookie. It also serves the public session view and sign-out.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
