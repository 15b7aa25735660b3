// Package session implements the signed session cookie that carries the Spotify credential between requests.
//
// # Artifact
//
// The session artifact is an HS256 JWT. The signing key is derived from the configured secret with HKDF-SHA256, so
// the raw secret is never used as a key directly. Besides the registered claims (sub, iat, exp, jti) the artifact holds
// access_token, refresh_token and expires_at.
//
// # Store and Extractor
//
// [Store] issues and clears the cookie. [Extractor] verifies it and yields the credential. Both fail closed:
// a missing cookie, a bad signature or an expired artifact all read as "no session".
//
// # Sources
//
// [Source] abstracts "something with cookies and headers". [FromRequest] adapts an [http.Request], [FromHeader] a bare
// header set (used by the CLI), and [FromContext] the ambient source installed by the [Ambient] middleware.
//
// When no cookie is present the extractor falls back to an "Authorization: Bearer <artifact>" header.
package session
