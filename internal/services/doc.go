// Package services implements the external collaborators a download depends on.
//
// # Search
//
// [SpotifyService] resolves a free-text title to a track id through the public
// Web API search endpoint, using the caller's access token as a bearer credential.
// Requests are rate limited with [rate.Limiter] so a burst of title lookups does
// not trip the API's throttling.
//
// [ExtractTrackID] pulls an id out of a spotify:track: URI or an open.spotify.com link.
//
// # Streaming Backend
//
// The [Backend] and [Session] interfaces are the narrow contract the orchestrator
// consumes. [GatewayBackend] implements them against an HTTP gateway that owns the
// streaming protocol, session lifecycle and decryption, and serves each variant as
// a plain byte stream.
//
// Both clients attach credentials through [oauth2.StaticTokenSource], so the bearer
// header is set the same way for every call.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrAuthFailed] : The token was rejected
//   - [shared.ErrTrackNotFound] : Search returned no result
//   - [shared.ErrAPIRequest] : HTTP request failed or returned an unexpected status
//   - [shared.ErrBackend] : The gateway returned malformed data
package services
