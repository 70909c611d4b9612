// Package robotevents talks to the rate-limited, paginated, bearer-token
// RobotEvents API.
//
// The package is built around three layers:
//
//  1. KeyPool: credential rotation, permanent blacklisting on 401, per-key
//     cooldown on 429, and a global pacing delay after every success. The
//     external API's shared rate limit, not local compute, is the system's
//     bottleneck, so all request scheduling funnels through here.
//
//  2. Client: one authorized GET per call. Auth and rate-limit responses are
//     delegated back to the pool and retried with another key inside a
//     bounded loop; everything else is terminal for the call.
//
//  3. CollectAll plus the per-resource scraper methods, which flatten
//     paginated responses into []map[string]any. Payloads stay
//     semi-structured on purpose: the sync layer derives identities from
//     them but enforces no schema.
package robotevents
