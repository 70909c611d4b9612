// Package livestore is the low-latency side of persistence, used for
// sub-minute updates while an event is being played.
//
// Unlike the durable store, publishing here is best-effort: failures are
// logged and swallowed, because the next live cycle is seconds away and a
// missed update corrects itself.
package livestore
