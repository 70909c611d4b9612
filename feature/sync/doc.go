// Package sync is the orchestrator: it decides which events to (re)visit,
// walks the event fan-out graph (event, divisions, rankings, finalist
// rankings, matches, teams, skills), and routes results to the durable
// writer or the live publisher depending on mode.
//
// Three modes exist and a run executes exactly one of them:
//
//   - full: every event of the season, skipping only events already proven
//     complete.
//   - new: only events with no durable record yet.
//   - live: events running today; rankings and matches only, pushed to the
//     low-latency store in short cycles.
//
// Processing is strictly sequential. Failures inside a single event are
// logged and the run continues with the next event; only credential or
// rate-limit exhaustion aborts a run. A progress checkpoint is persisted
// after every event so an operator can see where a run stopped.
package sync
