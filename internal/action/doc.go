// Package action implements the action engine for Show Logic Core.
//
// An action is a named, ordered list of triggers. Each trigger reference
// names a dispatch key (optionally suffixed, "start_audio_stream:2") and
// indexes a parameter payload in the action's ActionValues.
//
// # Running
//
// The Engine runs an action's triggers strictly in order. The "wait"
// trigger suspends the sequence; every other trigger is resolved to a
// handler in the dispatch table and invoked without waiting for its
// effect. A few triggers have their payload rewritten first:
//
//   - start_slide_timers receives the overlay ids of the current slide
//   - send_midi has its "midi" field unwrapped
//   - clear_slide is delayed briefly unless the run came from a category
//
// While an action runs its id is held in the RunningSet, and every
// dispatched trigger is written to the HistoryLog, where identical repeats
// collapse into one entry with a count.
//
// # Activation
//
// Actions are found by id (RunByID), by fuzzy name match (RunByName) or by
// custom activation tag such as "startup" (RunByCustomActivation).
//
// # Persistence
//
// The Registry caches actions loaded from a Repository (SQLite in
// production). Legacy records are upgraded once when the cache is loaded.
//
// # Thread Safety
//
// Engine, Registry, RunningSet and HistoryLog are safe for concurrent use.
// Separate runs, including runs of the same action, proceed independently.
package action
