package action

import "strings"

// Trigger keys handled specially by the engine.
const (
	// TriggerWait suspends the sequence for ActionValues[ref]["number"] seconds.
	TriggerWait = "wait"

	// TriggerStartSlideTimers receives the current slide's overlay ids.
	TriggerStartSlideTimers = "start_slide_timers"

	// TriggerSendMIDI has its "midi" field unwrapped before dispatch.
	TriggerSendMIDI = "send_midi"

	// TriggerClearSlide is delayed briefly unless run from a category.
	TriggerClearSlide = "clear_slide"

	// TriggerRunAction runs another action by id.
	TriggerRunAction = "run_action"

	// TriggerToggleAction toggles another action's enabled flag.
	TriggerToggleAction = "toggle_action"
)

// triggerSuffixSep separates a trigger key from its disambiguating suffix.
const triggerSuffixSep = ":"

// TriggerID returns the dispatch key for a trigger reference.
//
//	TriggerID("start_audio_stream:2") // "start_audio_stream"
//	TriggerID("next_slide")           // "next_slide"
//	TriggerID("")                     // ""
func TriggerID(ref string) string {
	key, _, _ := strings.Cut(ref, triggerSuffixSep)
	return key
}
