// Package dispatch holds the trigger dispatch table.
//
// The table maps a canonical trigger key (for example "next_slide" or
// "start_audio_stream") to the handler that performs the trigger's effect.
// The action engine looks handlers up here and invokes them without waiting
// for their effect to finish.
//
// Two kinds of handlers are registered by the service:
//
//   - MQTT handlers, which publish the payload to showlogic/trigger/{key}
//     through a single ordered publishing queue (see Publisher)
//   - In-process handlers, such as run_action and toggle_action, which call
//     back into the engine
package dispatch
