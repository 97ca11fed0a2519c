// Package showstate mirrors the presentation state the action engine
// needs: which slide the active output shows, the slides of each layout
// with their overlays and slide actions, the display names of show
// objects, and the active show's tempo.
//
// The presentation service publishes this state as retained MQTT
// messages; the remote listener feeds them into a Store with the Apply
// methods. The Store answers the engine's SlideLookup and the namer's
// NameSource.
package showstate
