package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes for the Show Logic hierarchy.
//
//	showlogic/trigger/{key}          core → output/audio services
//	showlogic/activate/...           remotes → core
//	showlogic/event/...              presentation → core
//	showlogic/state/...              presentation → core (retained)
//	showlogic/core/...               core → anyone
//	showlogic/system/status          LWT
const (
	TopicPrefix       = "showlogic"
	TopicPrefixCore   = "showlogic/core"
	TopicPrefixSystem = "showlogic/system"
)

// Topics provides builders for Show Logic MQTT topics.
//
//	topic := mqtt.Topics{}.Trigger("next_slide")
//	// "showlogic/trigger/next_slide"
type Topics struct{}

// ─── Outbound ───────────────────────────────────────────────────────

// Trigger is where a forwarded trigger command is published.
func (Topics) Trigger(key string) string {
	return fmt.Sprintf("%s/trigger/%s", TopicPrefix, key)
}

// CoreNotify carries the pending notification list.
func (Topics) CoreNotify() string {
	return TopicPrefixCore + "/notify"
}

// SystemStatus carries online/offline status, including the LWT.
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// ─── Inbound ────────────────────────────────────────────────────────

// ActivateID runs the stored action with this id.
func (Topics) ActivateID(id string) string {
	return fmt.Sprintf("%s/activate/id/%s", TopicPrefix, id)
}

// ActivateName runs the best action match for the name in the payload.
func (Topics) ActivateName() string {
	return TopicPrefix + "/activate/name"
}

// ActivateCustom runs every action bound to a custom activation tag.
func (Topics) ActivateCustom(tag string) string {
	return fmt.Sprintf("%s/activate/custom/%s", TopicPrefix, tag)
}

// EventMIDI is published by the MIDI input service for each matched note.
func (Topics) EventMIDI() string {
	return TopicPrefix + "/event/midi"
}

// EventSlide is published when a slide with actions is shown.
func (Topics) EventSlide() string {
	return TopicPrefix + "/event/slide"
}

// EventCategory is published when a category action is started.
func (Topics) EventCategory() string {
	return TopicPrefix + "/event/category"
}

// StateOutput holds the active output's slide reference (retained).
func (Topics) StateOutput() string {
	return TopicPrefix + "/state/output"
}

// StateLayout holds the slides of one layout (retained).
func (Topics) StateLayout(layoutID string) string {
	return fmt.Sprintf("%s/state/layout/%s", TopicPrefix, layoutID)
}

// StateCatalog holds an id → name catalog for one collection (retained).
func (Topics) StateCatalog(kind string) string {
	return fmt.Sprintf("%s/state/catalog/%s", TopicPrefix, kind)
}

// ─── Wildcards ──────────────────────────────────────────────────────

// AllActivateID matches showlogic/activate/id/+.
func (Topics) AllActivateID() string {
	return TopicPrefix + "/activate/id/+"
}

// AllActivateCustom matches showlogic/activate/custom/+.
func (Topics) AllActivateCustom() string {
	return TopicPrefix + "/activate/custom/+"
}

// AllStateLayouts matches showlogic/state/layout/+.
func (Topics) AllStateLayouts() string {
	return TopicPrefix + "/state/layout/+"
}

// AllStateCatalogs matches showlogic/state/catalog/+.
func (Topics) AllStateCatalogs() string {
	return TopicPrefix + "/state/catalog/+"
}

// AllTriggers matches every forwarded trigger.
func (Topics) AllTriggers() string {
	return TopicPrefix + "/trigger/+"
}

// AllTopics matches all Show Logic traffic.
func (Topics) AllTopics() string {
	return TopicPrefix + "/#"
}

// LastLevel returns the final level of a topic, which for the
// single-wildcard subscriptions above is the id, tag or kind.
func LastLevel(topic string) string {
	if i := strings.LastIndexByte(topic, '/'); i >= 0 {
		return topic[i+1:]
	}
	return topic
}
