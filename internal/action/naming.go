package action

import "context"

// Collection names a catalog of named objects.
type Collection string

// Catalogs referenced by trigger payloads.
const (
	CollectionActions        Collection = "actions"
	CollectionShows          Collection = "shows"
	CollectionTriggers       Collection = "triggers"
	CollectionAudioStreams   Collection = "audio_streams"
	CollectionAudioPlaylists Collection = "audio_playlists"
	CollectionStageLayouts   Collection = "stage_layouts"
	CollectionStyles         Collection = "styles"
)

// namedObjects maps trigger keys whose payload "id" refers to an entry in
// a catalog.
var namedObjects = map[string]Collection{
	"run_action":             CollectionActions,
	"start_show":             CollectionShows,
	"start_trigger":          CollectionTriggers,
	"start_audio_stream":     CollectionAudioStreams,
	"start_playlist":         CollectionAudioPlaylists,
	"id_select_stage_layout": CollectionStageLayouts,
}

const (
	defaultTempo = 120
	defaultBeats = 4
)

// NameSource looks up display names of show objects.
type NameSource interface {
	Name(c Collection, id string) (string, bool)
	ShowBPM() (float64, bool)
}

// Namer produces human-readable labels for trigger payloads.
type Namer struct {
	source  NameSource
	actions Store
}

// NewNamer creates a Namer. Either argument may be nil.
func NewNamer(source NameSource, actions Store) *Namer {
	return &Namer{source: source, actions: actions}
}

// Describe returns a label for a trigger payload, or false when the trigger
// has no label or the referenced object is unknown.
func (n *Namer) Describe(ctx context.Context, trigger string, value map[string]any) (string, bool) {
	if value == nil {
		value = map[string]any{}
	}

	switch trigger {
	case "change_output_style":
		id, _ := value["outputStyle"].(string)
		return n.lookup(ctx, CollectionStyles, id)

	case "start_metronome":
		suffix := ""
		if beats, ok := toFloat(value["beats"]); ok && beats != 0 && beats != defaultBeats {
			suffix = " | " + formatNumber(beats)
		}
		tempo, ok := toFloat(value["tempo"])
		if truthy(value["metadataBPM"]) && n.source != nil {
			tempo, ok = n.source.ShowBPM()
		}
		if !ok || tempo == 0 {
			tempo = defaultTempo
		}
		return formatNumber(tempo) + suffix, true

	case "change_volume":
		volume, ok := toFloat(value["volume"])
		if !ok || volume == 0 {
			volume = 1
		}
		return formatNumber(volume * 100), true
	}

	c, ok := namedObjects[trigger]
	if !ok {
		return "", false
	}
	id, _ := value["id"].(string)
	return n.lookup(ctx, c, id)
}

func (n *Namer) lookup(ctx context.Context, c Collection, id string) (string, bool) {
	if id == "" {
		return "", false
	}

	if c == CollectionActions && n.actions != nil {
		a, err := n.actions.GetAction(ctx, id)
		if err != nil {
			return "", false
		}
		return a.Name, a.Name != ""
	}

	if n.source == nil {
		return "", false
	}
	return n.source.Name(c, id)
}

// triggerIcons holds the icon of each trigger that has its own.
var triggerIcons = map[string]string{
	"next_slide":             "next",
	"previous_slide":         "previous",
	"goto_slide":             "slide",
	"clear_slide":            "clear",
	"clear_all":              "clear",
	"clear_background":       "background",
	"clear_overlays":         "overlays",
	"clear_audio":            "audio",
	"start_show":             "showIcon",
	"start_slide_timers":     "timer",
	"change_output_style":    "styles",
	"start_audio_stream":     "audio_stream",
	"start_playlist":         "playlist",
	"start_metronome":        "metronome",
	"change_volume":          "volume",
	"send_midi":              "midi",
	"run_action":             "actions",
	"toggle_action":          "actions",
	"start_trigger":          "trigger",
	"id_select_stage_layout": "stage",
	"wait":                   "time",
}

// Icon returns the icon for an action: the generic "actions" icon for
// multi-trigger actions, otherwise its trigger's icon.
func Icon(a *Action) string {
	if a == nil || len(a.Triggers) != 1 {
		return "actions"
	}
	if icon, ok := triggerIcons[TriggerID(a.Triggers[0])]; ok {
		return icon
	}
	return "actions"
}
