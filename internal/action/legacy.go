package action

// UpgradeLegacy rewrites older action shapes into the current one and
// reports whether anything changed. It is idempotent.
//
//   - The single-trigger MIDI shape {action, actionData} becomes
//     {triggers: [action], actionValues: {action: actionData}}.
//   - StartupEnabled becomes CustomActivation "startup" unless a custom
//     activation is already set.
func UpgradeLegacy(a Action) (Action, bool) {
	changed := false

	if a.LegacyTrigger != "" {
		if len(a.Triggers) == 0 {
			a.Triggers = []string{a.LegacyTrigger}
			values := deepCopyMap(a.ActionValues)
			if values == nil {
				values = make(map[string]any, 1)
			}
			if a.LegacyTriggerData != nil {
				values[a.LegacyTrigger] = deepCopyValue(a.LegacyTriggerData)
			}
			a.ActionValues = values
		}
		a.LegacyTrigger = ""
		a.LegacyTriggerData = nil
		changed = true
	}

	if a.StartupEnabled {
		if a.CustomActivation == "" {
			a.CustomActivation = StartupActivation
		}
		a.StartupEnabled = false
		changed = true
	}

	return a, changed
}
