package action

import (
	"context"

	"github.com/nerrad567/show-logic-core/internal/dispatch"
)

// RegisterHandlers binds the triggers the engine performs itself:
// run_action starts another action and toggle_action flips one.
func (e *Engine) RegisterHandlers(t *dispatch.Table) {
	t.Register(TriggerRunAction, func(payload any) {
		id := stringField(payload, "id")
		if id == "" {
			return
		}
		e.RunNested(context.Background(), id)
	})

	t.Register(TriggerToggleAction, func(payload any) {
		id := stringField(payload, "id")
		if id == "" {
			return
		}
		var value *bool
		if m, ok := payload.(map[string]any); ok {
			if b, isBool := m["value"].(bool); isBool {
				value = &b
			}
		}
		go func() {
			if _, err := e.Toggle(context.Background(), id, value); err != nil {
				e.logger.Debug("toggle_action ignored", "action_id", id, "error", err)
			}
		}()
	})
}
