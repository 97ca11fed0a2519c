package action

import (
	"fmt"
	"strings"
)

// Validation constants.
const (
	maxNameLength   = 100
	maxTriggers     = 100
	maxTriggerRef   = 100
	maxActivationSz = 100
)

// ValidateAction checks an action before it is stored.
// Actions without triggers are valid; running them does nothing.
func ValidateAction(a *Action) error {
	if a == nil {
		return ErrInvalidAction
	}
	if a.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidAction)
	}
	if err := ValidateName(a.Name); err != nil {
		return err
	}
	if len(a.Triggers) > maxTriggers {
		return fmt.Errorf("%w: more than %d triggers", ErrInvalidAction, maxTriggers)
	}
	for i, ref := range a.Triggers {
		if err := ValidateTriggerRef(ref); err != nil {
			return fmt.Errorf("trigger %d: %w", i, err)
		}
	}
	if len(a.CustomActivation) > maxActivationSz || len(a.SpecificActivation) > maxActivationSz {
		return fmt.Errorf("%w: activation tag exceeds %d characters", ErrInvalidAction, maxActivationSz)
	}
	return nil
}

// ValidateName checks an action name. Names are optional.
func ValidateName(name string) error {
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidName, maxNameLength)
	}
	return nil
}

// ValidateTriggerRef checks a trigger reference such as "start_audio_stream:2".
func ValidateTriggerRef(ref string) error {
	if strings.TrimSpace(ref) == "" {
		return fmt.Errorf("%w: empty reference", ErrInvalidTrigger)
	}
	if len(ref) > maxTriggerRef {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidTrigger, maxTriggerRef)
	}
	if TriggerID(ref) == "" {
		return fmt.Errorf("%w: %q has no trigger key", ErrInvalidTrigger, ref)
	}
	return nil
}
