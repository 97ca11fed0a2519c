package action

import (
	"context"
	"errors"
	"sort"
	"strings"
)

// Custom activation tag separators: "midi___note-60" splits into the tag
// "midi" and the specific value "note-60"; an action's SpecificActivation
// "midi__note-60" declares the value it responds to.
const (
	activationSep = "___"
	specificSep   = "__"
)

// RunByID starts the action with the given id. Unknown ids are ignored.
// Reports whether a run started.
func (e *Engine) RunByID(ctx context.Context, id string, opts RunOptions) bool {
	return e.startByID(ctx, id, opts, false, 0)
}

// RunCategory starts the action attached to a slide category. Its
// clear_slide triggers skip the transition delay.
func (e *Engine) RunCategory(ctx context.Context, id string) bool {
	return e.startByID(ctx, id, DefaultRunOptions(), true, 0)
}

func (e *Engine) startByID(ctx context.Context, id string, opts RunOptions, isCategory bool, limit int) bool {
	a, err := e.store.GetAction(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrActionNotFound) {
			e.logger.Error("loading action", "action_id", id, "error", err)
		}
		return false
	}
	return e.start(a, opts, isCategory, limit)
}

// RunSlideActions starts every action embedded in the slide at
// slideIndex. Returns the number of runs started.
func (e *Engine) RunSlideActions(sa *SlideActions, slideIndex int) int {
	if sa == nil {
		return 0
	}
	opts := DefaultRunOptions()
	opts.SlideIndex = slideIndex

	started := 0
	for _, a := range sa.Actions() {
		a := a
		if e.Start(&a, opts, false) {
			started++
		}
	}
	return started
}

// RunByName starts the action whose name best matches name.
// Placeholders such as "{time}" are expanded before matching.
// Returns the action that was started, or nil.
func (e *Engine) RunByName(ctx context.Context, name string) *Action {
	if strings.Contains(name, "{") && e.expander != nil {
		name = e.expander.Expand(name)
	}

	all, err := e.store.ListActions(ctx)
	if err != nil {
		e.logger.Error("listing actions", "error", err)
		return nil
	}

	ranked := e.matcher.Rank(name, all)
	if len(ranked) == 0 {
		e.logger.Debug("no action matches name", "name", name)
		return nil
	}

	best := ranked[0]
	if !e.Start(&best, DefaultRunOptions(), false) {
		return nil
	}
	return &best
}

// RunByCustomActivation starts every enabled action tagged with the custom
// activation in tag ("startup", or "midi___note-60" to also match a
// specific value). Returns the number of runs started.
//
// Starting any startup action shows a single notification.
func (e *Engine) RunByCustomActivation(ctx context.Context, tag string) int {
	custom, specific, _ := strings.Cut(tag, activationSep)

	all, err := e.store.ListActions(ctx)
	if err != nil {
		e.logger.Error("listing actions", "error", err)
		return 0
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Name != all[j].Name {
			return all[i].Name < all[j].Name
		}
		return all[i].ID < all[j].ID
	})

	started := 0
	for i := range all {
		a := &all[i]
		if !matchesActivation(a, custom, specific) {
			continue
		}
		if e.Start(a, DefaultRunOptions(), false) {
			started++
		}
	}

	if tag == StartupActivation && started > 0 && e.notifier != nil {
		e.notifier.Notify(StartingActionNotice)
	}
	if started > 0 {
		e.logger.Info("custom activation", "tag", tag, "started", started)
	}
	return started
}

// CheckStartupActions runs the actions tagged for startup.
func (e *Engine) CheckStartupActions(ctx context.Context) int {
	return e.RunByCustomActivation(ctx, StartupActivation)
}

// Toggle sets an action's enabled flag to value, or flips it when value is
// nil. Unknown or empty ids change nothing.
func (e *Engine) Toggle(ctx context.Context, id string, value *bool) (*Action, error) {
	if id == "" {
		return nil, ErrActionNotFound
	}
	return e.store.ToggleAction(ctx, id, value)
}

// RunNested starts the action with the given id on behalf of a run_action
// trigger. It refuses when the running set already holds MaxNestedRuns
// entries for that id; the count and the add are one atomic step.
//
// The cap bounds concurrent runs only. Entries leave the set RunningLinger
// after a run finishes, so a self-referencing chain of short runs is capped
// while the linger keeps them counted; with a zero linger such a chain runs
// one generation at a time until Close.
func (e *Engine) RunNested(ctx context.Context, id string) bool {
	return e.startByID(ctx, id, DefaultRunOptions(), false, e.cfg.MaxNestedRuns)
}

func matchesActivation(a *Action, custom, specific string) bool {
	if a.CustomActivation != custom || !a.IsEnabled() {
		return false
	}
	if specific == "" || !strings.Contains(a.SpecificActivation, custom) {
		return true
	}

	parts := strings.Split(a.SpecificActivation, specificSep)
	declared := ""
	if len(parts) > 1 {
		declared = parts[1]
	}
	return declared == specific
}
