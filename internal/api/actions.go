package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/show-logic-core/internal/action"
	"github.com/nerrad567/show-logic-core/internal/audit"
)

// maxQueryParamLen limits path and query parameter length.
const maxQueryParamLen = 100

// actionView is an action as listed to control surfaces.
type actionView struct {
	*action.Action
	Icon    string `json:"icon"`
	Running bool   `json:"running"`
}

func (s *Server) view(a *action.Action) actionView {
	return actionView{
		Action:  a,
		Icon:    action.Icon(a),
		Running: s.engine.Running().Contains(a.ID),
	}
}

// actionID reads and checks the {id} path parameter.
func actionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if id == "" || len(id) > maxQueryParamLen {
		writeBadRequest(w, "invalid action ID")
		return "", false
	}
	return id, true
}

// decodeOptional decodes a JSON body into v when one is present.
func decodeOptional(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(v)
}

// handleListActions returns all actions.
//
// Query parameters:
//   - activation: only actions with this custom activation tag
func (s *Server) handleListActions(w http.ResponseWriter, r *http.Request) {
	actions, err := s.registry.ListActions(r.Context())
	if err != nil {
		writeInternalError(w, "failed to list actions")
		return
	}

	activation := r.URL.Query().Get("activation")
	if len(activation) > maxQueryParamLen {
		writeBadRequest(w, "activation exceeds maximum length")
		return
	}

	views := make([]actionView, 0, len(actions))
	for i := range actions {
		if activation != "" && actions[i].CustomActivation != activation {
			continue
		}
		views = append(views, s.view(&actions[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"actions": views, "count": len(views)})
}

// handleGetAction returns a single action by ID.
func (s *Server) handleGetAction(w http.ResponseWriter, r *http.Request) {
	id, ok := actionID(w, r)
	if !ok {
		return
	}

	a, err := s.registry.GetAction(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "failed to get action")
		return
	}
	writeJSON(w, http.StatusOK, s.view(a))
}

// handleCreateAction creates a new action. Legacy single-trigger bodies are
// upgraded on the way in.
func (s *Server) handleCreateAction(w http.ResponseWriter, r *http.Request) {
	var a action.Action
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.registry.CreateAction(r.Context(), &a); err != nil {
		writeDomainError(w, err, "failed to create action")
		return
	}
	s.recordAudit(r, audit.OpCreate, a.ID, map[string]any{"name": a.Name, "triggers": a.Triggers})
	writeJSON(w, http.StatusCreated, a)
}

// handleUpdateAction partially updates an action.
func (s *Server) handleUpdateAction(w http.ResponseWriter, r *http.Request) {
	id, ok := actionID(w, r)
	if !ok {
		return
	}

	existing, err := s.registry.GetAction(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "failed to get action")
		return
	}

	// Decode partial update onto existing action
	if err := json.NewDecoder(r.Body).Decode(existing); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	existing.ID = id

	if err := s.registry.UpdateAction(r.Context(), existing); err != nil {
		writeDomainError(w, err, "failed to update action")
		return
	}
	s.recordAudit(r, audit.OpUpdate, id, map[string]any{"name": existing.Name, "triggers": existing.Triggers})
	writeJSON(w, http.StatusOK, existing)
}

// handleDeleteAction removes an action by ID.
func (s *Server) handleDeleteAction(w http.ResponseWriter, r *http.Request) {
	id, ok := actionID(w, r)
	if !ok {
		return
	}

	if err := s.registry.DeleteAction(r.Context(), id); err != nil {
		writeDomainError(w, err, "failed to delete action")
		return
	}
	s.recordAudit(r, audit.OpDelete, id, nil)
	w.WriteHeader(http.StatusNoContent)
}

// runRequest is the optional body of POST /actions/{id}/run.
type runRequest struct {
	MidiIndex  *int `json:"midi_index"`
	SlideIndex *int `json:"slide_index"`
}

func (req runRequest) options() action.RunOptions {
	opts := action.DefaultRunOptions()
	if req.MidiIndex != nil {
		opts.MidiIndex = *req.MidiIndex
	}
	if req.SlideIndex != nil {
		opts.SlideIndex = *req.SlideIndex
	}
	return opts
}

// handleRunAction starts a stored action. The run continues after the
// response; progress arrives on the actions.running channel.
func (s *Server) handleRunAction(w http.ResponseWriter, r *http.Request) {
	id, ok := actionID(w, r)
	if !ok {
		return
	}

	var req runRequest
	if err := decodeOptional(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	// Enabled only gates custom activation; a direct run always starts.
	if _, err := s.registry.GetAction(r.Context(), id); err != nil {
		writeDomainError(w, err, "failed to get action")
		return
	}

	started := s.engine.RunByID(r.Context(), id, req.options())
	writeJSON(w, http.StatusAccepted, map[string]any{
		"action_id": id,
		"started":   started,
	})
}

// adHocRequest is the body of POST /actions/run: an unsaved action.
type adHocRequest struct {
	action.Action
	runRequest
}

// handleRunAdHoc runs an action that is not stored, as the editor does when
// previewing a trigger.
func (s *Server) handleRunAdHoc(w http.ResponseWriter, r *http.Request) {
	var req adHocRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	a := req.Action
	if a.ID == "" {
		a.ID = action.GenerateID()
	}
	a, _ = action.UpgradeLegacy(a)
	if err := action.ValidateAction(&a); err != nil {
		writeDomainError(w, err, "invalid action")
		return
	}

	started := s.engine.Start(&a, req.options(), false)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"action_id": a.ID,
		"started":   started,
	})
}

// handleRunByName starts the action whose name best matches the query.
func (s *Server) handleRunByName(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || len(req.Name) > maxQueryParamLen {
		writeBadRequest(w, "invalid name")
		return
	}

	a := s.engine.RunByName(r.Context(), req.Name)
	if a == nil {
		writeNotFound(w, "no action matches name")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"action_id": a.ID,
		"name":      a.Name,
		"started":   true,
	})
}

// handleToggleAction flips an action's enabled flag, or sets it when the
// body carries {"enabled": bool}.
func (s *Server) handleToggleAction(w http.ResponseWriter, r *http.Request) {
	id, ok := actionID(w, r)
	if !ok {
		return
	}

	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if err := decodeOptional(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	a, err := s.engine.Toggle(r.Context(), id, req.Enabled)
	if err != nil {
		writeDomainError(w, err, "failed to toggle action")
		return
	}
	s.recordAudit(r, audit.OpToggle, id, map[string]any{"enabled": a.IsEnabled()})
	writeJSON(w, http.StatusOK, s.view(a))
}

// handleCustomActivation starts every action tagged with {tag}.
func (s *Server) handleCustomActivation(w http.ResponseWriter, r *http.Request) {
	tag := chi.URLParam(r, "tag")
	if tag == "" || len(tag) > maxQueryParamLen {
		writeBadRequest(w, "invalid activation tag")
		return
	}

	started := s.engine.RunByCustomActivation(r.Context(), tag)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"tag":     tag,
		"started": started,
	})
}

// handleRunning returns the ids of actions currently running.
func (s *Server) handleRunning(w http.ResponseWriter, _ *http.Request) {
	ids := s.engine.Running().Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{"running": ids, "count": len(ids)})
}

// handleHistory returns the trigger history, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	entries := s.engine.History().Entries()
	writeJSON(w, http.StatusOK, map[string]any{"history": entries, "count": len(entries)})
}

// handleClearHistory empties the trigger history.
func (s *Server) handleClearHistory(w http.ResponseWriter, _ *http.Request) {
	s.engine.History().Clear()
	w.WriteHeader(http.StatusNoContent)
}

// handleListTriggers returns the trigger keys the engine can dispatch.
func (s *Server) handleListTriggers(w http.ResponseWriter, _ *http.Request) {
	if s.triggers == nil {
		writeJSON(w, http.StatusOK, map[string]any{"triggers": []string{}, "count": 0})
		return
	}
	keys := s.triggers.Keys()
	writeJSON(w, http.StatusOK, map[string]any{"triggers": keys, "count": len(keys)})
}

// describeRequest is the body of POST /describe.
type describeRequest struct {
	Trigger string         `json:"trigger"`
	Value   map[string]any `json:"value"`
}

// handleDescribe returns the display label of a trigger payload.
func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	var req describeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if err := action.ValidateTriggerRef(req.Trigger); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	label, ok := s.namer.Describe(r.Context(), action.TriggerID(req.Trigger), req.Value)
	writeJSON(w, http.StatusOK, map[string]any{
		"trigger": req.Trigger,
		"label":   label,
		"named":   ok,
	})
}
