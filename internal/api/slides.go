package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/show-logic-core/internal/action"
	"github.com/nerrad567/show-logic-core/internal/infrastructure/mqtt"
)

// errNoState is reported when the server runs without a show state mirror.
var errNoState = errors.New("show state is not available")

// handleShowState returns the mirrored presentation state.
func (s *Server) handleShowState(w http.ResponseWriter, _ *http.Request) {
	if s.state == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, errNoState.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.state.Snapshot())
}

// slideActionRequest is the body of POST /slides/{index}/actions.
type slideActionRequest struct {
	Trigger       string `json:"trigger"`
	Value         any    `json:"value"`
	AllowMultiple bool   `json:"allow_multiple"`
}

// handleAddSlideAction sets a trigger on a slide of the active layout and
// publishes the edited layout back to the presentation application.
func (s *Server) handleAddSlideAction(w http.ResponseWriter, r *http.Request) {
	if s.state == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, errNoState.Error())
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeBadRequest(w, "invalid slide index")
		return
	}

	var req slideActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if err := action.ValidateTriggerRef(req.Trigger); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	layout, entryID, err := s.state.AddSlideAction(index, req.Trigger, req.Value, req.AllowMultiple)
	if err != nil {
		writeDomainError(w, err, "failed to add slide action")
		return
	}

	published := false
	if s.mqtt != nil {
		topic := mqtt.Topics{}.StateLayout(layout.ID)
		if err := s.mqtt.PublishJSON(topic, layout, true); err != nil {
			s.logger.Warn("publishing edited layout failed", "layout_id", layout.ID, "error", err)
		} else {
			published = true
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entry_id":  entryID,
		"layout":    layout,
		"published": published,
	})
}
