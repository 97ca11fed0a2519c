package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/nerrad567/show-logic-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/show-logic-core/internal/showstate"
)

func loadLayout(t *testing.T, rig *testRig) {
	t.Helper()
	err := rig.state.ApplyLayout("L1", []byte(`{"slides":[{"id":"a"},{"id":"b","overlays":["o1"]}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if err := rig.state.ApplyOutput([]byte(`{"showId":"s1","layoutId":"L1","index":0}`)); err != nil {
		t.Fatal(err)
	}
}

func TestAddSlideAction(t *testing.T) {
	rig := newTestRig(t)
	loadLayout(t, rig)

	w := rig.do(t, http.MethodPost, "/api/v1/slides/1/actions", `{"trigger":"start_show","value":{"id":"s2"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		EntryID   string           `json:"entry_id"`
		Layout    showstate.Layout `json:"layout"`
		Published bool             `json:"published"`
	}
	decodeBody(t, w, &resp)
	if resp.EntryID == "" || !resp.Published {
		t.Errorf("resp = %+v", resp)
	}
	if sa := resp.Layout.Slides[1].Actions; sa == nil || len(sa.SlideActions) != 1 {
		t.Fatalf("slide 1 actions = %+v", sa)
	}

	topic := mqtt.Topics{}.StateLayout("L1")
	if _, ok := rig.mqtt.published[topic]; !ok {
		t.Errorf("layout not published to %s", topic)
	}

	sa, ok := rig.state.SlideActions(1)
	if !ok || !sa.Has("start_show") {
		t.Error("store not updated")
	}
}

func TestAddSlideAction_Errors(t *testing.T) {
	rig := newTestRig(t)

	// No active layout yet.
	w := rig.do(t, http.MethodPost, "/api/v1/slides/0/actions", `{"trigger":"next_slide"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("no layout status = %d, want 409", w.Code)
	}

	loadLayout(t, rig)

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"index not a number", "/api/v1/slides/x/actions", `{"trigger":"next_slide"}`, http.StatusBadRequest},
		{"index out of range", "/api/v1/slides/5/actions", `{"trigger":"next_slide"}`, http.StatusBadRequest},
		{"missing trigger", "/api/v1/slides/0/actions", `{}`, http.StatusBadRequest},
		{"invalid JSON", "/api/v1/slides/0/actions", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := rig.do(t, http.MethodPost, tt.path, tt.body); w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestAddSlideAction_PublishFailure(t *testing.T) {
	rig := newTestRig(t)
	loadLayout(t, rig)
	rig.mqtt.err = errors.New("broker down")

	w := rig.do(t, http.MethodPost, "/api/v1/slides/0/actions", `{"trigger":"next_slide"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp map[string]any
	decodeBody(t, w, &resp)
	if resp["published"] != false {
		t.Errorf("published = %v, want false", resp["published"])
	}
}

func TestShowState(t *testing.T) {
	rig := newTestRig(t)
	loadLayout(t, rig)

	w := rig.do(t, http.MethodGet, "/api/v1/state", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var st showstate.State
	decodeBody(t, w, &st)
	if st.Output == nil || st.Output.LayoutID != "L1" {
		t.Errorf("output = %+v", st.Output)
	}

	rig.srv.state = nil
	if w = rig.do(t, http.MethodGet, "/api/v1/state", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("without state status = %d, want 503", w.Code)
	}
}

// ─── Notifications ─────────────────────────────────────────────────

func TestNotifications(t *testing.T) {
	rig := newTestRig(t)
	rig.notices.Notify("$toast.one")
	rig.notices.Notify("$toast.two")

	w := rig.do(t, http.MethodGet, "/api/v1/notifications", "")
	var resp struct {
		Pending []string `json:"pending"`
	}
	decodeBody(t, w, &resp)
	if len(resp.Pending) != 2 {
		t.Fatalf("pending = %v, want 2 entries", resp.Pending)
	}

	if w = rig.do(t, http.MethodDelete, "/api/v1/notifications/$toast.one", ""); w.Code != http.StatusNoContent {
		t.Errorf("dismiss status = %d", w.Code)
	}
	if w = rig.do(t, http.MethodDelete, "/api/v1/notifications/$toast.one", ""); w.Code != http.StatusNotFound {
		t.Errorf("second dismiss status = %d, want 404", w.Code)
	}

	if w = rig.do(t, http.MethodDelete, "/api/v1/notifications", ""); w.Code != http.StatusNoContent {
		t.Errorf("clear status = %d", w.Code)
	}
	if n := len(rig.notices.Pending()); n != 0 {
		t.Errorf("pending after clear = %d", n)
	}
}
