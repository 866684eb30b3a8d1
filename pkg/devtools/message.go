package devtools

import (
	"time"

	"github.com/vango-dev/reactor/pkg/component"
	"github.com/vango-dev/reactor/pkg/reactive"
	"github.com/vango-dev/reactor/pkg/report"
	"github.com/vango-dev/reactor/pkg/vdom"
)

// MessageType identifies a feed message.
type MessageType string

const (
	MsgCreated   MessageType = "created"
	MsgHook      MessageType = "hook"
	MsgPatched   MessageType = "patched"
	MsgDestroyed MessageType = "destroyed"
	MsgFlush     MessageType = "flush"
	MsgReport    MessageType = "report"
)

// Message is one entry of the websocket feed.
type Message struct {
	Type     MessageType    `json:"type"`
	Time     time.Time      `json:"time"`
	Instance component.ID   `json:"instance,omitempty"`
	Name     string         `json:"name,omitempty"`
	Hook     string         `json:"hook,omitempty"`
	Ran      int            `json:"ran,omitempty"`
	Aborted  bool           `json:"aborted,omitempty"`
	Micros   int64          `json:"micros,omitempty"`
	Ops      map[string]int `json:"ops,omitempty"`
	Kind     string         `json:"kind,omitempty"`
	Code     string         `json:"code,omitempty"`
	Info     string         `json:"info,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// Feed turns runtime observer callbacks into hub messages. Register it with
// component.WithObserver.
type Feed struct {
	hub   *Hub
	hooks bool
	now   func() time.Time
}

// NewFeed creates a feed publishing to hub. Hook messages are only sent when
// hooks is true.
func NewFeed(hub *Hub, hooks bool) *Feed {
	return &Feed{hub: hub, hooks: hooks, now: time.Now}
}

func (f *Feed) publish(m Message) {
	m.Time = f.now()
	f.hub.Broadcast(m)
}

func (f *Feed) InstanceCreated(inst *component.Instance) {
	f.publish(Message{Type: MsgCreated, Instance: inst.ID(), Name: inst.Name()})
}

func (f *Feed) HookCalled(inst *component.Instance, hook component.Hook) {
	if !f.hooks {
		return
	}
	f.publish(Message{Type: MsgHook, Instance: inst.ID(), Name: inst.Name(), Hook: string(hook)})
}

// InstancePatched publishes the patch with its operation counts. First
// renders carry no counts.
func (f *Feed) InstancePatched(inst *component.Instance, prev, next *vdom.VNode, elapsed time.Duration) {
	m := Message{Type: MsgPatched, Instance: inst.ID(), Name: inst.Name(), Micros: elapsed.Microseconds()}
	if prev != nil {
		m.Ops = vdom.Summary(vdom.Diff(prev, next))
	}
	f.publish(m)
}

func (f *Feed) InstanceDestroyed(inst *component.Instance) {
	f.publish(Message{Type: MsgDestroyed, Instance: inst.ID(), Name: inst.Name()})
}

func (f *Feed) Reported(e *report.Error) {
	m := Message{
		Type:     MsgReport,
		Instance: component.ID(e.Instance),
		Name:     e.Component,
		Kind:     e.Kind.String(),
		Code:     e.Code,
		Info:     e.Info,
	}
	if e.Err != nil {
		m.Error = e.Err.Error()
	}
	f.publish(m)
}

func (f *Feed) FlushStarted(int) {}

func (f *Feed) ComputationRan(*reactive.Computation, time.Duration) {}

func (f *Feed) FlushFinished(ran int, elapsed time.Duration, aborted bool) {
	f.publish(Message{Type: MsgFlush, Ran: ran, Aborted: aborted, Micros: elapsed.Microseconds()})
}
