// Package relay runs the armed-pair state machine in a background execution
// context, independent of any connected page. It mirrors the foreground
// scheduler over the same alarm.Engine but is fed exclusively by
// fire-and-forget messages: delivery is not guaranteed, duplicates are
// tolerated (re-sending SET_ALARM for an armed pair is an idempotent
// re-arm), and de-duplication on the presentation side is the notification
// tag's job.
package relay

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"ttalarm/internal/alarm"
	"ttalarm/internal/domain"
)

// Message types accepted by the relay inbox.
const (
	MsgSetAlarm       = "SET_ALARM"
	MsgClearAlarm     = "CLEAR_ALARM"
	MsgClearAllAlarms = "CLEAR_ALL_ALARMS"
)

// Message types the relay pushes back to connected clients.
const (
	MsgAlarmTriggered   = "ALARM_TRIGGERED"
	MsgShowNotification = "SHOW_NOTIFICATION"
	MsgPlayAlarmSound   = "PLAY_ALARM_SOUND"
	MsgClaimed          = "CLAIMED"
)

// inboxSize bounds the relay inbox; Send drops (and reports false) when full.
const inboxSize = 64

// clientBuffer is the per-connected-client channel capacity.
const clientBuffer = 16

// Message is one instruction for the relay. AlarmTime is epoch milliseconds,
// matching the wire shape a page posts to its worker.
type Message struct {
	Type       string             `json:"type"`
	ScheduleID string             `json:"scheduleId,omitempty"`
	AlarmTime  int64              `json:"alarmTime,omitempty"`
	AlarmType  domain.AlarmMoment `json:"alarmType,omitempty"`
	Schedule   domain.Schedule    `json:"scheduleData,omitempty"`
}

// ClientMessage is one instruction the relay sends to a connected client.
// The relay context cannot render a notification or play audio itself, so on
// fire it asks every client to do so.
type ClientMessage struct {
	Type       string             `json:"type"`
	Title      string             `json:"title,omitempty"`
	Body       string             `json:"body,omitempty"`
	ScheduleID string             `json:"scheduleId,omitempty"`
	AlarmType  domain.AlarmMoment `json:"alarmType,omitempty"`
	Schedule   domain.Schedule    `json:"scheduleData,omitempty"`
}

// Presenter builds the presentation payload for a fired pair. Implemented by
// the notify package; kept as a small interface so relay tests need no
// notification machinery.
type Presenter interface {
	TitleFor(moment domain.AlarmMoment) string
	BuildMessage(sched domain.Schedule, moment domain.AlarmMoment) string
}

// Relay is the background alarm context.
type Relay struct {
	log       *slog.Logger
	clock     alarm.Clock
	engine    *alarm.Engine
	presenter Presenter
	fallback  alarm.Sink // optional local presentation when no client is connected

	inbox chan Message

	mu        sync.Mutex
	activated bool
	stopped   bool
	clients   map[chan ClientMessage]struct{}
}

// New constructs a Relay. fallback may be nil when the context has no local
// presentation capability at all.
func New(clock alarm.Clock, presenter Presenter, fallback alarm.Sink, log *slog.Logger) *Relay {
	r := &Relay{
		log:       log,
		clock:     clock,
		presenter: presenter,
		fallback:  fallback,
		inbox:     make(chan Message, inboxSize),
		clients:   make(map[chan ClientMessage]struct{}),
	}
	r.engine = alarm.NewEngine(clock, alarm.SinkFunc(r.onFire))
	return r
}

// Start installs and activates the relay: the message loop starts, any
// armed state left over from a previous generation is purged, and connected
// clients are claimed immediately. Returns after activation completes.
func (r *Relay) Start(ctx context.Context) {
	go r.run(ctx)
	r.activate()
}

// activate purges stale armed pairs and claims every connected client.
func (r *Relay) activate() {
	purged := r.engine.CancelAll()

	r.mu.Lock()
	r.activated = true
	r.mu.Unlock()

	r.broadcast(ClientMessage{Type: MsgClaimed})
	r.log.Info("relay activated", "purged", purged)
}

// Active reports whether the relay is activated and accepting messages.
func (r *Relay) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activated && !r.stopped
}

// Send enqueues a message for the relay. It is fire-and-forget: when the
// relay is not activated, already stopped, or its inbox is full, the message
// is dropped and Send reports false — an observable no-op, never an error.
func (r *Relay) Send(msg Message) bool {
	if !r.Active() {
		return false
	}
	select {
	case r.inbox <- msg:
		return true
	default:
		r.log.Warn("relay inbox full, message dropped", "type", msg.Type)
		return false
	}
}

// TestAlarm arms a throwaway pair firing after a short fixed delay instead
// of a computed deadline, exercising the full relay round trip.
func (r *Relay) TestAlarm(sched domain.Schedule, moment domain.AlarmMoment) bool {
	return r.Send(Message{
		Type:       MsgSetAlarm,
		ScheduleID: sched.ID.String() + "-test",
		AlarmTime:  r.clock.Now().Add(alarm.TestFireDelay).UnixMilli(),
		AlarmType:  moment,
		Schedule:   sched,
	})
}

// Connect registers a foreground client and returns its channel plus a
// disconnect function. A client that stops reading is dropped.
func (r *Relay) Connect() (<-chan ClientMessage, func()) {
	ch := make(chan ClientMessage, clientBuffer)
	r.mu.Lock()
	r.clients[ch] = struct{}{}
	r.mu.Unlock()

	var once sync.Once
	disconnect := func() {
		once.Do(func() {
			r.mu.Lock()
			if _, ok := r.clients[ch]; ok {
				delete(r.clients, ch)
				close(ch)
			}
			r.mu.Unlock()
		})
	}
	return ch, disconnect
}

// Armed returns the relay's live pairs sorted by fire time.
func (r *Relay) Armed() []alarm.ArmedPair {
	return r.engine.Armed()
}

// ArmedCount returns the number of live pairs in the relay's own table.
func (r *Relay) ArmedCount() int {
	return r.engine.ArmedCount()
}

// run is the relay message loop. It owns all engine mutations so handling a
// message can never interleave with another.
func (r *Relay) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			r.stopped = true
			r.mu.Unlock()
			r.engine.CancelAll()
			return
		case msg := <-r.inbox:
			r.handle(msg)
		}
	}
}

func (r *Relay) handle(msg Message) {
	switch msg.Type {
	case MsgSetAlarm:
		at := time.UnixMilli(msg.AlarmTime)
		if !r.engine.Arm(msg.ScheduleID, msg.AlarmType, at, msg.Schedule) {
			r.log.Debug("alarm time already passed", "scheduleId", msg.ScheduleID, "alarmType", msg.AlarmType)
		}
	case MsgClearAlarm:
		r.engine.Cancel(msg.ScheduleID, msg.AlarmType)
	case MsgClearAllAlarms:
		r.engine.CancelAll()
	default:
		r.log.Warn("unknown relay message", "type", msg.Type)
	}
}

// onFire relays the presentation to every connected client. Only when no
// client is reachable does it present locally through the fallback sink, if
// it has that capability.
func (r *Relay) onFire(sched domain.Schedule, moment domain.AlarmMoment) {
	r.mu.Lock()
	reachable := len(r.clients) > 0
	r.mu.Unlock()

	id := sched.ID.String()
	r.log.Info("relay alarm fired", "scheduleId", id, "alarmType", moment)

	if !reachable {
		if r.fallback != nil {
			r.fallback.Fire(sched, moment)
		}
		return
	}

	r.broadcast(ClientMessage{Type: MsgAlarmTriggered, ScheduleID: id, AlarmType: moment, Schedule: sched})
	r.broadcast(ClientMessage{
		Type:       MsgShowNotification,
		Title:      r.presenter.TitleFor(moment),
		Body:       r.presenter.BuildMessage(sched, moment),
		ScheduleID: id,
		AlarmType:  moment,
		Schedule:   sched,
	})
	r.broadcast(ClientMessage{Type: MsgPlayAlarmSound})
}

// broadcast pushes msg to every client, dropping clients that fell behind.
func (r *Relay) broadcast(msg ClientMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for ch := range r.clients {
		select {
		case ch <- msg:
		default:
			delete(r.clients, ch)
			close(ch)
		}
	}
}
