// Package notify implements the notification channel: permission handling,
// message building, the event hub that fans presentations out to connected
// clients, and the synthesized alarm tone.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"ttalarm/internal/alarm"
	"ttalarm/internal/domain"
)

// Permission mirrors the platform notification permission states.
type Permission string

const (
	PermissionDefault     Permission = "default"
	PermissionGranted     Permission = "granted"
	PermissionDenied      Permission = "denied"
	PermissionUnsupported Permission = "unsupported"
)

// Event kinds delivered to subscribed clients.
const (
	EventNotification = "notification"
	EventAlert        = "alert" // guaranteed-visible fallback, never dropped silently
	EventSound        = "sound"
	EventDismiss      = "dismiss"
)

// DismissAfter bounds how long a notification stays up before the hub emits
// its dismiss event, so unattended alarms do not pile up.
const DismissAfter = 10 * time.Second

// clientBuffer is the per-subscriber channel capacity. A subscriber that
// falls this far behind is dropped and must resubscribe.
const clientBuffer = 16

// Event is one presentation instruction pushed to clients.
type Event struct {
	Kind       string             `json:"kind"`
	Title      string             `json:"title,omitempty"`
	Body       string             `json:"body,omitempty"`
	Tag        string             `json:"tag,omitempty"`
	ScheduleID string             `json:"scheduleId,omitempty"`
	AlarmType  domain.AlarmMoment `json:"alarmType,omitempty"`
}

// Notifier owns the permission state and the subscriber set. It implements
// alarm.Sink so both the foreground scheduler and the relay can fire into it.
type Notifier struct {
	log   *slog.Logger
	clock alarm.Clock
	tone  *TonePlayer

	mu         sync.Mutex
	permission Permission
	clients    map[chan Event]struct{}
	dismissals map[string]alarm.Timer // auto-dismiss timer per live tag
}

// New constructs a Notifier. A nil tone player disables audio entirely
// (permission for sound is then reported as unsupported by PlayTone, which
// simply does nothing).
func New(clock alarm.Clock, tone *TonePlayer, log *slog.Logger) *Notifier {
	return &Notifier{
		log:        log,
		clock:      clock,
		tone:       tone,
		permission: PermissionDefault,
		clients:    make(map[chan Event]struct{}),
		dismissals: make(map[string]alarm.Timer),
	}
}

// Permission returns the current permission state.
func (n *Notifier) Permission() Permission {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.permission
}

// RequestPermission resolves a pending permission decision. It is idempotent:
// once granted or denied, subsequent calls return the settled state without
// prompting again.
func (n *Notifier) RequestPermission() Permission {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.permission == PermissionDefault {
		n.permission = PermissionGranted
	}
	return n.permission
}

// SetPermission overrides the permission state, e.g. when a browser client
// reports that the user denied the platform prompt.
func (n *Notifier) SetPermission(p Permission) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.permission = p
}

// Subscribe registers a client and returns its event channel plus an
// unsubscribe function. The channel is closed on unsubscribe or when the
// client is dropped for falling behind.
func (n *Notifier) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, clientBuffer)
	n.mu.Lock()
	n.clients[ch] = struct{}{}
	n.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			n.mu.Lock()
			if _, ok := n.clients[ch]; ok {
				delete(n.clients, ch)
				close(ch)
			}
			n.mu.Unlock()
		})
	}
	return ch, cancel
}

// ClientCount returns the number of connected clients.
func (n *Notifier) ClientCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.clients)
}

// Fire implements alarm.Sink: build the message for the moment, present it,
// ask clients to play their alarm sound, and play the local tone. Audio is
// strictly best-effort and never delays the notification.
func (n *Notifier) Fire(sched domain.Schedule, moment domain.AlarmMoment) {
	id := sched.ID.String()
	n.Notify(TitleFor(moment), BuildMessage(sched, moment), Tag(id, moment), id, moment)
	n.RelaySound()
	n.PlayTone()
}

// Notify presents one notification. With permission granted it is broadcast
// to every client tagged for collapse, and auto-dismissed after
// DismissAfter. Without permission (or with zero reachable clients) it
// degrades to the guaranteed-visible fallback: an alert event plus a log
// line — an alarm is never dropped silently.
func (n *Notifier) Notify(title, body, tag, scheduleID string, moment domain.AlarmMoment) {
	n.mu.Lock()
	granted := n.permission == PermissionGranted
	reachable := len(n.clients) > 0
	n.mu.Unlock()

	ev := Event{
		Kind:       EventNotification,
		Title:      title,
		Body:       body,
		Tag:        tag,
		ScheduleID: scheduleID,
		AlarmType:  moment,
	}

	if !granted || !reachable {
		ev.Kind = EventAlert
		n.log.Warn("notification fallback", "title", title, "tag", tag, "permission", n.Permission())
		n.broadcast(ev)
		return
	}

	n.broadcast(ev)
	n.scheduleDismiss(tag)
	n.log.Info("notification shown", "title", title, "tag", tag)
}

// scheduleDismiss (re)arms the auto-dismiss timer for a tag. Re-notifying the
// same tag replaces the pending dismissal, matching the visual collapse.
func (n *Notifier) scheduleDismiss(tag string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if prev, ok := n.dismissals[tag]; ok {
		prev.Stop()
	}
	n.dismissals[tag] = n.clock.AfterFunc(DismissAfter, func() {
		n.mu.Lock()
		delete(n.dismissals, tag)
		n.mu.Unlock()
		n.broadcast(Event{Kind: EventDismiss, Tag: tag})
	})
}

// RelaySound broadcasts a play-sound instruction to clients that can render
// audio. The server-side tone cannot reach a browser, so clients get their
// own cue on every fire.
func (n *Notifier) RelaySound() {
	n.broadcast(Event{Kind: EventSound})
}

// PlayTone plays the synthesized alarm tone locally. Failures are swallowed:
// audio is a nice-to-have and must never block the notification path.
func (n *Notifier) PlayTone() {
	if n.tone == nil {
		return
	}
	if err := n.tone.Play(); err != nil {
		n.log.Debug("alarm tone failed", "error", err)
	}
}

// broadcast pushes ev to every client, dropping any client whose buffer is
// full. Delivery is fire-and-forget; de-duplication is the tag's job.
func (n *Notifier) broadcast(ev Event) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for ch := range n.clients {
		select {
		case ch <- ev:
		default:
			delete(n.clients, ch)
			close(ch)
		}
	}
}
