// Package tracking coordinates live responder positions while a case is
// traveling. A session opens on the depart transition and closes the moment
// the case leaves traveling; position fixes outside a session are rejected,
// so no stale client keeps writing coordinates after the case is done.
package tracking

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/apex/log"

	"go-lifeline/realtime"
	"go-lifeline/routing"
	"go-lifeline/types"
)

// ErrNotTracking rejects a position fix for a case with no open session.
var ErrNotTracking = errors.New("tracking: case is not traveling")

// ErrNoFix means the session is open but no position has arrived yet, so
// there is nothing to route from.
var ErrNoFix = errors.New("tracking: no position fix yet")

const (
	// Minimum interval between accepted position writes. Device providers
	// report at their own cadence; anything faster than this is dropped to
	// avoid write storms.
	defaultDebounce = 3 * time.Second

	// A position change below this is not meaningful enough to recompute the
	// route; it is within ordinary GPS jitter.
	defaultMoveThreshold = 25.0 // meters
)

// PositionStore is the slice of the case store the tracker writes through.
// Get backs session recovery: sessions are in-memory, so after a restart a
// still-traveling case has none until its responder reports again.
type PositionStore interface {
	Get(ctx context.Context, id string) (types.Case, error)
	UpdatePosition(ctx context.Context, id string, p types.Principal, lat, lng float64) error
}

// Router is the external routing capability.
type Router interface {
	Route(ctx context.Context, start, end routing.LatLng) (*routing.Route, error)
}

// Publisher pushes ETA updates to the case's subscribers.
type Publisher interface {
	Publish(topic, msgType string, payload interface{})
}

// ETA is what the reporter's view renders while the responder travels.
// Degraded means the routing service was unavailable and the distance is the
// straight-line estimate with no duration or path.
type ETA struct {
	CaseID      string           `json:"caseId"`
	DistanceKm  float64          `json:"distanceKm"`
	DurationMin float64          `json:"durationMin"`
	Path        []routing.LatLng `json:"path,omitempty"`
	Degraded    bool             `json:"degraded"`
}

type session struct {
	origin    routing.LatLng
	lastFix   routing.LatLng
	hasFix    bool
	lastWrite time.Time
	lastETA   *ETA
}

// Tracker holds one session per traveling case.
type Tracker struct {
	store PositionStore
	route Router
	pub   Publisher

	debounce      time.Duration
	moveThreshold float64
	now           func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

func New(store PositionStore, route Router, pub Publisher) *Tracker {
	return &Tracker{
		store:         store,
		route:         route,
		pub:           pub,
		debounce:      defaultDebounce,
		moveThreshold: defaultMoveThreshold,
		now:           time.Now,
		sessions:      make(map[string]*session),
	}
}

// Start opens a tracking session. origin is the reporter's fixed coordinate.
// Starting an already-tracked case resets its session.
func (t *Tracker) Start(caseID string, origin routing.LatLng) {
	t.mu.Lock()
	t.sessions[caseID] = &session{origin: origin}
	t.mu.Unlock()
	log.Infof("Tracking started for case %s", caseID)
}

// Stop closes the session. Any fix reported afterwards is rejected.
func (t *Tracker) Stop(caseID string) {
	t.mu.Lock()
	_, had := t.sessions[caseID]
	delete(t.sessions, caseID)
	t.mu.Unlock()
	if had {
		log.Infof("Tracking stopped for case %s", caseID)
	}
}

// Active reports whether the case has an open session.
func (t *Tracker) Active(caseID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.sessions[caseID]
	return ok
}

// Report handles one position fix from the responder's device. Fixes inside
// the debounce window are dropped without error. A fix that moved the
// responder meaningfully triggers an ETA recomputation pushed to the case's
// subscribers; routing failure degrades the push, it never fails the report.
func (t *Tracker) Report(ctx context.Context, caseID string, p types.Principal, fix routing.LatLng) error {
	t.mu.Lock()
	sess, ok := t.sessions[caseID]
	if !ok {
		t.mu.Unlock()
		var err error
		if sess, err = t.resume(ctx, caseID, p); err != nil {
			return err
		}
		t.mu.Lock()
	}

	now := t.now()
	if sess.hasFix && now.Sub(sess.lastWrite) < t.debounce {
		t.mu.Unlock()
		return nil
	}

	moved := !sess.hasFix || routing.Haversine(sess.lastFix, fix) >= t.moveThreshold
	sess.lastFix = fix
	sess.hasFix = true
	sess.lastWrite = now
	origin := sess.origin
	t.mu.Unlock()

	if err := t.store.UpdatePosition(ctx, caseID, p, fix.Lat, fix.Lng); err != nil {
		// The case left traveling under us; tear the session down.
		t.Stop(caseID)
		return err
	}

	if moved {
		t.publishETA(ctx, caseID, fix, origin)
	}
	return nil
}

// resume rebuilds a session lost to a restart. The store is the authority: a
// session reopens only when the case is still traveling under this responder.
func (t *Tracker) resume(ctx context.Context, caseID string, p types.Principal) (*session, error) {
	c, err := t.store.Get(ctx, caseID)
	if err != nil || c.Status != types.StatusTraveling || c.ResponderID != p.ID {
		return nil, ErrNotTracking
	}

	t.mu.Lock()
	sess, ok := t.sessions[caseID]
	if !ok {
		sess = &session{origin: routing.LatLng{Lat: c.OriginLat, Lng: c.OriginLng}}
		t.sessions[caseID] = sess
	}
	t.mu.Unlock()
	log.Infof("Tracking resumed for case %s", caseID)
	return sess, nil
}

func (t *Tracker) publishETA(ctx context.Context, caseID string, from, to routing.LatLng) {
	eta := t.computeETA(ctx, caseID, from, to)

	t.mu.Lock()
	if sess, ok := t.sessions[caseID]; ok {
		sess.lastETA = &eta
	}
	t.mu.Unlock()

	t.pub.Publish(realtime.CaseTopic(caseID), "eta", eta)
}

func (t *Tracker) computeETA(ctx context.Context, caseID string, from, to routing.LatLng) ETA {
	r, err := t.route.Route(ctx, from, to)
	if err != nil {
		log.WithError(err).Warnf("Routing unavailable for case %s, degrading to straight-line", caseID)
		return ETA{
			CaseID:     caseID,
			DistanceKm: math.Round(routing.Haversine(from, to)/100) / 10,
			Degraded:   true,
		}
	}
	return ETA{
		CaseID:      caseID,
		DistanceKm:  math.Round(r.DistanceMeters/100) / 10,
		DurationMin: math.Round(r.DurationSeconds / 60),
		Path:        r.Path,
	}
}

// Refresh recomputes the ETA from the latest fix on demand, for viewers that
// arrive after the last push.
func (t *Tracker) Refresh(ctx context.Context, caseID string) (ETA, error) {
	t.mu.Lock()
	sess, ok := t.sessions[caseID]
	if !ok {
		t.mu.Unlock()
		return ETA{}, ErrNotTracking
	}
	if !sess.hasFix {
		t.mu.Unlock()
		return ETA{}, ErrNoFix
	}
	from, to := sess.lastFix, sess.origin
	t.mu.Unlock()

	eta := t.computeETA(ctx, caseID, from, to)
	t.mu.Lock()
	if sess, ok := t.sessions[caseID]; ok {
		sess.lastETA = &eta
	}
	t.mu.Unlock()
	return eta, nil
}

// LastETA returns the most recent ETA for a traveling case, if any.
func (t *Tracker) LastETA(caseID string) (ETA, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	sess, ok := t.sessions[caseID]
	if !ok || sess.lastETA == nil {
		return ETA{}, false
	}
	return *sess.lastETA, true
}
