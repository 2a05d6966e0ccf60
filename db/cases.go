package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/apex/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"go-lifeline/chatlog"
	"go-lifeline/lifecycle"
	"go-lifeline/types"
)

// ErrNotFound is returned when a case id resolves to no document.
var ErrNotFound = errors.New("db: case not found")

const casesCollection = "reports"

// CaseStore persists cases in a Firestore collection and exposes the
// lifecycle transitions as store operations. Every transition is validated
// against the current document inside a transaction, so an illegal request
// leaves the record untouched.
type CaseStore struct {
	client *firestore.Client
}

func NewCaseStore(client *firestore.Client) *CaseStore {
	return &CaseStore{client: client}
}

func (s *CaseStore) cases() *firestore.CollectionRef {
	return s.client.Collection(casesCollection)
}

func snapToCase(doc *firestore.DocumentSnapshot) (types.Case, error) {
	var c types.Case
	if err := doc.DataTo(&c); err != nil {
		return types.Case{}, fmt.Errorf("decoding case %s: %w", doc.Ref.ID, err)
	}
	c.ID = doc.Ref.ID
	return c, nil
}

// Create stores a new case in pending state and returns its id.
func (s *CaseStore) Create(ctx context.Context, p types.Principal, c types.Case) (string, error) {
	ref := s.cases().NewDoc()
	_, err := ref.Set(ctx, map[string]interface{}{
		"disasterType":       c.DisasterType,
		"description":        c.Description,
		"contactName":        c.ContactName,
		"contactPhone":       c.ContactPhone,
		"status":             types.StatusPending,
		"originLat":          c.OriginLat,
		"originLng":          c.OriginLng,
		"reporterId":         p.ID,
		"unreadForResponder": 0,
		"unreadForReporter":  0,
		"createdAt":          firestore.ServerTimestamp,
		"lastUpdated":        firestore.ServerTimestamp,
	})
	if err != nil {
		return "", fmt.Errorf("creating case: %w", err)
	}
	return ref.ID, nil
}

// Get fetches a single case.
func (s *CaseStore) Get(ctx context.Context, id string) (types.Case, error) {
	doc, err := s.cases().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.Case{}, ErrNotFound
		}
		return types.Case{}, fmt.Errorf("getting case %s: %w", id, err)
	}
	return snapToCase(doc)
}

// List returns every case, newest first.
func (s *CaseStore) List(ctx context.Context) ([]types.Case, error) {
	docs, err := s.cases().OrderBy("createdAt", firestore.Desc).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("listing cases: %w", err)
	}

	out := make([]types.Case, 0, len(docs))
	for _, doc := range docs {
		c, err := snapToCase(doc)
		if err != nil {
			log.WithError(err).Warnf("Skipping undecodable case %s", doc.Ref.ID)
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// transition runs fn against the current document state and applies the
// updates it returns, atomically.
func (s *CaseStore) transition(ctx context.Context, id string, fn func(c types.Case) ([]firestore.Update, error)) error {
	ref := s.cases().Doc(id)
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}
			return fmt.Errorf("getting case %s: %w", id, err)
		}
		c, err := snapToCase(doc)
		if err != nil {
			return err
		}

		updates, err := fn(c)
		if err != nil {
			return err
		}
		updates = append(updates, firestore.Update{Path: "lastUpdated", Value: firestore.ServerTimestamp})
		return tx.Update(ref, updates)
	})
}

// Claim binds the responder to the case and moves it to accepted. A second
// responder is rejected with ErrInvalidTransition until a coordinator resets
// the case.
func (s *CaseStore) Claim(ctx context.Context, id string, p types.Principal) error {
	return s.transition(ctx, id, func(c types.Case) ([]firestore.Update, error) {
		if err := lifecycle.Claim(&c, p); err != nil {
			return nil, err
		}
		return []firestore.Update{
			{Path: "status", Value: types.StatusAccepted},
			{Path: "responderId", Value: p.ID},
			{Path: "responderName", Value: p.Name},
			{Path: "acceptedAt", Value: firestore.ServerTimestamp},
		}, nil
	})
}

// Depart moves an accepted case to traveling.
func (s *CaseStore) Depart(ctx context.Context, id string, p types.Principal) error {
	return s.transition(ctx, id, func(c types.Case) ([]firestore.Update, error) {
		if err := lifecycle.Depart(&c, p); err != nil {
			return nil, err
		}
		return []firestore.Update{
			{Path: "status", Value: types.StatusTraveling},
		}, nil
	})
}

// Arrive completes a traveling case. The live responder position is removed;
// it has no meaning once the case is closed.
func (s *CaseStore) Arrive(ctx context.Context, id string, p types.Principal) error {
	return s.transition(ctx, id, func(c types.Case) ([]firestore.Update, error) {
		if err := lifecycle.Arrive(&c, p); err != nil {
			return nil, err
		}
		return []firestore.Update{
			{Path: "status", Value: types.StatusCompleted},
			{Path: "completedAt", Value: firestore.ServerTimestamp},
			{Path: "responderLat", Value: firestore.Delete},
			{Path: "responderLng", Value: firestore.Delete},
		}, nil
	})
}

// Toggle is the coordinator override. Resetting a green case back to pending
// releases the responder binding so the case can be claimed again.
func (s *CaseStore) Toggle(ctx context.Context, id string, p types.Principal) (types.Status, error) {
	var next types.Status
	err := s.transition(ctx, id, func(c types.Case) ([]firestore.Update, error) {
		var err error
		next, err = lifecycle.Toggle(&c, p)
		if err != nil {
			return nil, err
		}

		updates := []firestore.Update{{Path: "status", Value: next}}
		if next == types.StatusPending {
			updates = append(updates,
				firestore.Update{Path: "responderId", Value: firestore.Delete},
				firestore.Update{Path: "responderName", Value: firestore.Delete},
				firestore.Update{Path: "responderLat", Value: firestore.Delete},
				firestore.Update{Path: "responderLng", Value: firestore.Delete},
				firestore.Update{Path: "acceptedAt", Value: firestore.Delete},
			)
		}
		return updates, nil
	})
	return next, err
}

// Delete removes a case permanently. Coordinator only; there is no automatic
// expiry anywhere else.
func (s *CaseStore) Delete(ctx context.Context, id string, p types.Principal) error {
	if err := lifecycle.Delete(p); err != nil {
		return err
	}
	_, err := s.cases().Doc(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("deleting case %s: %w", id, err)
	}
	return nil
}

// unreadRecipient is the counter field bumped by an append: always the other
// party's, never the sender's own.
func unreadRecipient(sender types.Role) string {
	if sender == types.RoleResponder {
		return "unreadForReporter"
	}
	return "unreadForResponder"
}

// unreadOwn is the viewer's own counter field, the one reset when the
// conversation view opens.
func unreadOwn(viewer types.Role) string {
	if viewer == types.RoleResponder {
		return "unreadForResponder"
	}
	return "unreadForReporter"
}

// AppendMessage appends one conversation entry to the description blob and
// bumps the other party's unread counter. Only the case's two parties may
// append.
//
// The description write is a read-modify-write over the whole field: two
// near-simultaneous appends race last-write-wins and one can be lost. That is
// the known cost of keeping the conversation inside the persisted description
// field. The unread counter does not share that weakness: it goes through
// firestore.Increment, so the count stays correct even when an append loses.
func (s *CaseStore) AppendMessage(ctx context.Context, id string, p types.Principal, text string, now time.Time) error {
	c, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := lifecycle.Party(&c, p); err != nil {
		return err
	}

	_, err = s.cases().Doc(id).Update(ctx, []firestore.Update{
		{Path: "description", Value: chatlog.Append(c.Description, p.Role, text, now)},
		{Path: unreadRecipient(p.Role), Value: firestore.Increment(1)},
		{Path: "lastUpdated", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		return fmt.Errorf("appending message to case %s: %w", id, err)
	}
	return nil
}

// MarkRead zeroes the viewer's own unread counter, leaving the other party's
// untouched. Only the case's two parties may mark it read. A plain
// single-field write keeps it idempotent; reopening an already-open view is a
// no-op in effect.
func (s *CaseStore) MarkRead(ctx context.Context, id string, p types.Principal) error {
	c, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := lifecycle.Party(&c, p); err != nil {
		return err
	}

	_, err = s.cases().Doc(id).Update(ctx, []firestore.Update{
		{Path: unreadOwn(p.Role), Value: 0},
	})
	if err != nil {
		return fmt.Errorf("marking case %s read: %w", id, err)
	}
	return nil
}

// UpdatePosition writes the responder's latest fix. Positions are only
// accepted while the case is traveling; anything else is rejected unchanged.
func (s *CaseStore) UpdatePosition(ctx context.Context, id string, p types.Principal, lat, lng float64) error {
	return s.transition(ctx, id, func(c types.Case) ([]firestore.Update, error) {
		if p.Role != types.RoleResponder || p.ID != c.ResponderID {
			return nil, lifecycle.ErrPermissionDenied
		}
		if c.Status != types.StatusTraveling {
			return nil, lifecycle.ErrInvalidTransition
		}
		return []firestore.Update{
			{Path: "responderLat", Value: lat},
			{Path: "responderLng", Value: lng},
		}, nil
	})
}
