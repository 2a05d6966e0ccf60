package db

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/apex/log"
	"google.golang.org/api/iterator"

	"go-lifeline/types"
)

// CaseEvent is one observed change to a watched case.
type CaseEvent struct {
	Case    types.Case
	Deleted bool
}

const resubscribeDelay = 2 * time.Second

// WatchCase streams snapshots of a single case until ctx is cancelled. A
// dropped listen stream is resubscribed silently; the consumer just sees the
// next snapshot, never a duplicate event for unchanged state.
func (s *CaseStore) WatchCase(ctx context.Context, id string) <-chan CaseEvent {
	out := make(chan CaseEvent, 8)
	ref := s.cases().Doc(id)

	go func() {
		defer close(out)
		for ctx.Err() == nil {
			it := ref.Snapshots(ctx)
			for {
				doc, err := it.Next()
				if err != nil {
					break
				}
				ev := CaseEvent{Deleted: !doc.Exists()}
				if doc.Exists() {
					c, err := snapToCase(doc)
					if err != nil {
						log.WithError(err).Warnf("Dropping bad snapshot for case %s", id)
						continue
					}
					ev.Case = c
				} else {
					ev.Case = types.Case{ID: id}
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					it.Stop()
					return
				}
			}
			it.Stop()
			if ctx.Err() == nil {
				log.Warnf("Case %s listen stream lost, resubscribing", id)
				time.Sleep(resubscribeDelay)
			}
		}
	}()

	return out
}

// WatchAll streams full-collection snapshots, newest case first, until ctx is
// cancelled. Same silent-resubscribe policy as WatchCase.
func (s *CaseStore) WatchAll(ctx context.Context) <-chan []types.Case {
	out := make(chan []types.Case, 4)
	query := s.cases().OrderBy("createdAt", firestore.Desc)

	go func() {
		defer close(out)
		for ctx.Err() == nil {
			it := query.Snapshots(ctx)
			for {
				qs, err := it.Next()
				if err != nil {
					break
				}

				var cases []types.Case
				docs := qs.Documents
				for {
					doc, err := docs.Next()
					if err == iterator.Done {
						break
					}
					if err != nil {
						log.WithError(err).Warn("Query snapshot iteration failed")
						break
					}
					c, err := snapToCase(doc)
					if err != nil {
						log.WithError(err).Warnf("Skipping undecodable case %s", doc.Ref.ID)
						continue
					}
					cases = append(cases, c)
				}

				select {
				case out <- cases:
				case <-ctx.Done():
					it.Stop()
					return
				}
			}
			it.Stop()
			if ctx.Err() == nil {
				log.Warn("Case feed listen stream lost, resubscribing")
				time.Sleep(resubscribeDelay)
			}
		}
	}()

	return out
}
