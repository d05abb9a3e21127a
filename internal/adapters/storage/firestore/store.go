package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/PabloGalante/farum-panel/internal/domain"
)

const eventsCollection = "panel_events"

// Store persists panel telemetry events in Firestore.
type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore store.
// Uses the project passed (FARUM_GCP_PROJECT).
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) eventsCol() *firestore.CollectionRef {
	return s.client.Collection(eventsCollection)
}

type eventDoc struct {
	Name       string         `firestore:"name"`
	TabID      string         `firestore:"tab_id"`
	TriggerID  string         `firestore:"trigger_id"`
	Attributes map[string]any `firestore:"attributes"`
	At         time.Time      `firestore:"at"`
}

// SaveEvent writes one event under a generated document id.
func (s *Store) SaveEvent(ctx context.Context, ev domain.TelemetryEvent) error {
	doc := eventDoc{
		Name:       string(ev.Name),
		TabID:      string(ev.TabID),
		TriggerID:  string(ev.TriggerID),
		Attributes: ev.Attributes,
		At:         ev.At,
	}

	_, err := s.eventsCol().NewDoc().Create(ctx, doc)
	if err != nil {
		return fmt.Errorf("firestore SaveEvent: %w", err)
	}
	return nil
}

// RecentForTab lists the newest events of a tab, newest first.
func (s *Store) RecentForTab(ctx context.Context, tabID domain.TabID, limit int) ([]domain.TelemetryEvent, error) {
	q := s.eventsCol().Where("tab_id", "==", string(tabID)).OrderBy("at", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []domain.TelemetryEvent
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore RecentForTab: %w", err)
		}

		var doc eventDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode eventDoc: %w", err)
		}

		out = append(out, domain.TelemetryEvent{
			Name:       domain.TelemetryName(doc.Name),
			TabID:      domain.TabID(doc.TabID),
			TriggerID:  domain.TriggerID(doc.TriggerID),
			Attributes: doc.Attributes,
			At:         doc.At,
		})
	}
	return out, nil
}
