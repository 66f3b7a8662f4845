package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/Szmjuly/CoffeeDropMonitor/pkg/catalog"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const (
	DefaultCollection          = "coffees"
	DefaultTriedCollection     = "coffees_tried"
	DefaultPurchasedCollection = "coffees_purchased"
	usersCollection            = "users"
)

const markedOnLayout = "2006-01-02 15:04:05-0700"

// FirestoreStore backs both the catalog and the per-user state with the
// hosted document database the scraper writes to.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(ctx context.Context, projectId, credentialsFile string) (*FirestoreStore, error) {
	conf := &firebase.Config{}
	if projectId != "" {
		conf.ProjectID = projectId
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase init: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return &FirestoreStore{client: client}, nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func (s *FirestoreStore) ListPage(ctx context.Context, collection string, cursor *Cursor, limit int) ([]*catalog.Item, *Cursor, error) {
	if collection == "" {
		collection = DefaultCollection
	}
	q := s.client.Collection(collection).
		OrderBy("last_seen", firestore.Desc).
		OrderBy(firestore.DocumentID, firestore.Asc).
		Limit(limit)
	if cursor != nil && cursor.Id != "" {
		q = q.StartAfter(cursor.LastSeen, cursor.Id)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	items := make([]*catalog.Item, 0, limit)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		item := &catalog.Item{}
		if err := doc.DataTo(item); err != nil {
			return nil, nil, err
		}
		item.Id = doc.Ref.ID
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil, cursor, nil
	}
	last := items[len(items)-1]
	return items, &Cursor{LastSeen: last.LastSeen, Id: last.Id}, nil
}

func stateCollection(kind StateKind) string {
	if kind == KindPurchased {
		return DefaultPurchasedCollection
	}
	return DefaultTriedCollection
}

func markedOnField(kind StateKind) string {
	if kind == KindPurchased {
		return "last_purchased_on"
	}
	return "last_tried_on"
}

func (s *FirestoreStore) stateDocs(uid string, kind StateKind) *firestore.CollectionRef {
	return s.client.Collection(usersCollection).Doc(uid).Collection(stateCollection(kind))
}

func (s *FirestoreStore) List(ctx context.Context, uid string, kind StateKind) ([]StateEntry, error) {
	iter := s.stateDocs(uid, kind).Documents(ctx)
	defer iter.Stop()

	entries := []StateEntry{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		data := doc.Data()
		entry := StateEntry{Id: doc.Ref.ID}
		if v, ok := data["url"].(string); ok {
			entry.Url = v
		}
		if v, ok := data["roaster"].(string); ok {
			entry.Roaster = v
		}
		if v, ok := data["title"].(string); ok {
			entry.Title = v
		}
		if v, ok := data[markedOnField(kind)].(time.Time); ok {
			entry.MarkedOn = v.UTC().Format(markedOnLayout)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *FirestoreStore) Upsert(ctx context.Context, uid string, kind StateKind, itemId string, rec StateRecord) error {
	data := map[string]interface{}{
		"doc_id":            itemId,
		"url":               rec.Url,
		"roaster":           rec.Roaster,
		"title":             rec.Title,
		markedOnField(kind): firestore.ServerTimestamp,
	}
	if rec.Notes != "" {
		data["last_notes"] = rec.Notes
	}
	if rec.Rating != 0 {
		data["last_rating"] = rec.Rating
	}
	_, err := s.stateDocs(uid, kind).Doc(itemId).Set(ctx, data, firestore.MergeAll)
	return err
}

func (s *FirestoreStore) Delete(ctx context.Context, uid string, kind StateKind, itemId string) error {
	_, err := s.stateDocs(uid, kind).Doc(itemId).Delete(ctx)
	return err
}

func (s *FirestoreStore) AppendHistory(ctx context.Context, uid string, kind StateKind, itemId string, rec StateRecord) error {
	entry := map[string]interface{}{
		"tried_on": time.Now().UTC().Format(markedOnLayout),
	}
	if rec.Notes != "" {
		entry["notes"] = rec.Notes
	}
	if rec.Rating != 0 {
		entry["rating"] = rec.Rating
	}
	_, err := s.stateDocs(uid, kind).Doc(itemId).Update(ctx, []firestore.Update{
		{Path: "history", Value: firestore.ArrayUnion(entry)},
	})
	return err
}
