package store

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore stores each collection as a Cloud Firestore collection. The
// client honours FIRESTORE_EMULATOR_HOST.
type Firestore struct {
	client *firestore.Client
}

func NewFirestore(ctx context.Context, projectID string, opts ...option.ClientOption) (*Firestore, error) {
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return &Firestore{client: client}, nil
}

func (f *Firestore) query(collection string, q Query) firestore.Query {
	query := f.client.Collection(collection).Query
	for _, flt := range q.Filters {
		query = query.Where(flt.Field, "==", flt.Value)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	return query
}

func (f *Firestore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	snaps, err := f.query(collection, q).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	res := make([]Document, 0, len(snaps))
	for _, snap := range snaps {
		res = append(res, Document{ID: snap.Ref.ID, Data: snap.Data()})
	}
	return res, nil
}

func (f *Firestore) Get(ctx context.Context, collection, id string) (Document, error) {
	return f.get(ctx, f.client.Collection(collection).Doc(id))
}

func (f *Firestore) get(ctx context.Context, ref *firestore.DocumentRef) (Document, error) {
	snap, err := ref.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("get %s: %w", ref.Path, err)
	}
	return Document{ID: ref.ID, Data: snap.Data()}, nil
}

func (f *Firestore) Add(ctx context.Context, collection string, data map[string]any) (Document, error) {
	ref, _, err := f.client.Collection(collection).Add(ctx, firestoreData(data))
	if err != nil {
		return Document{}, fmt.Errorf("add %s: %w", collection, err)
	}
	return f.get(ctx, ref)
}

func (f *Firestore) AddUnique(ctx context.Context, collection, field string, data map[string]any) (Document, error) {
	coll := f.client.Collection(collection)
	ref := coll.NewDoc()
	err := f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existing, err := tx.Documents(coll.Where(field, "==", data[field]).Limit(1)).GetAll()
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return ErrConflict
		}
		return tx.Create(ref, firestoreData(data))
	})
	if errors.Is(err, ErrConflict) {
		return Document{}, ErrConflict
	}
	if err != nil {
		return Document{}, fmt.Errorf("add unique %s: %w", collection, err)
	}
	return f.get(ctx, ref)
}

func (f *Firestore) Update(ctx context.Context, collection, id string, data map[string]any) (Document, error) {
	ref := f.client.Collection(collection).Doc(id)
	updates := make([]firestore.Update, 0, len(data))
	for k, v := range firestoreData(data) {
		updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{k}, Value: v})
	}
	if _, err := ref.Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("update %s: %w", ref.Path, err)
	}
	return f.get(ctx, ref)
}

func (f *Firestore) Delete(ctx context.Context, collection, id string) error {
	ref := f.client.Collection(collection).Doc(id)
	if _, err := ref.Delete(ctx, firestore.Exists); err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("delete %s: %w", ref.Path, err)
	}
	return nil
}

func (f *Firestore) Ping(ctx context.Context) error {
	_, err := f.client.Collections(ctx).Next()
	if err != nil && !errors.Is(err, iterator.Done) {
		return err
	}
	return nil
}

func (f *Firestore) Close() error {
	return f.client.Close()
}

func firestoreData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if _, ok := v.(serverTimestamp); ok {
			v = firestore.ServerTimestamp
		}
		out[k] = v
	}
	return out
}
