package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-kivik/kivik/v4"
)

// SnapshotStore persists the durable cache blobs. Caches are
// disposable: everything stored here is reconstructible from the
// remote repository.
type SnapshotStore interface {
	Get(key string, out interface{}) (bool, error)
	Put(key string, doc interface{}) error
	Delete(key string) error
}

type couchSnapshotStore struct {
	client *kivik.Client
	dbName string
}

func NewCouchSnapshotStore(client *kivik.Client, dbName string) SnapshotStore {
	return &couchSnapshotStore{
		client: client,
		dbName: dbName,
	}
}

func snapshotDocID(key string) string {
	return fmt.Sprintf("snapshot:%s", key)
}

func (r *couchSnapshotStore) Get(key string, out interface{}) (bool, error) {
	db := r.client.DB(r.dbName)

	row := db.Get(context.Background(), snapshotDocID(key))
	if err := row.ScanDoc(out); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to read snapshot %s: %w", key, err)
	}

	return true, nil
}

func (r *couchSnapshotStore) Put(key string, doc interface{}) error {
	db := r.client.DB(r.dbName)
	docID := snapshotDocID(key)

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot %s: %w", key, err)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(data, &body); err != nil {
		return fmt.Errorf("failed to encode snapshot %s: %w", key, err)
	}

	var existing map[string]interface{}
	row := db.Get(context.Background(), docID)
	if err := row.ScanDoc(&existing); err == nil {
		body["_rev"] = existing["_rev"]
	}

	if _, err := db.Put(context.Background(), docID, body); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", key, err)
	}

	return nil
}

func (r *couchSnapshotStore) Delete(key string) error {
	db := r.client.DB(r.dbName)
	docID := snapshotDocID(key)

	var existing map[string]interface{}
	row := db.Get(context.Background(), docID)
	if err := row.ScanDoc(&existing); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete snapshot %s: %w", key, err)
	}

	rev, _ := existing["_rev"].(string)
	if _, err := db.Delete(context.Background(), docID, rev); err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", key, err)
	}

	return nil
}
