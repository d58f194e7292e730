package domain

import "time"

// ItemSnapshot is the durable form of the item cache: a timestamped
// full copy of the last fetched item set. An empty Items slice is
// never treated as a valid snapshot.
type ItemSnapshot struct {
	Items     []Item    `json:"items"`
	Timestamp time.Time `json:"timestamp"`
}

// AssetSnapshot is the durable form of the asset cache. The timestamp
// is shared by the whole map: invalidation is coarse, not per-entry.
type AssetSnapshot struct {
	URLs      map[string]string `json:"urls"`
	Timestamp time.Time         `json:"timestamp"`
}
