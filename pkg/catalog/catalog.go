// Package catalog keeps ingested control networks in a pebble database so they
// can be listed and queried point by point without re-reading the source file.
//
// Keys:
//
//	n/<key>            JSON Entry describing one ingested network
//	p/<key>/<pointID>  the point's wire message, encoded with the network's schema
//
// Network keys are KSUIDs, so entries list in ingestion order.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/ssargent/isiscnet/pkg/codec"
	"github.com/ssargent/isiscnet/pkg/diag"
	"github.com/ssargent/isiscnet/pkg/errs"
	"github.com/ssargent/isiscnet/pkg/schema"
	"github.com/ssargent/isiscnet/pkg/table"
)

const (
	networkPrefix = "n/"
	pointPrefix   = "p/"
)

// Entry describes one ingested network.
type Entry struct {
	Key         string             `json:"key"`
	Source      string             `json:"source"`
	Version     schema.Version     `json:"version"`
	Info        schema.NetworkInfo `json:"info"`
	Points      int                `json:"points"`
	Measures    int                `json:"measures"`
	IngestedAt  time.Time          `json:"ingested_at"`
	Diagnostics []diag.Diagnostic  `json:"diagnostics,omitempty"`
}

// Catalog is a pebble-backed store of networks. It is safe for concurrent use.
type Catalog struct {
	db     *pebble.DB
	logger *zap.Logger
	now    func() time.Time
}

// Open opens or creates the catalog in dir.
func Open(dir string, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("%w: open catalog %s: %w", errs.ErrStorageUnavailable, dir, err)
	}
	return &Catalog{db: db, logger: logger, now: time.Now}, nil
}

// Close closes the underlying database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

func networkKey(key string) []byte {
	return []byte(networkPrefix + key)
}

func pointKey(key, pointID string) []byte {
	return []byte(pointPrefix + key + "/" + pointID)
}

// prefixBounds returns the iterator bounds covering every key starting with p.
func prefixBounds(p string) *pebble.IterOptions {
	upper := []byte(p)
	upper[len(upper)-1]++
	return &pebble.IterOptions{LowerBound: []byte(p), UpperBound: upper}
}

// Ingest stores frame under a new key and returns its entry. Points are
// re-encoded with the frame's schema; the point log is not kept, and each
// dropped log shows up in the entry's diagnostics.
func (c *Catalog) Ingest(frame *table.Frame, source string) (Entry, error) {
	s, err := schema.Lookup(frame.Version)
	if err != nil {
		return Entry{}, err
	}
	points, err := table.NewMapper(s).Group(frame.Rows)
	if err != nil {
		return Entry{}, err
	}

	collector := diag.NewCollector(c.logger)
	pc := codec.NewPointCodec(s, collector)
	entry := Entry{
		Key:        ksuid.New().String(),
		Source:     source,
		Version:    frame.Version,
		Info:       frame.Info,
		IngestedAt: c.now().UTC(),
	}

	batch := c.db.NewBatch()
	defer batch.Close()
	for _, p := range points {
		b, err := pc.EncodePoint(p)
		if err != nil {
			return Entry{}, err
		}
		if err := batch.Set(pointKey(entry.Key, p.ID()), b, nil); err != nil {
			return Entry{}, fmt.Errorf("%w: %w", errs.ErrStorageUnavailable, err)
		}
		entry.Points++
		entry.Measures += len(p.Measures)
	}
	if collector.Len() > 0 {
		entry.Diagnostics = collector.Diagnostics()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return Entry{}, fmt.Errorf("marshal entry: %w", err)
	}
	if err := batch.Set(networkKey(entry.Key), data, nil); err != nil {
		return Entry{}, fmt.Errorf("%w: %w", errs.ErrStorageUnavailable, err)
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return Entry{}, fmt.Errorf("%w: %w", errs.ErrStorageUnavailable, err)
	}

	c.logger.Info("network ingested",
		zap.String("key", entry.Key),
		zap.String("source", source),
		zap.Int("points", entry.Points),
		zap.Int("measures", entry.Measures))
	return entry, nil
}

// Networks lists every entry in ingestion order.
func (c *Catalog) Networks() ([]Entry, error) {
	iter, err := c.db.NewIter(prefixBounds(networkPrefix))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrStorageUnavailable, err)
	}
	defer iter.Close()

	entries := []Entry{}
	for iter.First(); iter.Valid(); iter.Next() {
		var e Entry
		if err := json.Unmarshal(iter.Value(), &e); err != nil {
			return nil, fmt.Errorf("decode entry %s: %w", iter.Key(), err)
		}
		entries = append(entries, e)
	}
	return entries, iter.Error()
}

// Network returns the entry stored under key.
func (c *Catalog) Network(key string) (Entry, error) {
	data, err := c.get(networkKey(key))
	if err != nil {
		return Entry{}, fmt.Errorf("network %s: %w", key, err)
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, fmt.Errorf("decode entry %s: %w", key, err)
	}
	return e, nil
}

// PointIDs returns the ids of a network's points in byte order.
func (c *Catalog) PointIDs(key string) ([]string, error) {
	if _, err := c.Network(key); err != nil {
		return nil, err
	}
	prefix := pointPrefix + key + "/"
	iter, err := c.db.NewIter(prefixBounds(prefix))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrStorageUnavailable, err)
	}
	defer iter.Close()

	ids := []string{}
	for iter.First(); iter.Valid(); iter.Next() {
		ids = append(ids, string(iter.Key()[len(prefix):]))
	}
	return ids, iter.Error()
}

// Point decodes one point of a network.
func (c *Catalog) Point(key, pointID string) (schema.Point, error) {
	e, err := c.Network(key)
	if err != nil {
		return schema.Point{}, err
	}
	data, err := c.get(pointKey(key, pointID))
	if err != nil {
		return schema.Point{}, fmt.Errorf("point %q: %w", pointID, err)
	}
	s, err := schema.Lookup(e.Version)
	if err != nil {
		return schema.Point{}, err
	}
	return codec.NewPointCodec(s, nil).DecodePoint(data)
}

// Delete removes a network and all of its points.
func (c *Catalog) Delete(key string) error {
	if _, err := c.Network(key); err != nil {
		return err
	}
	bounds := prefixBounds(pointPrefix + key + "/")
	batch := c.db.NewBatch()
	defer batch.Close()
	if err := batch.DeleteRange(bounds.LowerBound, bounds.UpperBound, nil); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrStorageUnavailable, err)
	}
	if err := batch.Delete(networkKey(key), nil); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrStorageUnavailable, err)
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrStorageUnavailable, err)
	}
	c.logger.Info("network deleted", zap.String("key", key))
	return nil
}

// get copies the value for k out of pebble.
func (c *Catalog) get(k []byte) ([]byte, error) {
	data, closer, err := c.db.Get(k)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrStorageUnavailable, err)
	}
	defer closer.Close()

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}
