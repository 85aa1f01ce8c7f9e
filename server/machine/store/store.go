// Package store persists the state of placed machines in a LevelDB database, keyed by their position.
package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"

	"github.com/df-mc/goleveldb/leveldb"
	"github.com/df-mc/goleveldb/leveldb/opt"
	"github.com/df-mc/goleveldb/leveldb/storage"
	"github.com/df-mc/goleveldb/leveldb/util"
	"github.com/dm-vev/grindstone/server/machine"
	"github.com/dm-vev/grindstone/server/machine/event"
	"github.com/google/uuid"
)

// ErrNotFound is returned by Load if no machine is stored at a position.
var ErrNotFound = errors.New("machine not found")

// keyPrefix is the prefix of every machine key in the database.
const keyPrefix = "machine"

// Record is a machine as stored in the database.
type Record struct {
	// Pos is the position of the machine.
	Pos event.Pos
	// Kind is the identifier of the machine type, such as "Grinder".
	Kind string
	// ID uniquely identifies the machine across moves and reloads.
	ID uuid.UUID
	// Data is the NBT state of the machine.
	Data map[string]any
}

// Config holds the options of a DB.
type Config struct {
	// Log is the logger of the DB. If nil, slog.Default() is used.
	Log *slog.Logger
	// ReadOnly opens the database without write access.
	ReadOnly bool
}

// Open opens the database in the directory passed, creating it if it does not yet exist.
func (conf Config) Open(dir string) (*DB, error) {
	ldb, err := leveldb.OpenFile(dir, &opt.Options{ReadOnly: conf.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("open machine db: %w", err)
	}
	return conf.wrap(ldb), nil
}

// OpenMemory opens a database that is kept in memory only.
func (conf Config) OpenMemory() (*DB, error) {
	ldb, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("open machine db: %w", err)
	}
	return conf.wrap(ldb), nil
}

func (conf Config) wrap(ldb *leveldb.DB) *DB {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	return &DB{ldb: ldb, log: conf.Log.With("subsystem", "machine.store")}
}

// DB stores machine records. It is safe for concurrent use.
type DB struct {
	ldb *leveldb.DB
	log *slog.Logger
}

// Save stores r, overwriting any record at the same position.
func (db *DB) Save(r Record) error {
	b, err := encode(r)
	if err != nil {
		return err
	}
	if err := db.ldb.Put(key(r.Pos), b, nil); err != nil {
		return fmt.Errorf("save machine at %v: %w", r.Pos, err)
	}
	return nil
}

// SaveAll stores all records passed in a single batch. Records that cannot be encoded are logged and left
// out of the batch, and their errors are returned joined once the others were written.
func (db *DB) SaveAll(records []Record) error {
	batch := new(leveldb.Batch)
	var errs []error
	for _, r := range records {
		b, err := encode(r)
		if err != nil {
			db.log.Error("skip machine record", "x", r.Pos[0], "y", r.Pos[1], "z", r.Pos[2], "err", err)
			errs = append(errs, err)
			continue
		}
		batch.Put(key(r.Pos), b)
	}
	if err := db.ldb.Write(batch, nil); err != nil {
		return fmt.Errorf("save %v machines: %w", batch.Len(), err)
	}
	return errors.Join(errs...)
}

// Load returns the record stored at pos. ErrNotFound is returned if there is none.
func (db *DB) Load(pos event.Pos) (Record, error) {
	b, err := db.ldb.Get(key(pos), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return Record{}, ErrNotFound
	} else if err != nil {
		return Record{}, fmt.Errorf("load machine at %v: %w", pos, err)
	}
	return decode(pos, b)
}

// Delete removes the record at pos. Deleting a position without record is not an error.
func (db *DB) Delete(pos event.Pos) error {
	if err := db.ldb.Delete(key(pos), nil); err != nil {
		return fmt.Errorf("delete machine at %v: %w", pos, err)
	}
	return nil
}

// Each calls f for every stored record in key order until f returns false. Records that cannot be decoded
// are logged and skipped.
func (db *DB) Each(f func(r Record) bool) error {
	it := db.ldb.NewIterator(util.BytesPrefix([]byte(keyPrefix)), nil)
	defer it.Release()
	for it.Next() {
		pos, ok := parseKey(it.Key())
		if !ok {
			continue
		}
		r, err := decode(pos, it.Value())
		if err != nil {
			db.log.Error("skip machine record", "x", pos[0], "y", pos[1], "z", pos[2], "err", err)
			continue
		}
		if !f(r) {
			break
		}
	}
	if err := it.Error(); err != nil {
		return fmt.Errorf("iterate machines: %w", err)
	}
	return nil
}

// Close closes the database.
func (db *DB) Close() error {
	return db.ldb.Close()
}

func encode(r Record) ([]byte, error) {
	data := r.Data
	if data == nil {
		data = map[string]any{}
	}
	b, err := machine.Marshal(map[string]any{"id": r.Kind, "uuid": r.ID.String(), "data": data})
	if err != nil {
		return nil, fmt.Errorf("encode machine at %v: %w", r.Pos, err)
	}
	return b, nil
}

func decode(pos event.Pos, b []byte) (Record, error) {
	m, err := machine.Unmarshal(b)
	if err != nil {
		return Record{}, fmt.Errorf("decode machine at %v: %w", pos, err)
	}
	r := Record{Pos: pos, Kind: machine.String(m, "id"), Data: machine.Map(m, "data")}
	if s := machine.String(m, "uuid"); s != "" {
		if r.ID, err = uuid.Parse(s); err != nil {
			return Record{}, fmt.Errorf("decode machine at %v: uuid: %w", pos, err)
		}
	}
	if r.Data == nil {
		r.Data = map[string]any{}
	}
	return r, nil
}

// key returns the database key of pos: the key prefix followed by the little endian coordinates.
func key(pos event.Pos) []byte {
	k := make([]byte, len(keyPrefix), len(keyPrefix)+12)
	copy(k, keyPrefix)
	k = binary.LittleEndian.AppendUint32(k, uint32(int32(pos[0])))
	k = binary.LittleEndian.AppendUint32(k, uint32(int32(pos[1])))
	return binary.LittleEndian.AppendUint32(k, uint32(int32(pos[2])))
}

func parseKey(k []byte) (event.Pos, bool) {
	if len(k) != len(keyPrefix)+12 {
		return event.Pos{}, false
	}
	k = k[len(keyPrefix):]
	return event.Pos{
		int(int32(binary.LittleEndian.Uint32(k))),
		int(int32(binary.LittleEndian.Uint32(k[4:]))),
		int(int32(binary.LittleEndian.Uint32(k[8:]))),
	}, true
}
