package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Database is the integer-keyed store of every world object (§4.1): two
// maps under a writer-priority RWLock, id->object and object->id (the
// latter keyed by pointer identity, giving O(1) id recovery without
// duplicating the id inside a map value that could drift out of sync).
type Database struct {
	lock   *RWLock
	byID   map[ID]*Object
	toID   map[*Object]ID
	lastID ID
}

// NewDatabase returns an empty database.
func NewDatabase() *Database {
	return &Database{
		lock: NewRWLock(),
		byID: map[ID]*Object{},
		toID: map[*Object]ID{},
	}
}

// Add assigns the next id to obj and inserts it into both maps.
func (db *Database) Add(obj *Object) ID {
	defer db.lock.WGuard()()
	db.lastID++
	obj.ID = db.lastID
	db.byID[obj.ID] = obj
	db.toID[obj] = obj.ID
	return obj.ID
}

// Remove deletes obj from both maps. It does not cascade: callers are
// responsible for repairing locators (§4.1).
func (db *Database) Remove(obj *Object) {
	defer db.lock.WGuard()()
	delete(db.byID, obj.ID)
	delete(db.toID, obj)
}

// RemoveByID removes whatever object currently holds id, if any.
func (db *Database) RemoveByID(id ID) {
	defer db.lock.WGuard()()
	obj, ok := db.byID[id]
	if !ok {
		return
	}
	delete(db.byID, id)
	delete(db.toID, obj)
}

// Get returns the object with id, or nil if there is none (a tombstone read,
// §4.1 — missing ids are tolerated here; callers that require the object to
// exist raise ErrObjectNotFound themselves).
func (db *Database) Get(id ID) *Object {
	defer db.lock.RGuard()()
	return db.byID[id]
}

// GetID returns the id of obj, reporting false if it is not in the database.
func (db *Database) GetID(obj *Object) (ID, bool) {
	defer db.lock.RGuard()()
	id, ok := db.toID[obj]
	return id, ok
}

// Search returns every object whose name matches prefix under MatchName
// (§4.5) and whose kind equals want, or every kind if want is empty.
func (db *Database) Search(prefix string, want Kind) []*Object {
	defer db.lock.RGuard()()
	var out []*Object
	for _, obj := range db.byID {
		if want != "" && obj.Kind != want {
			continue
		}
		if prefix == "" || MatchName(prefix, obj.Name) {
			out = append(out, obj)
		}
	}
	return out
}

// ListAll is Search("", kind).
func (db *Database) ListAll(kind Kind) []*Object {
	return db.Search("", kind)
}

// Dbref resolves a "#<digits>" token to the object it names, or nil if the
// token is not of that shape or names nothing.
func (db *Database) Dbref(token string) *Object {
	if !strings.HasPrefix(token, "#") {
		return nil
	}
	n, err := strconv.ParseUint(token[1:], 10, 64)
	if err != nil {
		return nil
	}
	return db.Get(ID(n))
}

// snapshot is the serialized form written by Dump and read by Load: a plain
// id->object mapping, matching §4.1/§4.10's contract (sharing is preserved
// by reference id, not by Go pointer identity, across the boundary).
type snapshot struct {
	LastID  ID              `json:"last_id"`
	Objects map[ID]*Object `json:"objects"`
}

// Dump serializes the database to path atomically: write path.tmp, then
// rename over path, so a crash mid-write never corrupts the previous
// snapshot (§4.1, §4.10, §6).
func (db *Database) Dump(path string) error {
	unlock := db.lock.RGuard()
	snap := snapshot{LastID: db.lastID, Objects: make(map[ID]*Object, len(db.byID))}
	for id, obj := range db.byID {
		snap.Objects[id] = obj
	}
	unlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("dump: encode: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("dump: write temp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("dump: rename: %w", err)
	}
	return nil
}

// Load reads path and replaces the database's contents. A missing file is
// tolerated (the server starts fresh, §6); a corrupt file is reported but
// does not touch the existing in-memory state, so the caller keeps running
// with whatever was loaded before (§7.4).
func (db *Database) Load(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load: read: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("load: decode: %w", err)
	}

	byID := make(map[ID]*Object, len(snap.Objects))
	toID := make(map[*Object]ID, len(snap.Objects))
	maxID := ID(0)
	for id, obj := range snap.Objects {
		obj.backfill()
		byID[id] = obj
		toID[obj] = id
		if id > maxID {
			maxID = id
		}
	}

	lastID := snap.LastID
	if maxID >= lastID {
		lastID = maxID + 1
	}

	defer db.lock.WGuard()()
	db.byID = byID
	db.toID = toID
	db.lastID = lastID
	return nil
}
