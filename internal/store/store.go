// Package store is a small JSON key-value store: one file per named
// collection, each file an object mapping string keys to arbitrary JSON
// values. Every mutation is a full read-modify-write of the collection
// file; an absent file is an empty collection and is recreated on first
// write.
//
// A per-collection mutex serializes mutations within this process, so
// Increment and Push are linearizable locally. Nothing coordinates across
// processes; external writers still race at the file level.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
)

// Store is a directory of JSON collections.
type Store struct {
	path string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Open creates the store directory if needed and returns a Store.
func Open(path string) (*Store, error) {
	if path == "" {
		path = "./database"
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &Store{path: path, locks: make(map[string]*sync.Mutex)}, nil
}

// Path returns the store's directory.
func (s *Store) Path() string { return s.path }

func (s *Store) lock(collection string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[collection]
	if !ok {
		l = &sync.Mutex{}
		s.locks[collection] = l
	}
	return l
}

func (s *Store) file(collection string) string {
	return filepath.Join(s.path, collection+".json")
}

// read loads a collection, treating a missing file as empty.
func (s *Store) read(collection string) (map[string]any, error) {
	data, err := os.ReadFile(s.file(collection))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("read collection %s: %w", collection, err)
	}
	out := map[string]any{}
	if len(data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse collection %s: %w", collection, err)
	}
	return out, nil
}

func (s *Store) write(collection string, data map[string]any) error {
	blob, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode collection %s: %w", collection, err)
	}
	if err := os.WriteFile(s.file(collection), blob, 0o644); err != nil {
		return fmt.Errorf("write collection %s: %w", collection, err)
	}
	return nil
}

// Get returns the value stored under key, or nil when absent. Values come
// back in encoding/json's generic form (map[string]any, []any, float64...).
func (s *Store) Get(collection, key string) (any, error) {
	l := s.lock(collection)
	l.Lock()
	defer l.Unlock()

	data, err := s.read(collection)
	if err != nil {
		return nil, err
	}
	return data[key], nil
}

// Set stores a value under key.
func (s *Store) Set(collection, key string, value any) error {
	l := s.lock(collection)
	l.Lock()
	defer l.Unlock()

	data, err := s.read(collection)
	if err != nil {
		return err
	}
	data[key] = toJSON(value)
	return s.write(collection, data)
}

// Has reports whether key exists in the collection.
func (s *Store) Has(collection, key string) (bool, error) {
	l := s.lock(collection)
	l.Lock()
	defer l.Unlock()

	data, err := s.read(collection)
	if err != nil {
		return false, err
	}
	_, ok := data[key]
	return ok, nil
}

// Delete removes key from the collection.
func (s *Store) Delete(collection, key string) error {
	l := s.lock(collection)
	l.Lock()
	defer l.Unlock()

	data, err := s.read(collection)
	if err != nil {
		return err
	}
	delete(data, key)
	return s.write(collection, data)
}

// All returns the full contents of a collection.
func (s *Store) All(collection string) (map[string]any, error) {
	l := s.lock(collection)
	l.Lock()
	defer l.Unlock()
	return s.read(collection)
}

// Clear removes every key from a collection.
func (s *Store) Clear(collection string) error {
	l := s.lock(collection)
	l.Lock()
	defer l.Unlock()
	return s.write(collection, map[string]any{})
}

// Update applies fn to the current value of key (nil when absent) and
// stores the result. Returns the updated value.
func (s *Store) Update(collection, key string, fn func(any) any) (any, error) {
	l := s.lock(collection)
	l.Lock()
	defer l.Unlock()

	data, err := s.read(collection)
	if err != nil {
		return nil, err
	}
	updated := toJSON(fn(data[key]))
	data[key] = updated
	if err := s.write(collection, data); err != nil {
		return nil, err
	}
	return updated, nil
}

// Increment adds amount to a numeric field of the object stored under key,
// creating the object and the field as needed. Returns the updated object.
func (s *Store) Increment(collection, key, field string, amount float64) (map[string]any, error) {
	updated, err := s.Update(collection, key, func(cur any) any {
		obj, ok := cur.(map[string]any)
		if !ok {
			obj = map[string]any{}
		}
		n, _ := obj[field].(float64)
		obj[field] = n + amount
		return obj
	})
	if err != nil {
		return nil, err
	}
	return updated.(map[string]any), nil
}

// Push appends a value to the array stored under key, creating the array
// as needed. Returns the updated array. A non-array value under key is
// left untouched.
func (s *Store) Push(collection, key string, value any) ([]any, error) {
	updated, err := s.Update(collection, key, func(cur any) any {
		switch arr := cur.(type) {
		case nil:
			return []any{toJSON(value)}
		case []any:
			return append(arr, toJSON(value))
		default:
			return cur
		}
	})
	if err != nil {
		return nil, err
	}
	arr, _ := updated.([]any)
	return arr, nil
}

// Pull removes every element deep-equal to value from the array under key.
// Returns the updated array.
func (s *Store) Pull(collection, key string, value any) ([]any, error) {
	want := toJSON(value)
	updated, err := s.Update(collection, key, func(cur any) any {
		arr, ok := cur.([]any)
		if !ok {
			return cur
		}
		kept := make([]any, 0, len(arr))
		for _, item := range arr {
			if !reflect.DeepEqual(item, want) {
				kept = append(kept, item)
			}
		}
		return kept
	})
	if err != nil {
		return nil, err
	}
	arr, _ := updated.([]any)
	return arr, nil
}

// toJSON round-trips a value through encoding/json so stored and freshly
// loaded values compare equal (ints become float64, structs become maps).
func toJSON(v any) any {
	if v == nil {
		return nil
	}
	switch v.(type) {
	case string, bool, float64, map[string]any, []any:
		return v
	}
	blob, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(blob, &out); err != nil {
		return v
	}
	return out
}
