/*
 * Copyright 2024 The EdgeCache Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package queue

import (
	"encoding/json"
	"path/filepath"
	"strconv"
	"testing"
)

var testOpTypes = []string{"meal", "expense"}

func newTestStore(t *testing.T) *Store {
	s, err := OpenStore(filepath.Join(t.TempDir(), "queue.db"), testOpTypes)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_InsertListDelete(t *testing.T) {
	s := newTestStore(t)

	rec := NewRecord("meal", json.RawMessage(`{"name":"pasta"}`))
	key, err := s.Insert(rec)
	if err != nil {
		t.Fatal(err)
	}

	entries, err := s.List("meal")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry got %d", len(entries))
	}
	if entries[0].Key != key {
		t.Errorf("expected key %s got %s", key, entries[0].Key)
	}
	if entries[0].Record.ID != rec.ID {
		t.Errorf("expected id %s got %s", rec.ID, entries[0].Record.ID)
	}

	if err := s.Delete("meal", key); err != nil {
		t.Error(err)
	}
	n, err := s.Count("meal")
	if err != nil {
		t.Error(err)
	}
	if n != 0 {
		t.Errorf("expected 0 records got %d", n)
	}
}

func TestStore_ListCreationOrder(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 10; i++ {
		rec := NewRecord("meal", json.RawMessage(`{"n":`+strconv.Itoa(i)+`}`))
		if _, err := s.Insert(rec); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := s.List("meal")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 10 {
		t.Fatalf("expected 10 entries got %d", len(entries))
	}
	for i, e := range entries {
		expected := `{"n":` + strconv.Itoa(i) + `}`
		if string(e.Record.Data) != expected {
			t.Errorf("entry %d out of order: expected %s got %s", i, expected, e.Record.Data)
		}
	}
}

func TestStore_DeleteMissingIsNoop(t *testing.T) {
	s := newTestStore(t)
	if err := s.Delete("meal", "absent"); err != nil {
		t.Error(err)
	}
}

func TestStore_UnknownType(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Insert(NewRecord("unknown", json.RawMessage(`{}`))); err == nil {
		t.Error("expected insert error for unknown type")
	}
	if _, err := s.List("unknown"); err == nil {
		t.Error("expected list error for unknown type")
	}
}

func TestStore_SurvivesReopen(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "queue.db")
	s, err := OpenStore(filename, testOpTypes)
	if err != nil {
		t.Fatal(err)
	}
	if _, err = s.Insert(NewRecord("expense", json.RawMessage(`{"amount":12}`))); err != nil {
		t.Fatal(err)
	}
	if err = s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = OpenStore(filename, testOpTypes)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	n, err := s.Count("expense")
	if err != nil {
		t.Error(err)
	}
	if n != 1 {
		t.Errorf("expected 1 record after reopen got %d", n)
	}
}
