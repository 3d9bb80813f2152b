package store_test

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"
	"testing"

	"github.com/jacentio/tablemock/store"
)

// --- Helpers ---

func rec(pk, rk, payload string) store.Record {
	return store.Record{PartitionKey: pk, RowKey: rk, Payload: []byte(payload)}
}

func collect(seq iter.Seq[store.Record]) []store.Record {
	return slices.Collect(seq)
}

func rowKeys(seq iter.Seq[store.Record]) []string {
	var keys []string
	for r := range seq {
		keys = append(keys, r.RowKey)
	}
	return keys
}

func newStore() *store.Store {
	return store.New(store.DefaultConfig())
}

func seed(t *testing.T, s *store.Store, table string, records ...store.Record) []store.Record {
	t.Helper()
	if err := s.Insert(table, records); err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}
	return records
}

// --- Catalog ---

func TestCreateTable_Idempotent(t *testing.T) {
	s := newStore()

	if !s.CreateTable("orders") {
		t.Error("expected first CreateTable to return true")
	}
	if s.CreateTable("orders") {
		t.Error("expected second CreateTable to return false")
	}
}

func TestDeleteTable_NeverCreated(t *testing.T) {
	s := newStore()
	if s.DeleteTable("missing") {
		t.Error("expected DeleteTable on a missing table to return false")
	}
}

func TestDeleteTable_RemovesRecords(t *testing.T) {
	s := newStore()
	seed(t, s, "orders", rec("p", "a", "x"))

	if !s.DeleteTable("orders") {
		t.Fatal("expected DeleteTable to return true")
	}
	if got := collect(s.GetAll("orders")); len(got) != 0 {
		t.Errorf("expected no records after DeleteTable, got %d", len(got))
	}
	if !s.CreateTable("orders") {
		t.Error("expected table to be re-creatable after delete")
	}
	if got := collect(s.GetAll("orders")); len(got) != 0 {
		t.Errorf("expected re-created table to be empty, got %d", len(got))
	}
}

func TestListTables(t *testing.T) {
	s := newStore()
	s.CreateTable("b")
	s.CreateTable("a")
	seed(t, s, "c", rec("p", "r", "x"))

	got := s.ListTables()
	want := []string{"a", "b", "c"}
	if !slices.Equal(got, want) {
		t.Errorf("expected tables %v, got %v", want, got)
	}
}

func TestListTables_Snapshot(t *testing.T) {
	s := newStore()
	s.CreateTable("a")

	names := s.ListTables()
	s.CreateTable("b")

	if len(names) != 1 {
		t.Errorf("expected snapshot to keep 1 name, got %v", names)
	}
}

// --- Insert ---

func TestInsert_CreatesTable(t *testing.T) {
	s := newStore()
	seed(t, s, "orders", rec("p", "r", "x"))

	if !slices.Contains(s.ListTables(), "orders") {
		t.Errorf("expected ListTables to include 'orders', got %v", s.ListTables())
	}
}

func TestInsert_AssignsDistinctETags(t *testing.T) {
	s := newStore()
	records := seed(t, s, "orders", rec("p", "a", "x"), rec("p", "b", "y"))

	if records[0].ETag.IsZero() || records[1].ETag.IsZero() {
		t.Fatal("expected ETags to be written back into the batch")
	}
	if records[0].ETag == records[1].ETag {
		t.Error("expected each record to get its own ETag")
	}
}

func TestInsert_DuplicateKeysInBatch(t *testing.T) {
	s := newStore()

	err := s.Insert("orders", []store.Record{rec("p", "a", "x"), rec("p", "a", "y")})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if got := collect(s.GetAll("orders")); len(got) != 0 {
		t.Errorf("expected no records after rejected batch, got %d", len(got))
	}
}

func TestInsert_ExistingKey(t *testing.T) {
	s := newStore()
	original := seed(t, s, "orders", rec("p", "a", "x"))[0]

	err := s.Insert("orders", []store.Record{rec("p", "b", "new"), rec("p", "a", "y")})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	got := collect(s.GetAll("orders"))
	if len(got) != 1 {
		t.Fatalf("expected batch to be rejected as a whole, got %d records", len(got))
	}
	if got[0].ETag != original.ETag {
		t.Error("expected pre-existing ETag to be unchanged")
	}
	if string(got[0].Payload) != "x" {
		t.Errorf("expected payload 'x', got %q", got[0].Payload)
	}
}

func TestInsert_SameRowKeyDifferentPartitions(t *testing.T) {
	s := newStore()
	seed(t, s, "orders", rec("p1", "a", "x"), rec("p2", "a", "y"))

	if got := collect(s.GetAll("orders")); len(got) != 2 {
		t.Errorf("expected 2 records, got %d", len(got))
	}
}

func TestInsert_CopiesPayload(t *testing.T) {
	s := newStore()
	payload := []byte("x")
	seed(t, s, "orders", store.Record{PartitionKey: "p", RowKey: "a", Payload: payload})

	payload[0] = 'z'

	got := collect(s.GetAll("orders"))
	if string(got[0].Payload) != "x" {
		t.Errorf("expected stored payload to be independent of caller, got %q", got[0].Payload)
	}
}

// --- Update ---

func TestUpdate_TableNotFound(t *testing.T) {
	s := newStore()

	err := s.Update("missing", []store.Record{rec("p", "a", "x")}, false)
	if !errors.Is(err, store.ErrTableNotFound) {
		t.Errorf("expected ErrTableNotFound, got %v", err)
	}
}

func TestUpdate_StaleETag(t *testing.T) {
	s := newStore()
	stored := seed(t, s, "orders", rec("p", "a", "x"))[0]

	update := []store.Record{{PartitionKey: "p", RowKey: "a", ETag: stored.ETag, Payload: []byte("x1")}}
	if err := s.Update("orders", update, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stale := []store.Record{{PartitionKey: "p", RowKey: "a", ETag: stored.ETag, Payload: []byte("x2")}}
	err := s.Update("orders", stale, false)
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	got := collect(s.GetAll("orders"))[0]
	if string(got.Payload) != "x1" || got.ETag != update[0].ETag {
		t.Errorf("expected record unchanged after stale update, got %q / %v", got.Payload, got.ETag)
	}
}

func TestUpdate_ForceIgnoresETag(t *testing.T) {
	s := newStore()
	stored := seed(t, s, "orders", rec("p", "a", "x"))[0]

	forced := []store.Record{rec("p", "a", "x2")}
	if err := s.Update("orders", forced, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := collect(s.GetAll("orders"))[0]
	if string(got.Payload) != "x2" {
		t.Errorf("expected payload 'x2', got %q", got.Payload)
	}
	if got.ETag == stored.ETag {
		t.Error("expected a new ETag after forced update")
	}
	if got.ETag != forced[0].ETag {
		t.Error("expected new ETag to be written back into the batch")
	}
}

func TestUpdate_MissingKey(t *testing.T) {
	s := newStore()
	seed(t, s, "orders", rec("p", "a", "x"))

	err := s.Update("orders", []store.Record{rec("p", "b", "y")}, true)
	if !errors.Is(err, store.ErrConflict) {
		t.Errorf("expected ErrConflict for missing key, got %v", err)
	}
}

func TestUpdate_DuplicateKeysInBatch(t *testing.T) {
	s := newStore()
	stored := seed(t, s, "orders", rec("p", "a", "x"))[0]

	batch := []store.Record{
		{PartitionKey: "p", RowKey: "a", ETag: stored.ETag, Payload: []byte("1")},
		{PartitionKey: "p", RowKey: "a", ETag: stored.ETag, Payload: []byte("2")},
	}
	err := s.Update("orders", batch, false)
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if got := collect(s.GetAll("orders"))[0]; string(got.Payload) != "x" {
		t.Errorf("expected record unchanged, got %q", got.Payload)
	}
}

func TestUpdate_BatchAtomic(t *testing.T) {
	s := newStore()
	stored := seed(t, s, "orders", rec("p", "a", "x"), rec("p", "b", "y"))

	batch := []store.Record{
		{PartitionKey: "p", RowKey: "a", ETag: stored[0].ETag, Payload: []byte("x2")},
		{PartitionKey: "p", RowKey: "b", ETag: stored[0].ETag, Payload: []byte("y2")},
	}
	if err := s.Update("orders", batch, false); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	for _, r := range collect(s.GetAll("orders")) {
		if string(r.Payload) == "x2" || string(r.Payload) == "y2" {
			t.Errorf("expected no partial application, found %q", r.Payload)
		}
	}
}

// --- Upsert ---

func TestUpsert_InsertsAndReplaces(t *testing.T) {
	s := newStore()
	stored := seed(t, s, "orders", rec("p", "a", "x"))[0]

	batch := []store.Record{rec("p", "a", "x2"), rec("p", "b", "y")}
	if err := s.Upsert("orders", batch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := collect(s.GetPartition("orders", "p"))
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if string(got[0].Payload) != "x2" {
		t.Errorf("expected payload 'x2', got %q", got[0].Payload)
	}
	if got[0].ETag == stored.ETag {
		t.Error("expected a new ETag after upsert")
	}
}

func TestUpsert_CreatesTable(t *testing.T) {
	s := newStore()
	if err := s.Upsert("orders", []store.Record{rec("p", "a", "x")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Contains(s.ListTables(), "orders") {
		t.Error("expected upsert to create the table")
	}
}

func TestUpsert_DuplicateKeysLeaveDeletionsApplied(t *testing.T) {
	s := newStore()
	seed(t, s, "orders", rec("p", "a", "x"), rec("p", "b", "y"))

	err := s.Upsert("orders", []store.Record{rec("p", "a", "1"), rec("p", "a", "2")})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	got := rowKeys(s.GetPartition("orders", "p"))
	if !slices.Equal(got, []string{"b"}) {
		t.Errorf("expected delete step to stay applied leaving [b], got %v", got)
	}
}

// --- Delete ---

func TestDelete_ByKeys(t *testing.T) {
	s := newStore()
	seed(t, s, "orders", rec("p", "a", "x"), rec("p", "b", "y"), rec("q", "a", "z"))

	s.Delete("orders", "p", "a", "missing")

	got := collect(s.GetAll("orders"))
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].Key() != (store.Key{PartitionKey: "p", RowKey: "b"}) {
		t.Errorf("expected p/b to survive, got %v", got[0].Key())
	}
	if got[1].Key() != (store.Key{PartitionKey: "q", RowKey: "a"}) {
		t.Errorf("expected q/a to survive, got %v", got[1].Key())
	}
}

func TestDelete_MissingTable(t *testing.T) {
	s := newStore()
	s.Delete("missing", "p", "a")

	if len(s.ListTables()) != 0 {
		t.Error("expected delete on a missing table not to create it")
	}
}

func TestDeleteEntities(t *testing.T) {
	tests := []struct {
		name      string
		staleETag bool
		force     bool
		wantErr   bool
		remaining int
	}{
		{"matching etag", false, false, false, 1},
		{"stale etag", true, false, true, 2},
		{"stale etag forced", true, true, false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore()
			stored := seed(t, s, "orders", rec("p", "a", "x"), rec("p", "b", "y"))

			target := stored[0]
			if tt.staleETag {
				target.ETag = stored[1].ETag
			}

			err := s.DeleteEntities("orders", []store.Record{target}, tt.force)
			if tt.wantErr && !errors.Is(err, store.ErrConflict) {
				t.Errorf("expected ErrConflict, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if got := collect(s.GetAll("orders")); len(got) != tt.remaining {
				t.Errorf("expected %d records, got %d", tt.remaining, len(got))
			}
		})
	}
}

func TestDeleteEntities_IgnoresUnknownKeys(t *testing.T) {
	s := newStore()
	stored := seed(t, s, "orders", rec("p", "a", "x"))[0]

	batch := []store.Record{stored, rec("p", "unknown", "")}
	if err := s.DeleteEntities("orders", batch, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := collect(s.GetAll("orders")); len(got) != 0 {
		t.Errorf("expected table to be empty, got %d records", len(got))
	}
}

func TestDeleteEntities_StaleRejectsWholeBatch(t *testing.T) {
	s := newStore()
	stored := seed(t, s, "orders", rec("p", "a", "x"), rec("p", "b", "y"))

	stale := stored[1]
	stale.ETag = stored[0].ETag

	err := s.DeleteEntities("orders", []store.Record{stored[0], stale}, false)
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if got := collect(s.GetAll("orders")); len(got) != 2 {
		t.Errorf("expected nothing removed, got %d records", len(got))
	}
}

func TestDeleteEntities_MissingTable(t *testing.T) {
	s := newStore()
	if err := s.DeleteEntities("missing", []store.Record{rec("p", "a", "")}, false); err != nil {
		t.Errorf("expected no error for a missing table, got %v", err)
	}
}

// --- Queries ---

func seedRange(t *testing.T, s *store.Store) {
	t.Helper()
	seed(t, s, "orders",
		rec("P", "c", "3"),
		rec("P", "a", "1"),
		rec("P", "b", "2"),
		rec("Q", "a", "other"),
	)
}

func TestGetRange(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		want       []string
	}{
		{"end exclusive", "a", "c", []string{"a", "b"}},
		{"unbounded above", "b", "", []string{"b", "c"}},
		{"empty start", "", "b", []string{"a"}},
		{"start between keys", "aa", "", []string{"b", "c"}},
		{"empty range", "c", "c", nil},
	}

	s := newStore()
	seedRange(t, s)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rowKeys(s.GetRange("orders", "P", tt.start, tt.end))
			if !slices.Equal(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestGetRange_OrdinalOrder(t *testing.T) {
	s := newStore()
	seed(t, s, "t", rec("P", "b", ""), rec("P", "B", ""), rec("P", "a", ""), rec("P", "A", ""))

	got := rowKeys(s.GetRange("t", "P", "", ""))
	want := []string{"A", "B", "a", "b"}
	if !slices.Equal(got, want) {
		t.Errorf("expected ordinal order %v, got %v", want, got)
	}
}

func TestGetPartition(t *testing.T) {
	s := newStore()
	seedRange(t, s)

	got := rowKeys(s.GetPartition("orders", "Q"))
	if !slices.Equal(got, []string{"a"}) {
		t.Errorf("expected [a], got %v", got)
	}
}

func TestGetRows(t *testing.T) {
	s := newStore()
	seedRange(t, s)

	got := rowKeys(s.GetRows("orders", "P", "c", "a", "missing"))
	slices.Sort(got)
	if !slices.Equal(got, []string{"a", "c"}) {
		t.Errorf("expected [a c], got %v", got)
	}
}

func TestQueries_MissingTable(t *testing.T) {
	s := newStore()

	if got := collect(s.GetAll("missing")); len(got) != 0 {
		t.Errorf("GetAll: expected empty, got %d", len(got))
	}
	if got := collect(s.GetPartition("missing", "p")); len(got) != 0 {
		t.Errorf("GetPartition: expected empty, got %d", len(got))
	}
	if got := collect(s.GetRange("missing", "p", "", "")); len(got) != 0 {
		t.Errorf("GetRange: expected empty, got %d", len(got))
	}
	if got := collect(s.GetRows("missing", "p", "a")); len(got) != 0 {
		t.Errorf("GetRows: expected empty, got %d", len(got))
	}
}

func TestQueries_SnapshotAtCallTime(t *testing.T) {
	s := newStore()
	seed(t, s, "orders", rec("p", "a", "x"))

	seq := s.GetAll("orders")
	seed(t, s, "orders", rec("p", "b", "y"))
	s.Delete("orders", "p", "a")

	got := rowKeys(seq)
	if !slices.Equal(got, []string{"a"}) {
		t.Errorf("expected snapshot [a], got %v", got)
	}
}

func TestQueries_RoundTripPayloadAndETag(t *testing.T) {
	s := newStore()
	stored := seed(t, s, "orders", rec("p", "a", "payload"))[0]

	for name, seq := range map[string]iter.Seq[store.Record]{
		"all":       s.GetAll("orders"),
		"partition": s.GetPartition("orders", "p"),
		"range":     s.GetRange("orders", "p", "a", ""),
		"rows":      s.GetRows("orders", "p", "a"),
	} {
		got := collect(seq)
		if len(got) != 1 {
			t.Errorf("%s: expected 1 record, got %d", name, len(got))
			continue
		}
		if string(got[0].Payload) != "payload" || got[0].ETag != stored.ETag {
			t.Errorf("%s: expected payload and insert ETag, got %q / %v", name, got[0].Payload, got[0].ETag)
		}
	}
}

func TestQueries_YieldCopies(t *testing.T) {
	s := newStore()
	seed(t, s, "orders", rec("p", "a", "x"))

	for r := range s.GetAll("orders") {
		r.Payload[0] = 'z'
	}

	if got := collect(s.GetAll("orders")); string(got[0].Payload) != "x" {
		t.Errorf("expected stored payload untouched, got %q", got[0].Payload)
	}
}

// --- ETag ---

func TestParseETag(t *testing.T) {
	s := newStore()
	stored := seed(t, s, "orders", rec("p", "a", "x"))[0]

	parsed, err := store.ParseETag(stored.ETag.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed != stored.ETag {
		t.Errorf("expected %v, got %v", stored.ETag, parsed)
	}

	zero, err := store.ParseETag("")
	if err != nil || !zero.IsZero() {
		t.Errorf("expected empty string to parse to zero ETag, got %v, %v", zero, err)
	}

	for _, bad := range []string{"abc", "0", "-1"} {
		if _, err := store.ParseETag(bad); !errors.Is(err, store.ErrInvalidETag) {
			t.Errorf("ParseETag(%q): expected ErrInvalidETag, got %v", bad, err)
		}
	}
}

// --- Concurrency ---

func TestConcurrentInsertsAreUniqueAndDistinct(t *testing.T) {
	s := newStore()
	const writers = 8
	const perWriter = 50

	var wg sync.WaitGroup
	var mu sync.Mutex
	etags := make(map[store.ETag]bool)
	errs := make(chan error, writers)

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				batch := []store.Record{rec(fmt.Sprintf("p%d", w), fmt.Sprintf("r%03d", i), "x")}
				if err := s.Insert("orders", batch); err != nil {
					errs <- err
					return
				}
				mu.Lock()
				etags[batch[0].ETag] = true
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(etags) != writers*perWriter {
		t.Errorf("expected %d distinct ETags, got %d", writers*perWriter, len(etags))
	}
	if got := collect(s.GetAll("orders")); len(got) != writers*perWriter {
		t.Errorf("expected %d records, got %d", writers*perWriter, len(got))
	}
}

func TestConcurrentOptimisticUpdates(t *testing.T) {
	s := newStore()
	seed(t, s, "counters", rec("p", "c", "0"))

	const workers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				current := collect(s.GetRows("counters", "p", "c"))[0]
				current.Payload = []byte("updated")
				err := s.Update("counters", []store.Record{current}, false)
				if err == nil {
					mu.Lock()
					successes++
					mu.Unlock()
				} else if !errors.Is(err, store.ErrConflict) {
					t.Errorf("unexpected error: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	if successes == 0 {
		t.Error("expected at least one successful update")
	}
}
