package store

// table holds the records of one table keyed by (partition key, row key).
// Callers must hold the store lock.
type table struct {
	name string
	rows map[Key]Record
}

func newTable(name string) *table {
	return &table{name: name, rows: make(map[Key]Record)}
}

func (t *table) get(k Key) (Record, bool) {
	r, ok := t.rows[k]
	return r, ok
}

func (t *table) put(r Record) {
	t.rows[r.Key()] = r
}

func (t *table) remove(k Key) (Record, bool) {
	r, ok := t.rows[k]
	if ok {
		delete(t.rows, k)
	}
	return r, ok
}

// collect returns every record accepted by match.
func (t *table) collect(match func(Record) bool) []Record {
	var out []Record
	for _, r := range t.rows {
		if match(r) {
			out = append(out, r)
		}
	}
	return out
}

// duplicateKey returns the first key that appears more than once in keys.
func duplicateKey(keys []Key) (Key, bool) {
	seen := make(map[Key]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			return k, true
		}
		seen[k] = struct{}{}
	}
	return Key{}, false
}

func recordKeys(records []Record) []Key {
	keys := make([]Key, len(records))
	for i, r := range records {
		keys[i] = r.Key()
	}
	return keys
}
