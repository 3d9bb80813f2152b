package store

import (
	"slices"
)

// CreateTable creates an empty table. It returns false, and changes nothing,
// if the table already exists.
func (s *Store) CreateTable(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables[name]; ok {
		return false
	}
	s.createTableLocked(name)
	return true
}

// DeleteTable removes a table and all its records. It returns false if the
// table does not exist.
func (s *Store) DeleteTable(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[name]
	if !ok {
		return false
	}
	delete(s.tables, name)
	s.logger.Debug("table deleted", "table", name, "records", len(t.rows))
	return true
}

// ListTables returns the names of all existing tables in ascending order.
func (s *Store) ListTables() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (s *Store) createTableLocked(name string) *table {
	t := newTable(name)
	s.tables[name] = t
	s.logger.Debug("table created", "table", name)
	return t
}
