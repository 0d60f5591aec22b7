package tabular

import (
	"context"
	"sort"
)

// Transactor closes the lost-update window of whole-table rewrites by
// holding a per-table lock around every read-modify-write cycle.
type Transactor struct {
	store  Store
	locker Locker
}

// NewTransactor wraps store. A nil locker defaults to a LocalLocker.
func NewTransactor(store Store, locker Locker) *Transactor {
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &Transactor{store: store, locker: locker}
}

// Store returns the wrapped store for lock-free reads.
func (t *Transactor) Store() Store { return t.store }

// Read returns a snapshot of the table without taking the lock.
func (t *Transactor) Read(ctx context.Context, table string) (Table, error) {
	tbl, err := t.store.ReadAll(ctx, table)
	return tbl, ReadError(table, "read", err)
}

// Update reads table, lets fn modify it in place and rewrites it, all under
// the table lock. fn returning an error aborts without writing.
func (t *Transactor) Update(ctx context.Context, table string, fn func(tbl *Table) error) error {
	return t.UpdateMany(ctx, []string{table}, func(tables map[string]*Table) error {
		return fn(tables[table])
	})
}

// UpdateMany locks every table in sorted name order, reads them, calls fn
// and rewrites them in the order given. Writes are not atomic across
// tables; a failure on a later table leaves earlier rewrites in place.
func (t *Transactor) UpdateMany(ctx context.Context, tables []string, fn func(tables map[string]*Table) error) error {
	unlock, err := t.lockAll(ctx, tables)
	if err != nil {
		return err
	}
	defer unlock()

	snapshot := make(map[string]*Table, len(tables))
	for _, name := range tables {
		tbl, err := t.store.ReadAll(ctx, name)
		if err != nil {
			return ReadError(name, "read", err)
		}
		snapshot[name] = &tbl
	}
	if err := fn(snapshot); err != nil {
		return err
	}
	for _, name := range tables {
		if err := t.store.OverwriteAll(ctx, name, *snapshot[name]); err != nil {
			return WriteError(name, "overwrite", err)
		}
	}
	return nil
}

// Append serializes a single-row append with other writers of the table.
func (t *Transactor) Append(ctx context.Context, table string, row Row) error {
	unlock, err := t.lockAll(ctx, []string{table})
	if err != nil {
		return err
	}
	defer unlock()
	return WriteError(table, "append", t.store.AppendRow(ctx, table, row))
}

// AppendWithHeader appends row, first widening the header under the same
// lock when row carries columns the table lacks.
func (t *Transactor) AppendWithHeader(ctx context.Context, table string, row Row, columns []string) error {
	unlock, err := t.lockAll(ctx, []string{table})
	if err != nil {
		return err
	}
	defer unlock()

	tbl, err := t.store.ReadAll(ctx, table)
	if err != nil {
		return ReadError(table, "read", err)
	}
	merged := MergeHeader(tbl.Header, columns...)
	if len(merged) != len(tbl.Header) {
		tbl.Header = merged
		if err := t.store.OverwriteAll(ctx, table, tbl); err != nil {
			return WriteError(table, "reinitialize header", err)
		}
	}
	return WriteError(table, "append", t.store.AppendRow(ctx, table, row))
}

func (t *Transactor) lockAll(ctx context.Context, tables []string) (func(), error) {
	names := append([]string(nil), tables...)
	sort.Strings(names)
	unlocks := make([]func(), 0, len(names))
	release := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
	for i, name := range names {
		if i > 0 && names[i-1] == name {
			continue
		}
		u, err := t.locker.Lock(ctx, name)
		if err != nil {
			release()
			return nil, err
		}
		unlocks = append(unlocks, u)
	}
	return release, nil
}
