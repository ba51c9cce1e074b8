package leaderboard

// Txn snapshots a value before an optimistic mutation so a failed remote
// commit can restore it exactly. The caller applies its optimistic change,
// runs the commit, and calls Rollback only on failure.
type Txn[T any] struct {
	snapshot T
	restore  func(T)
}

// Begin clones current and remembers how to put it back.
func Begin[T any](current T, clone func(T) T, restore func(T)) Txn[T] {
	return Txn[T]{
		snapshot: clone(current),
		restore:  restore,
	}
}

// Rollback restores the snapshot taken at Begin.
func (t Txn[T]) Rollback() {
	t.restore(t.snapshot)
}
