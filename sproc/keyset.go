package sproc

import "github.com/luigitni/detdb/types"

// KeySetBuilder collects the keys a procedure reads and writes.
// The admission gate moves its sets into the concurrency manager of the
// transaction, leaving the builder empty.
type KeySetBuilder struct {
	read  *types.LockableSet
	write *types.LockableSet
}

func NewKeySetBuilder() *KeySetBuilder {
	return &KeySetBuilder{
		read:  types.NewLockableSet(),
		write: types.NewLockableSet(),
	}
}

func (b *KeySetBuilder) AddReadKey(key types.Lockable) *KeySetBuilder {
	b.read.Add(key)
	return b
}

func (b *KeySetBuilder) AddWriteKey(key types.Lockable) *KeySetBuilder {
	b.write.Add(key)
	return b
}

// AddReadWriteKey adds key to both sets.
func (b *KeySetBuilder) AddReadWriteKey(key types.Lockable) *KeySetBuilder {
	b.read.Add(key)
	b.write.Add(key)
	return b
}

func (b *KeySetBuilder) ReadKeys() []types.Lockable {
	return b.read.Sorted()
}

func (b *KeySetBuilder) WriteKeys() []types.Lockable {
	return b.write.Sorted()
}

func (b *KeySetBuilder) HasWrites() bool {
	return b.write.Len() > 0
}

// take moves the sets out of the builder.
func (b *KeySetBuilder) take() (read, write *types.LockableSet) {
	read, write = b.read, b.write
	b.read, b.write = types.NewLockableSet(), types.NewLockableSet()
	return read, write
}
