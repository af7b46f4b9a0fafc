package bplustree

import "github.com/iamNilotpal/tuntundb/internal/codec"

// Next pulls the next (key, ptr) pair out of a data source BuildFromData
// is rebuilding an index from; ok is false once the source is exhausted.
type Next func() (key codec.Key, ptr int64, ok bool, err error)

// BuildFromData repopulates the tree by repeatedly inserting from next,
// used by CREATE INDEX on an already-populated table. Per
// the resolved ambiguity over tombstoned rows, next is expected to have
// already filtered them out: BuildFromData itself has no idea what a
// tombstone is, it only knows keys and heap offsets.
func (t *BPlusTree) BuildFromData(next Next) error {
	for {
		key, ptr, ok, err := next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if err := t.Insert(key, ptr); err != nil {
			return err
		}
	}
	return nil
}
