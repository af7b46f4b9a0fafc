// Package bplustree implements the disk-resident B+ tree used as a
// secondary index over a table's heap. Pages are fixed-size blocks of a
// single index file, addressed through a pagefile.BlockCursor; page 0 is
// reserved for the super-header, which records the current root page.
package bplustree

import (
	"encoding/binary"

	"github.com/iamNilotpal/tuntundb/internal/codec"
	"github.com/iamNilotpal/tuntundb/pkg/errors"
)

// NoPage is the sentinel pointer value meaning "no page": the root's
// parent, a leaf's next-leaf link when it is the last leaf, and an unset
// child pointer all use it.
const NoPage int64 = -1

// headerSize is the fixed byte length of a page header: is_leaf (1) +
// num_keys (2) + page_id (4) + parent_id (8).
const headerSize = 15

// entrySize is the byte length of one (key, pointer) entry.
const entrySize = 16

// Capacity returns the maximum number of (key, pointer) entries a page of
// the given size can hold alongside its header and one trailing pointer.
func Capacity(pageSize int) int {
	return (pageSize - headerSize - 8) / entrySize
}

// entry is one (key, pointer) pair within a page. For a leaf page, ptr is
// the record's offset in the table's heap file. For an internal page, ptr
// is a child page id stored in the low 32 bits.
type entry struct {
	key codec.Key
	ptr int64
}

// page is the decoded, in-memory form of one index block.
type page struct {
	isLeaf   bool
	pageID   int32
	parentID int64
	entries  []entry
	// trailing is an internal page's rightmost child pointer, or a leaf
	// page's next-leaf link for ordered range scans.
	trailing int64
}

func newLeafPage(pageID int32, parentID int64) *page {
	return &page{isLeaf: true, pageID: pageID, parentID: parentID, trailing: NoPage}
}

func newInternalPage(pageID int32, parentID int64) *page {
	return &page{isLeaf: false, pageID: pageID, parentID: parentID, trailing: NoPage}
}

func (p *page) numKeys() int { return len(p.entries) }

// encode serializes the page into a pageSize-byte buffer.
func (p *page) encode(pageSize int) ([]byte, error) {
	cap := Capacity(pageSize)
	if p.numKeys() > cap {
		return nil, errors.NewIndexError(nil, errors.ErrorCodeBadPage, "page key count exceeds capacity").
			WithDetail("pageId", p.pageID).WithDetail("numKeys", p.numKeys()).WithDetail("capacity", cap)
	}

	buf := make([]byte, pageSize)

	if p.isLeaf {
		buf[0] = 1
	}
	binary.LittleEndian.PutUint16(buf[1:3], uint16(p.numKeys()))
	binary.LittleEndian.PutUint32(buf[3:7], uint32(p.pageID))
	binary.LittleEndian.PutUint64(buf[7:15], uint64(p.parentID))

	off := headerSize
	for _, e := range p.entries {
		copy(buf[off:off+8], e.key[:])
		binary.LittleEndian.PutUint64(buf[off+8:off+16], uint64(e.ptr))
		off += entrySize
	}

	trailingOff := headerSize + cap*entrySize
	binary.LittleEndian.PutUint64(buf[trailingOff:trailingOff+8], uint64(p.trailing))

	return buf, nil
}

// decodePage deserializes a pageSize-byte buffer into a page.
func decodePage(buf []byte, pageSize int) (*page, error) {
	if len(buf) != pageSize {
		return nil, errors.NewIndexError(nil, errors.ErrorCodeBadPage, "page buffer size mismatch").
			WithDetail("len", len(buf)).WithDetail("pageSize", pageSize)
	}

	cap := Capacity(pageSize)
	numKeys := int(binary.LittleEndian.Uint16(buf[1:3]))
	if numKeys > cap {
		return nil, errors.NewIndexError(nil, errors.ErrorCodeIndexCorrupted, "page header reports impossible key count").
			WithDetail("numKeys", numKeys).WithDetail("capacity", cap)
	}

	p := &page{
		isLeaf:   buf[0] == 1,
		pageID:   int32(binary.LittleEndian.Uint32(buf[3:7])),
		parentID: int64(binary.LittleEndian.Uint64(buf[7:15])),
		entries:  make([]entry, numKeys),
	}

	off := headerSize
	for i := 0; i < numKeys; i++ {
		var e entry
		copy(e.key[:], buf[off:off+8])
		e.ptr = int64(binary.LittleEndian.Uint64(buf[off+8 : off+16]))
		p.entries[i] = e
		off += entrySize
	}

	trailingOff := headerSize + cap*entrySize
	p.trailing = int64(binary.LittleEndian.Uint64(buf[trailingOff : trailingOff+8]))

	return p, nil
}

// childAt returns the child page id held at entry index i for an
// internal page, or the trailing pointer when i equals numKeys().
func (p *page) childAt(i int) int32 {
	if i == p.numKeys() {
		return int32(p.trailing)
	}
	return int32(p.entries[i].ptr)
}

// findChildIndex returns the index of the child subtree that should
// contain key, for an internal page: the first entry whose key is
// greater than the search key, or numKeys() if none is.
func (p *page) findChildIndex(key codec.Key) int {
	for i, e := range p.entries {
		if key.Less(e.key) {
			return i
		}
	}
	return p.numKeys()
}

// findKeyIndex returns the index of the first entry whose key is not
// less than the search key (the standard lower-bound search used by both
// leaf lookup and duplicate-respecting insert position).
func (p *page) findKeyIndex(key codec.Key) int {
	lo, hi := 0, p.numKeys()
	for lo < hi {
		mid := (lo + hi) / 2
		if p.entries[mid].key.Less(key) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// insertEntryAt inserts e at index i, shifting subsequent entries right.
func (p *page) insertEntryAt(i int, e entry) {
	p.entries = append(p.entries, entry{})
	copy(p.entries[i+1:], p.entries[i:])
	p.entries[i] = e
}

// removeEntryAt removes the entry at index i, shifting subsequent
// entries left.
func (p *page) removeEntryAt(i int) {
	p.entries = append(p.entries[:i], p.entries[i+1:]...)
}
