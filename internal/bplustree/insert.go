package bplustree

import "github.com/iamNilotpal/tuntundb/internal/codec"

// Insert adds a (key, ptr) entry to the tree. Duplicate keys are
// permitted at the tree level; enforcing uniqueness on a primary-key
// column is the query runner's job: INSERT searches the primary index
// before inserting.
func (t *BPlusTree) Insert(key codec.Key, ptr int64) error {
	if t.IsEmpty() {
		leaf := newLeafPage(0, NoPage)
		leaf.entries = []entry{{key: key, ptr: ptr}}
		id, err := t.allocatePage(leaf)
		if err != nil {
			return err
		}
		return t.setRoot(id)
	}

	leaf, ancestors, err := t.findLeaf(key)
	if err != nil {
		return err
	}

	idx := leaf.findKeyIndex(key)
	leaf.insertEntryAt(idx, entry{key: key, ptr: ptr})

	if leaf.numKeys() <= t.capacity {
		return t.savePage(leaf)
	}

	return t.splitLeaf(leaf, ancestors)
}

// splitLeaf splits an overflowing leaf in two and propagates the new
// separator key up through ancestors, the chain of internal page ids
// visited on the way down from the root.
func (t *BPlusTree) splitLeaf(leaf *page, ancestors []int32) error {
	mid := (leaf.numKeys() + 1) / 2

	right := newLeafPage(0, leaf.parentID)
	right.entries = append([]entry(nil), leaf.entries[mid:]...)
	right.trailing = leaf.trailing
	leaf.entries = leaf.entries[:mid]

	rightID, err := t.allocatePage(right)
	if err != nil {
		return err
	}
	leaf.trailing = int64(rightID)
	if err := t.savePage(leaf); err != nil {
		return err
	}

	promoted := right.entries[0].key
	return t.propagateSplit(leaf.pageID, rightID, promoted, ancestors)
}

// propagateSplit inserts the (promoted, rightID) separator into the
// parent identified by the last entry of ancestors, splitting that
// parent in turn if it overflows, and recursing until either a parent
// absorbs the new child without overflowing or the root itself splits.
func (t *BPlusTree) propagateSplit(leftID, rightID int32, promoted codec.Key, ancestors []int32) error {
	if len(ancestors) == 0 {
		return t.createNewRoot(promoted, leftID, rightID)
	}

	parentID := ancestors[len(ancestors)-1]
	parent, err := t.loadPage(parentID)
	if err != nil {
		return err
	}

	if err := t.setParentID(rightID, int64(parentID)); err != nil {
		return err
	}

	ci := parent.childIndexOf(leftID)
	parent.spliceChild(ci, promoted, leftID, rightID)

	if parent.numKeys() <= t.capacity {
		return t.savePage(parent)
	}

	return t.splitInternal(parent, ancestors[:len(ancestors)-1])
}

// splitInternal splits an overflowing internal page. Unlike a leaf split,
// the middle key moves up to the parent rather than being copied: it no
// longer guides a search within either child, so it has no reason to stay.
func (t *BPlusTree) splitInternal(p *page, ancestors []int32) error {
	mid := p.numKeys() / 2
	promoted := p.entries[mid].key

	right := newInternalPage(0, p.parentID)
	right.entries = append([]entry(nil), p.entries[mid+1:]...)
	right.trailing = p.trailing

	p.trailing = p.entries[mid].ptr
	p.entries = p.entries[:mid]

	rightID, err := t.allocatePage(right)
	if err != nil {
		return err
	}
	if err := t.savePage(p); err != nil {
		return err
	}

	if err := t.reparentChildren(right); err != nil {
		return err
	}

	return t.propagateSplit(p.pageID, rightID, promoted, ancestors)
}

// createNewRoot builds a fresh internal root page over two existing
// pages, used both when the very first leaf overflows and whenever a
// split propagates all the way past the previous root.
func (t *BPlusTree) createNewRoot(promoted codec.Key, leftID, rightID int32) error {
	root := newInternalPage(0, NoPage)
	root.entries = []entry{{key: promoted, ptr: int64(leftID)}}
	root.trailing = int64(rightID)

	rootID, err := t.allocatePage(root)
	if err != nil {
		return err
	}

	if err := t.setParentID(leftID, int64(rootID)); err != nil {
		return err
	}
	if err := t.setParentID(rightID, int64(rootID)); err != nil {
		return err
	}

	return t.setRoot(rootID)
}

// setParentID updates a page's recorded parent, used whenever a page
// changes parents: after a root split, and after an internal split moves
// some children to a new sibling page.
func (t *BPlusTree) setParentID(pageID int32, parentID int64) error {
	p, err := t.loadPage(pageID)
	if err != nil {
		return err
	}
	p.parentID = parentID
	return t.savePage(p)
}

// reparentChildren updates every child of an internal page to point back
// at it, used after splitInternal moves a block of children into right.
func (t *BPlusTree) reparentChildren(p *page) error {
	count := p.numKeys() + 1
	for i := 0; i < count; i++ {
		if err := t.setParentID(p.childAt(i), int64(p.pageID)); err != nil {
			return err
		}
	}
	return nil
}

// childIndexOf returns the index at which childID appears as a child
// pointer of p: 0..numKeys()-1 for entries.ptr, or numKeys() if it is the
// trailing pointer. Returns -1 if childID is not a child of p.
func (p *page) childIndexOf(childID int32) int {
	for i := 0; i <= p.numKeys(); i++ {
		if p.childAt(i) == childID {
			return i
		}
	}
	return -1
}

// spliceChild inserts a new separator key and right-hand child
// immediately after the existing child identified by ci, the position
// leftID currently occupies among p's children.
func (p *page) spliceChild(ci int, promoted codec.Key, leftID, rightID int32) {
	if ci == p.numKeys() {
		p.entries = append(p.entries, entry{key: promoted, ptr: int64(leftID)})
		p.trailing = int64(rightID)
		return
	}

	oldKey := p.entries[ci].key
	p.entries[ci].key = promoted
	p.insertEntryAt(ci+1, entry{key: oldKey, ptr: int64(rightID)})
}
