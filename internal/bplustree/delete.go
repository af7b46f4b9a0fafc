package bplustree

import "github.com/iamNilotpal/tuntundb/internal/codec"

// minKeys is the minimum number of keys a non-root page may hold before
// it is considered underflowing and must borrow from a sibling or merge.
func (t *BPlusTree) minKeys() int {
	m := t.capacity / 2
	if m < 1 {
		m = 1
	}
	return m
}

// Delete removes the single entry matching both key and ptr (a record's
// heap offset). Returns false if no such entry exists. Matching on both
// fields, not key alone, is what lets duplicate keys in the same index
// coexist: deleting one row's index entry must not disturb another row
// that happens to share the same indexed value.
func (t *BPlusTree) Delete(key codec.Key, ptr int64) (bool, error) {
	if t.IsEmpty() {
		return false, nil
	}

	leaf, ancestors, err := t.findLeaf(key)
	if err != nil {
		return false, err
	}

	idx := -1
	for i, e := range leaf.entries {
		if e.key.Equal(key) && e.ptr == ptr {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false, nil
	}
	leaf.removeEntryAt(idx)

	if len(ancestors) == 0 {
		return true, t.savePage(leaf)
	}

	if leaf.numKeys() >= t.minKeys() {
		return true, t.savePage(leaf)
	}

	return true, t.rebalanceLeaf(leaf, ancestors)
}

// rebalanceLeaf repairs an underflowing leaf by borrowing a spare entry
// from a sibling if one has room to give, or merging with a sibling
// otherwise. Left sibling is preferred, matching the order the split
// path promotes keys in, so borrow/merge stay each other's inverse.
func (t *BPlusTree) rebalanceLeaf(leaf *page, ancestors []int32) error {
	parentID := ancestors[len(ancestors)-1]
	parent, err := t.loadPage(parentID)
	if err != nil {
		return err
	}
	ci := parent.childIndexOf(leaf.pageID)

	if ci > 0 {
		left, err := t.loadPage(parent.childAt(ci - 1))
		if err != nil {
			return err
		}
		if left.numKeys() > t.minKeys() {
			return t.borrowFromLeftLeaf(leaf, left, parent, ci)
		}
	}

	if ci < parent.numKeys() {
		right, err := t.loadPage(parent.childAt(ci + 1))
		if err != nil {
			return err
		}
		if right.numKeys() > t.minKeys() {
			return t.borrowFromRightLeaf(leaf, right, parent, ci)
		}
	}

	if ci > 0 {
		left, err := t.loadPage(parent.childAt(ci - 1))
		if err != nil {
			return err
		}
		return t.mergeLeaves(left, leaf, parent, ci-1, ancestors[:len(ancestors)-1])
	}

	right, err := t.loadPage(parent.childAt(ci + 1))
	if err != nil {
		return err
	}
	return t.mergeLeaves(leaf, right, parent, ci, ancestors[:len(ancestors)-1])
}

func (t *BPlusTree) borrowFromLeftLeaf(leaf, left, parent *page, ci int) error {
	last := left.entries[left.numKeys()-1]
	left.removeEntryAt(left.numKeys() - 1)
	leaf.insertEntryAt(0, last)
	parent.entries[ci-1].key = leaf.entries[0].key

	if err := t.savePage(left); err != nil {
		return err
	}
	if err := t.savePage(leaf); err != nil {
		return err
	}
	return t.savePage(parent)
}

func (t *BPlusTree) borrowFromRightLeaf(leaf, right, parent *page, ci int) error {
	first := right.entries[0]
	right.removeEntryAt(0)
	leaf.insertEntryAt(leaf.numKeys(), first)
	parent.entries[ci].key = right.entries[0].key

	if err := t.savePage(right); err != nil {
		return err
	}
	if err := t.savePage(leaf); err != nil {
		return err
	}
	return t.savePage(parent)
}

// mergeLeaves absorbs right's entries into left, unlike an internal
// merge no separator key is reintroduced: leaf keys are data, not
// routing information, so nothing needs to come down from the parent.
func (t *BPlusTree) mergeLeaves(left, right *page, parent *page, ci int, grandAncestors []int32) error {
	left.entries = append(left.entries, right.entries...)
	left.trailing = right.trailing
	if err := t.savePage(left); err != nil {
		return err
	}

	parent.mergeOutChild(ci, left.pageID)
	return t.afterChildRemoved(parent, grandAncestors)
}

// rebalanceInternal is rebalanceLeaf's counterpart for internal pages:
// the borrow case additionally rotates a key through the parent, since
// an internal page's keys are separators rather than standalone data.
func (t *BPlusTree) rebalanceInternal(node *page, ancestors []int32) error {
	parentID := ancestors[len(ancestors)-1]
	parent, err := t.loadPage(parentID)
	if err != nil {
		return err
	}
	ci := parent.childIndexOf(node.pageID)

	if ci > 0 {
		left, err := t.loadPage(parent.childAt(ci - 1))
		if err != nil {
			return err
		}
		if left.numKeys() > t.minKeys() {
			return t.borrowFromLeftInternal(node, left, parent, ci)
		}
	}

	if ci < parent.numKeys() {
		right, err := t.loadPage(parent.childAt(ci + 1))
		if err != nil {
			return err
		}
		if right.numKeys() > t.minKeys() {
			return t.borrowFromRightInternal(node, right, parent, ci)
		}
	}

	if ci > 0 {
		left, err := t.loadPage(parent.childAt(ci - 1))
		if err != nil {
			return err
		}
		return t.mergeInternal(left, node, parent, ci-1, ancestors[:len(ancestors)-1])
	}

	right, err := t.loadPage(parent.childAt(ci + 1))
	if err != nil {
		return err
	}
	return t.mergeInternal(node, right, parent, ci, ancestors[:len(ancestors)-1])
}

// borrowFromLeftInternal rotates left's largest child and key through
// the parent separator into node: the separator comes down to become
// node's new first key, left's last key goes up to replace it.
func (t *BPlusTree) borrowFromLeftInternal(node, left, parent *page, ci int) error {
	sepKey := parent.entries[ci-1].key
	movedChild := int32(left.trailing)
	newLeftSep := left.entries[left.numKeys()-1].key

	left.trailing = left.entries[left.numKeys()-1].ptr
	left.removeEntryAt(left.numKeys() - 1)

	node.insertEntryAt(0, entry{key: sepKey, ptr: int64(movedChild)})
	parent.entries[ci-1].key = newLeftSep

	if err := t.setParentID(movedChild, int64(node.pageID)); err != nil {
		return err
	}
	if err := t.savePage(left); err != nil {
		return err
	}
	if err := t.savePage(node); err != nil {
		return err
	}
	return t.savePage(parent)
}

// borrowFromRightInternal is the mirror image of borrowFromLeftInternal.
func (t *BPlusTree) borrowFromRightInternal(node, right, parent *page, ci int) error {
	sepKey := parent.entries[ci].key
	movedChild := int32(right.entries[0].ptr)

	node.entries = append(node.entries, entry{key: sepKey, ptr: node.trailing})
	node.trailing = int64(movedChild)

	newRightSep := right.entries[0].key
	right.removeEntryAt(0)
	parent.entries[ci].key = newRightSep

	if err := t.setParentID(movedChild, int64(node.pageID)); err != nil {
		return err
	}
	if err := t.savePage(node); err != nil {
		return err
	}
	if err := t.savePage(right); err != nil {
		return err
	}
	return t.savePage(parent)
}

// mergeInternal absorbs right into left, pulling the parent's separator
// key down between them since it is the only record of the key range
// that used to distinguish left's subtree from right's.
func (t *BPlusTree) mergeInternal(left, right, parent *page, ci int, grandAncestors []int32) error {
	sepKey := parent.entries[ci].key

	rightChildren := make([]int32, 0, right.numKeys()+1)
	for i := 0; i <= right.numKeys(); i++ {
		rightChildren = append(rightChildren, right.childAt(i))
	}

	left.entries = append(left.entries, entry{key: sepKey, ptr: left.trailing})
	left.entries = append(left.entries, right.entries...)
	left.trailing = right.trailing

	if err := t.savePage(left); err != nil {
		return err
	}
	for _, cid := range rightChildren {
		if err := t.setParentID(cid, int64(left.pageID)); err != nil {
			return err
		}
	}

	parent.mergeOutChild(ci, left.pageID)
	return t.afterChildRemoved(parent, grandAncestors)
}

// afterChildRemoved persists parent after one of its children was merged
// away, collapsing the root if that merge emptied it, and otherwise
// recursing up through ancestors if parent itself now underflows.
func (t *BPlusTree) afterChildRemoved(parent *page, grandAncestors []int32) error {
	if err := t.savePage(parent); err != nil {
		return err
	}

	if len(grandAncestors) == 0 {
		if parent.numKeys() == 0 {
			return t.collapseRoot(parent)
		}
		return nil
	}

	if parent.numKeys() >= t.minKeys() {
		return nil
	}

	return t.rebalanceInternal(parent, grandAncestors)
}

// collapseRoot replaces an internal root that merging reduced to zero
// keys with its one surviving child, shrinking the tree's height by one.
func (t *BPlusTree) collapseRoot(root *page) error {
	newRootID := int32(root.trailing)
	if err := t.setParentID(newRootID, NoPage); err != nil {
		return err
	}
	return t.setRoot(newRootID)
}

// mergeOutChild removes the child pointer and separator key for the
// subtree that used to sit at index ci+1, now that it has been merged
// into the child at ci (identified by leftID).
func (p *page) mergeOutChild(ci int, leftID int32) {
	if ci+1 == p.numKeys() {
		p.removeEntryAt(ci)
		p.trailing = int64(leftID)
		return
	}
	p.entries[ci+1].ptr = int64(leftID)
	p.removeEntryAt(ci)
}
