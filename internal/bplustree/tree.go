package bplustree

import (
	"github.com/iamNilotpal/tuntundb/internal/codec"
	"github.com/iamNilotpal/tuntundb/internal/pagefile"
	"github.com/iamNilotpal/tuntundb/pkg/errors"
	"go.uber.org/zap"
)

// BPlusTree is a disk-resident B+ tree index over one column of one
// table. It stores record offsets into that table's heap, keyed by the
// codec-encoded 8-byte ordered key of the indexed column.
type BPlusTree struct {
	cursor   *pagefile.BlockCursor
	pageSize int
	capacity int
	rootID   int32
	log      *zap.SugaredLogger
}

// Config bundles a BPlusTree's dependencies.
type Config struct {
	Path     string
	PageSize int
	Logger   *zap.SugaredLogger
}

// Open opens (creating if absent) the index file at cfg.Path.
func Open(cfg *Config) (*BPlusTree, error) {
	if cfg == nil || cfg.Path == "" || cfg.PageSize <= 0 {
		return nil, errors.NewValidationError(nil, errors.ErrorCodeInvalidInput, "invalid bplustree configuration")
	}
	if Capacity(cfg.PageSize) < 3 {
		return nil, errors.NewValidationError(nil, errors.ErrorCodeInvalidInput, "page size too small for a usable tree").
			WithDetail("pageSize", cfg.PageSize)
	}

	cursor, err := pagefile.OpenBlockCursor(&pagefile.BlockCursorConfig{
		Path: cfg.Path, BlockSize: cfg.PageSize, Logger: cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	rootID, err := readRoot(cursor, cfg.PageSize)
	if err != nil {
		cursor.Close()
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &BPlusTree{
		cursor:   cursor,
		pageSize: cfg.PageSize,
		capacity: Capacity(cfg.PageSize),
		rootID:   rootID,
		log:      log.Named("bplustree"),
	}, nil
}

// Close releases the underlying file handle.
func (t *BPlusTree) Close() error {
	return t.cursor.Close()
}

// IsEmpty reports whether the tree has no root page yet.
func (t *BPlusTree) IsEmpty() bool {
	return t.rootID == int32(NoPage)
}

func (t *BPlusTree) loadPage(id int32) (*page, error) {
	buf, err := t.cursor.ReadBlock(id)
	if err != nil {
		return nil, err
	}
	p, err := decodePage(buf, t.pageSize)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (t *BPlusTree) savePage(p *page) error {
	buf, err := p.encode(t.pageSize)
	if err != nil {
		return err
	}
	return t.cursor.WriteBlock(p.pageID, buf)
}

// allocatePage appends p as a brand-new block and assigns it that
// block's id as its page id, then persists it.
func (t *BPlusTree) allocatePage(p *page) (int32, error) {
	buf, err := p.encode(t.pageSize)
	if err != nil {
		return 0, err
	}
	id, err := t.cursor.AppendBlock(buf)
	if err != nil {
		return 0, err
	}
	p.pageID = id
	if err := t.savePage(p); err != nil {
		return 0, err
	}
	return id, nil
}

func (t *BPlusTree) setRoot(id int32) error {
	if err := writeRoot(t.cursor, t.pageSize, id); err != nil {
		return err
	}
	t.rootID = id
	return nil
}

// findLeaf descends from the root to the leaf page that contains, or
// would contain, key. It returns the chain of ancestor page ids visited
// (root first, leaf's parent last) alongside the leaf itself, since
// insert and delete both need to walk back up on split or underflow.
func (t *BPlusTree) findLeaf(key codec.Key) (leaf *page, ancestors []int32, err error) {
	if t.IsEmpty() {
		return nil, nil, errors.NewIndexError(nil, errors.ErrorCodeBadPage, "tree has no root page")
	}

	id := t.rootID
	for {
		p, err := t.loadPage(id)
		if err != nil {
			return nil, nil, err
		}
		if p.isLeaf {
			return p, ancestors, nil
		}
		ancestors = append(ancestors, id)
		childIdx := p.findChildIndex(key)
		id = p.childAt(childIdx)
	}
}

// leftmostLeaf descends the leftmost child pointer from the root,
// used to start a full-index scan or an unbounded range search.
func (t *BPlusTree) leftmostLeaf() (*page, error) {
	if t.IsEmpty() {
		return nil, nil
	}
	id := t.rootID
	for {
		p, err := t.loadPage(id)
		if err != nil {
			return nil, err
		}
		if p.isLeaf {
			return p, nil
		}
		id = p.childAt(0)
	}
}

// findFirstLeaf descends to the leftmost leaf that may hold key.
func (t *BPlusTree) findFirstLeaf(key codec.Key) (*page, error) {
	id := t.rootID
	for {
		p, err := t.loadPage(id)
		if err != nil {
			return nil, err
		}
		if p.isLeaf {
			return p, nil
		}
		id = p.childAt(p.findKeyIndex(key))
	}
}

// Search returns the heap offsets of every record whose indexed column
// encodes to key. Secondary indexes permit duplicate keys, so more than
// one match is a normal outcome, not a corruption signal.
func (t *BPlusTree) Search(key codec.Key) ([]int64, error) {
	if t.IsEmpty() {
		return nil, nil
	}

	leaf, err := t.findFirstLeaf(key)
	if err != nil {
		return nil, err
	}

	visited := map[int32]struct{}{leaf.pageID: {}}
	var results []int64
	for {
		i := leaf.findKeyIndex(key)
		for i < leaf.numKeys() && leaf.entries[i].key.Equal(key) {
			results = append(results, leaf.entries[i].ptr)
			i++
		}
		if i < leaf.numKeys() {
			break
		}
		if leaf.trailing == NoPage {
			break
		}
		nextID := int32(leaf.trailing)
		if _, seen := visited[nextID]; seen {
			return nil, errors.NewIndexError(nil, errors.ErrorCodeIndexCorrupted, "cycle detected in leaf chain").
				WithDetail("pageId", nextID)
		}
		visited[nextID] = struct{}{}
		leaf, err = t.loadPage(nextID)
		if err != nil {
			return nil, err
		}
		if leaf.numKeys() == 0 || !leaf.entries[0].key.Equal(key) {
			break
		}
	}

	return results, nil
}

// RangeSearch returns the heap offsets of every record whose key falls
// within [lo, hi] (inclusive on both ends), walking the leaf-level linked
// list once it reaches the first qualifying leaf.
func (t *BPlusTree) RangeSearch(lo, hi codec.Key) ([]int64, error) {
	if t.IsEmpty() {
		return nil, nil
	}

	leaf, err := t.findFirstLeaf(lo)
	if err != nil {
		return nil, err
	}

	visited := map[int32]struct{}{leaf.pageID: {}}
	var results []int64
	for leaf != nil {
		for _, e := range leaf.entries {
			if e.key.Less(lo) {
				continue
			}
			if hi.Less(e.key) {
				return results, nil
			}
			results = append(results, e.ptr)
		}
		if leaf.trailing == NoPage {
			break
		}
		nextID := int32(leaf.trailing)
		if _, seen := visited[nextID]; seen {
			return nil, errors.NewIndexError(nil, errors.ErrorCodeIndexCorrupted, "cycle detected in leaf chain").
				WithDetail("pageId", nextID)
		}
		visited[nextID] = struct{}{}
		leaf, err = t.loadPage(nextID)
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}

// ScanAll returns the heap offsets of every entry in the tree, in key
// order, by walking the leaf chain from the leftmost leaf.
func (t *BPlusTree) ScanAll() ([]int64, error) {
	leaf, err := t.leftmostLeaf()
	if err != nil || leaf == nil {
		return nil, err
	}

	visited := map[int32]struct{}{leaf.pageID: {}}
	var results []int64
	for leaf != nil {
		for _, e := range leaf.entries {
			results = append(results, e.ptr)
		}
		if leaf.trailing == NoPage {
			break
		}
		nextID := int32(leaf.trailing)
		if _, seen := visited[nextID]; seen {
			return nil, errors.NewIndexError(nil, errors.ErrorCodeIndexCorrupted, "cycle detected in leaf chain").
				WithDetail("pageId", nextID)
		}
		visited[nextID] = struct{}{}
		leaf, err = t.loadPage(nextID)
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
