package bplustree

import (
	"encoding/binary"

	"github.com/iamNilotpal/tuntundb/internal/pagefile"
)

// superPageID is the fixed block holding the tree's super-header. Every
// other page id is a normal tree page; this one never is.
const superPageID int32 = 0

// readRoot loads the current root page id out of the super-header block,
// creating the block (initialized to NoPage) if the file is brand new.
func readRoot(cursor *pagefile.BlockCursor, pageSize int) (int32, error) {
	total, err := cursor.TotalBlocks()
	if err != nil {
		return 0, err
	}
	if total == 0 {
		buf := make([]byte, pageSize)
		binary.LittleEndian.PutUint64(buf[0:8], uint64(NoPage))
		if _, err := cursor.AppendBlock(buf); err != nil {
			return 0, err
		}
		return int32(NoPage), nil
	}

	buf, err := cursor.ReadBlock(superPageID)
	if err != nil {
		return 0, err
	}
	return int32(int64(binary.LittleEndian.Uint64(buf[0:8]))), nil
}

// writeRoot persists a new root page id into the super-header block.
func writeRoot(cursor *pagefile.BlockCursor, pageSize int, rootID int32) error {
	buf := make([]byte, pageSize)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(int64(rootID)))
	return cursor.WriteBlock(superPageID, buf)
}
