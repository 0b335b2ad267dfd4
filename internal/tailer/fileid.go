package tailer

import (
	"encoding/binary"
	"fmt"
	"os"
	"syscall"

	"github.com/cespare/xxhash/v2"
)

// FileID identifies a file by (device, inode), stable across renames
// within a filesystem (spec §3 WatchedFile). It is used directly as a map
// key (Go structs of comparable fields hash natively); ShortHash exists
// only for compact, collision-tolerant log lines.
type FileID struct {
	Device uint64
	Inode  uint64
}

// ShortHash renders the id as a short hex tag for log lines, cheaper to
// scan than the full device:inode pair.
func (id FileID) ShortHash() string {
	var b [16]byte
	binary.LittleEndian.PutUint64(b[0:8], id.Device)
	binary.LittleEndian.PutUint64(b[8:16], id.Inode)
	return fmt.Sprintf("%08x", xxhash.Sum64(b[:]))
}

func (id FileID) String() string { return fmt.Sprintf("%d:%d", id.Device, id.Inode) }

func fileIDFromInfo(info os.FileInfo) (FileID, bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return FileID{}, false
	}
	return FileID{Device: uint64(st.Dev), Inode: st.Ino}, true
}
