//go:build linux

package scanner

import (
	"os"
	"syscall"
	"time"
)

// fileTimes extracts creation and access times from stat metadata.
// Linux exposes ctime (inode change) rather than a true birth time.
func fileTimes(info os.FileInfo) (created, accessed *time.Time) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return nil, nil
	}
	c := time.Unix(st.Ctim.Sec, st.Ctim.Nsec).UTC()
	a := time.Unix(st.Atim.Sec, st.Atim.Nsec).UTC()
	return &c, &a
}
