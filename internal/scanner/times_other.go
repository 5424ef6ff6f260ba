//go:build !linux

package scanner

import (
	"os"
	"time"
)

// fileTimes is a no-op on platforms without portable stat extensions.
func fileTimes(os.FileInfo) (created, accessed *time.Time) {
	return nil, nil
}
