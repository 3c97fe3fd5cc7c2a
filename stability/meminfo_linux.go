//go:build linux

package stability

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// systemMemory reads total and available RAM in bytes via sysinfo(2).
func systemMemory() (total, free uint64, err error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, 0, fmt.Errorf("stability: sysinfo: %w", err)
	}
	unit := uint64(info.Unit)
	if unit == 0 {
		unit = 1
	}
	return uint64(info.Totalram) * unit, uint64(info.Freeram) * unit, nil
}
