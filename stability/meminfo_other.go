//go:build !linux

package stability

import "errors"

func systemMemory() (total, free uint64, err error) {
	return 0, 0, errors.New("stability: memory probe not supported on this platform")
}
