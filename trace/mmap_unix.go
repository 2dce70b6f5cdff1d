//go:build unix

package trace

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// mapFile maps path read-only into memory.
// The returned release function unmaps it.
func mapFile(path string) ([]byte, func() error, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to open trace %s", path)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to stat trace")
	}

	size := info.Size()
	if size == 0 {
		// mmap rejects zero-length mappings
		return []byte{}, func() error { return nil }, nil
	}
	if int64(int(size)) != size {
		return nil, nil, errors.Errorf("trace %s too large to map (%d bytes)", path, size)
	}

	data, err := unix.Mmap(int(file.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to map trace")
	}

	release := func() error {
		if err := unix.Munmap(data); err != nil {
			return errors.Wrap(err, "failed to unmap trace")
		}
		return nil
	}
	return data, release, nil
}
