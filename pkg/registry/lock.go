package registry

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// fileLock is an advisory whole-file lock held through flock(2). Locks
// belong to the open file description so two opens of the same path in
// one process exclude each other as well.
type fileLock struct {
	file *os.File
}

// lockFile blocks until the lock is acquired. how is unix.LOCK_EX or
// unix.LOCK_SH.
func lockFile(file *os.File, how int) (*fileLock, error) {
	for {
		err := unix.Flock(int(file.Fd()), how)

		if err == unix.EINTR {
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("could not lock %s: %w", file.Name(), err)
		}

		return &fileLock{file: file}, nil
	}
}

func (l *fileLock) Unlock() error {
	return unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
}
