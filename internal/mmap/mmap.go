// Package mmap exposes a file's bytes as a read-only, zero-copy view for the
// lifetime of a batch run. The mapping is owned by the View and released on
// Close together with the underlying file descriptor; callers must not retain
// slices of Bytes() past Close.
package mmap

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// View is a read-only memory-mapped view of a regular file.
type View struct {
	f    *os.File
	data []byte
}

// Open opens path and maps its full contents read-only.
//
// Behavior:
//   - An empty file yields a valid View with Len()==0 and no mapping
//     (zero-length mmap is rejected by the kernel).
//   - Mapping failures surface as wrapped I/O errors; the file is closed
//     before returning.
//   - Best-effort kernel hints (FADV_SEQUENTIAL / MADV_SEQUENTIAL) are applied
//     since callers scan the whole view once, front to back.
func Open(path string) (*View, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	size := st.Size()
	if size == 0 {
		return &View{f: f}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}

	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_WILLNEED)
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)

	return &View{f: f, data: data}, nil
}

// Bytes returns the mapped contents. The slice is valid until Close and must
// be treated as immutable; writing to it is undefined behavior.
func (v *View) Bytes() []byte { return v.data }

// Len returns the size of the view in bytes.
func (v *View) Len() int { return len(v.data) }

// Close unmaps the view and closes the underlying file. It is safe to call
// once; the View must not be used afterwards.
func (v *View) Close() error {
	var unmapErr error
	if v.data != nil {
		unmapErr = unix.Munmap(v.data)
		v.data = nil
	}
	closeErr := v.f.Close()
	if unmapErr != nil {
		return fmt.Errorf("munmap: %w", unmapErr)
	}
	return closeErr
}
