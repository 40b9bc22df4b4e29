//go:build linux
// +build linux

package bank

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// File is a real, file-backed bank: a fixed-size file memory-mapped
// with mmap(2), giving kvs an actual memory-mapped region instead of
// the in-process RAM simulation bank.RAM provides for unit tests. This
// adapts crwen-ckv/file/linux.go's mmap/munmap/msync trio to a single
// fixed-size region rather than a growable log file.
type File struct {
	fd   *os.File
	data []byte
}

// OpenFile opens (creating if necessary) a bank backed by path, sized
// to exactly size bytes. A freshly created file is filled with the
// erased (all-ones) pattern before being handed back, matching the
// state real NOR flash reads as out of the factory.
func OpenFile(path string, size uint32) (*File, error) {
	fd, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "bank: open %s", path)
	}

	info, err := fd.Stat()
	if err != nil {
		fd.Close()
		return nil, errors.Wrapf(err, "bank: stat %s", path)
	}
	fresh := info.Size() == 0

	if info.Size() != int64(size) {
		if err := fd.Truncate(int64(size)); err != nil {
			fd.Close()
			return nil, errors.Wrapf(err, "bank: truncate %s", path)
		}
	}

	data, err := unix.Mmap(int(fd.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		fd.Close()
		return nil, errors.Wrapf(err, "bank: mmap %s", path)
	}

	f := &File{fd: fd, data: data}
	if fresh {
		f.Erase()
	}
	return f, nil
}

func (f *File) Erase() bool {
	for i := range f.data {
		f.data[i] = 0xFF
	}
	return unix.Msync(f.data, unix.MS_SYNC) == nil
}

func (f *File) Write(offset uint32, data []byte) bool {
	if uint64(offset)+uint64(len(data)) > uint64(len(f.data)) {
		return false
	}
	for i, b := range data {
		f.data[offset+uint32(i)] &= b
	}
	return unix.Msync(f.data, unix.MS_SYNC) == nil
}

func (f *File) CRC(data []byte) uint32 {
	return CRC32(data)
}

func (f *File) Base() []byte {
	return f.data
}

func (f *File) Size() uint32 {
	return uint32(len(f.data))
}

// Close unmaps and closes the underlying file.
func (f *File) Close() error {
	if err := unix.Munmap(f.data); err != nil {
		return errors.Wrap(err, "bank: munmap")
	}
	return f.fd.Close()
}
