// Package mmap maps local dataset files read-only into memory.
//
//	m, err := mmap.Open("data.npz")
//	if err != nil { ... }
//	defer m.Close()
//
//	_ = m.Advise(mmap.AccessSequential)
//	archive, err := zip.NewReader(m, int64(m.Size()))
//
// Unix uses mmap(2) with madvise(2) hints. Windows uses
// CreateFileMapping/MapViewOfFile and ignores hints.
//
// A Mapping is safe for concurrent reads. Close is idempotent; callers must
// not touch Bytes() after Close returns.
package mmap
