// Package ramdisk turns a directory tree into assembler source that exposes the
// tree as a read-only in-memory filesystem. The generated unit defines three
// parallel tables (path strings, data pointers, sizes) and a count; index i in
// every table describes the same file.
//
// Bytes are never copied into the generated text. Each file is pulled in with
// an .incbin directive and its size is the difference of two labels, so the
// assembler and linker compute the exact byte count.
package ramdisk

import (
	"fmt"

	"github.com/opencontainers/go-digest"
)

// Global symbols the runtime links against.
const (
	PathArraySymbol = "ramdisk_path_array"
	DataArraySymbol = "ramdisk_file_data_array"
	SizeArraySymbol = "ramdisk_file_size_array"
	CountSymbol     = "ramdisk_num"
)

// DefaultWordDirective is the table cell directive for 32-bit targets.
const DefaultWordDirective = ".word"

// DefaultExcludeSuffix marks editor backup files.
const DefaultExcludeSuffix = "~"

// FileEntry is one embedded resource.
type FileEntry struct {
	Index   int    // 0-based, assigned in visit order
	RelPath string // root-relative, forward slashes, no trailing separator
	AbsPath string // resolved path handed to the include directive

	// Size and Digest are measured while walking. They feed build records
	// only; the emitted size table is label arithmetic.
	Size   int64
	Digest digest.Digest
}

// DataLabel is the label placed before the embedded bytes of entry i.
func DataLabel(i int) string { return fmt.Sprintf("file%d_data", i) }

// EndLabel is the label placed right after the embedded bytes of entry i.
func EndLabel(i int) string { return fmt.Sprintf("file%d_end", i) }

// PathLabel labels the null-terminated path string of entry i.
func PathLabel(i int) string { return fmt.Sprintf("path%d", i) }

// Image is the emitted ramdisk: the ordered entries behind the three tables.
type Image struct {
	Entries []FileEntry
}

// Count is the value written to ramdisk_num.
func (img *Image) Count() int {
	return len(img.Entries)
}

// TotalSize sums the measured sizes of all entries, excluding terminators.
func (img *Image) TotalSize() int64 {
	var total int64
	for _, e := range img.Entries {
		total += e.Size
	}
	return total
}
