package pgtools

import (
	"bytes"
	"errors"
	"io"
	"os"
)

// archiveMagic starts every custom-format archive written by pg_dump.
var archiveMagic = []byte("PGDMP")

type RestoreFormat int

const (
	FormatArchive RestoreFormat = iota
	FormatPlainSQL
)

func (f RestoreFormat) String() string {
	if f == FormatPlainSQL {
		return "plain"
	}
	return "archive"
}

// DetectRestoreFormat classifies the input of a restore. Directories and
// files starting with the archive magic go to pg_restore; everything else is
// plain SQL. A file that cannot be read is left to pg_restore to report.
func DetectRestoreFormat(path string) RestoreFormat {
	info, err := os.Stat(path)
	if err != nil {
		return FormatArchive
	}
	if info.IsDir() {
		return FormatArchive
	}
	f, err := os.Open(path)
	if err != nil {
		return FormatArchive
	}
	defer func() {
		_ = f.Close()
	}()

	head := make([]byte, len(archiveMagic))
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return FormatArchive
	}
	if bytes.Equal(head[:n], archiveMagic) {
		return FormatArchive
	}
	return FormatPlainSQL
}
