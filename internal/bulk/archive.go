package bulk

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// ErrInvalidArchive is returned when the upload is not a readable ZIP file
var ErrInvalidArchive = errors.New("invalid zip archive")

// ErrEntryTooLarge marks an entry that decompresses past its limit
var ErrEntryTooLarge = errors.New("file too large")

// Limits bound the decompressed size of archive entries; zero means no limit.
// MaxTotalSize is shared by all entries, so a ZIP bomb cannot expand many
// small entries into a large allocation.
type Limits struct {
	MaxEntrySize int64
	MaxTotalSize int64
}

// Document is one file taken from an uploaded archive. Err is set, and Data
// empty, when the entry was not read because it exceeds the limits.
type Document struct {
	Path   string
	Parsed ParsedFileName
	Size   int64
	Data   []byte
	Err    error
}

// Reader returns a fresh reader over the file contents
func (d *Document) Reader() io.Reader {
	return bytes.NewReader(d.Data)
}

// ReadArchive extracts all regular files from a ZIP archive held in memory.
// Directories and OS metadata entries (__MACOSX, dot-files) are skipped; every
// other entry is returned with its parsed filename, valid or not.
func ReadArchive(data []byte, limits Limits) ([]Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}

	var total int64
	docs := make([]Document, 0, len(zr.File))
	for _, f := range zr.File {
		if skipEntry(f) {
			continue
		}

		doc := Document{Path: f.Name, Parsed: ParseFileName(f.Name)}
		limit, limitErr := limits.entryLimit(total)

		content, err := readEntry(f, limit)
		switch {
		case errors.Is(err, ErrEntryTooLarge):
			doc.Err = limitErr
			doc.Size = int64(f.UncompressedSize64)
		case err != nil:
			return nil, fmt.Errorf("%w: failed to read %s: %v", ErrInvalidArchive, f.Name, err)
		default:
			doc.Data = content
			doc.Size = int64(len(content))
			total += doc.Size
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// entryLimit returns the read limit of the next entry and the error reported
// when the entry exceeds it. A negative limit means unlimited.
func (l Limits) entryLimit(used int64) (int64, error) {
	limit := int64(-1)
	limitErr := ErrEntryTooLarge
	if l.MaxEntrySize > 0 {
		limit = l.MaxEntrySize
		limitErr = fmt.Errorf("%w: maximum size is %d MB", ErrEntryTooLarge, l.MaxEntrySize>>20)
	}
	if l.MaxTotalSize > 0 {
		left := max(l.MaxTotalSize-used, 0)
		if limit < 0 || left < limit {
			limit = left
			limitErr = fmt.Errorf("%w: archive expands beyond %d MB", ErrEntryTooLarge, l.MaxTotalSize>>20)
		}
	}
	return limit, limitErr
}

func skipEntry(f *zip.File) bool {
	if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
		return true
	}
	if strings.HasPrefix(f.Name, "__MACOSX/") {
		return true
	}
	return strings.HasPrefix(path.Base(f.Name), ".")
}

// readEntry decompresses f, reading at most limit bytes so a header that
// understates the size cannot force a larger allocation
func readEntry(f *zip.File, limit int64) ([]byte, error) {
	if limit >= 0 && f.UncompressedSize64 > uint64(limit) {
		return nil, ErrEntryTooLarge
	}

	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	if limit < 0 {
		return io.ReadAll(rc)
	}
	content, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(content)) > limit {
		return nil, ErrEntryTooLarge
	}
	return content, nil
}

// ArchiveFile is an entry written by WriteArchive
type ArchiveFile struct {
	Name    string
	Content []byte
}

// WriteArchive writes files into a new ZIP archive
func WriteArchive(w io.Writer, files []ArchiveFile) error {
	zw := zip.NewWriter(w)
	now := time.Now()
	for _, file := range files {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     file.Name,
			Method:   zip.Deflate,
			Modified: now,
		})
		if err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", file.Name, err)
		}
		if _, err := fw.Write(file.Content); err != nil {
			return fmt.Errorf("failed to write %s to archive: %w", file.Name, err)
		}
	}
	return zw.Close()
}

const exampleReadme = `Example ZIP archive for bulk safety sheet upload

Naming convention:
` + NamingConvention + `

Examples:
- ART001_NL_V1.pdf
- ART002_EN_V2.docx
- CHEM001_DE_V3.pdf

Supported languages: NL, EN, FR, DE
Supported files: PDF, DOC, DOCX
Maximum archive size: %d MB

Replace these example files with your own PDF/DOC documents.
`

// ExampleArchiveFiles returns the placeholder files of the downloadable example archive
func ExampleArchiveFiles(maxZipSizeMB int64) []ArchiveFile {
	return []ArchiveFile{
		{Name: "ART001_NL_V1.pdf", Content: []byte("Voorbeeld Nederlands veiligheidsblad voor artikel ART001")},
		{Name: "ART001_EN_V1.pdf", Content: []byte("Example English safety data sheet for article ART001")},
		{Name: "ART002_NL_V2.pdf", Content: []byte("Voorbeeld Nederlands veiligheidsblad voor artikel ART002")},
		{Name: "README.txt", Content: []byte(fmt.Sprintf(exampleReadme, maxZipSizeMB))},
	}
}
