// Package upload stages request file attachments on disk before the
// creation workflow runs. A rejected file (size or extension) never
// reaches the workflow; a staged file that outlives a failed creation is
// discarded by the workflow's rollback path.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrUnsupportedType is returned for files whose extension is outside the
// policy allow-list.
var ErrUnsupportedType = errors.New("unsupported file format")

// ErrTooLarge is returned for files exceeding the policy size limit.
var ErrTooLarge = errors.New("file too large")

// Policy describes where and under which constraints one resource kind
// stages its attachments.
type Policy struct {
	// Dir is the directory staged files are written to.
	Dir string
	// URLPrefix is the public prefix the staged file is served under.
	URLPrefix string
	// FilePrefix namespaces staged file names within Dir.
	FilePrefix string
	// MaxBytes caps the accepted file size.
	MaxBytes int64
	// Extensions is the lowercase allow-list, without the leading dot.
	Extensions []string
}

// ExperimentPolicy stages experiment data files under dir/experiments.
func ExperimentPolicy(dir string) Policy {
	return Policy{
		Dir:        filepath.Join(dir, "experiments"),
		URLPrefix:  "/uploads/experiments",
		FilePrefix: "exp-",
		MaxBytes:   10 << 20,
		Extensions: []string{"csv", "json", "txt", "dat", "xlsx", "zip"},
	}
}

// PostcardPolicy stages postcard images directly under dir.
func PostcardPolicy(dir string) Policy {
	return Policy{
		Dir:        dir,
		URLPrefix:  "/uploads",
		FilePrefix: "postcard-",
		MaxBytes:   5 << 20,
		Extensions: []string{"jpg", "jpeg", "png", "gif"},
	}
}

// Staged is a file already written to its final location. The creation
// workflow either links its URL into a record or discards it.
type Staged struct {
	// Path is the on-disk location of the staged file.
	Path string
	// URL is the relative URL the file is served under.
	URL string
}

// Discard removes the staged file from disk.
func (s *Staged) Discard() error {
	if s == nil {
		return nil
	}
	return os.Remove(s.Path)
}

// Stage validates the attachment against the policy and writes it to the
// policy directory under a fresh unique name. Validation failures return
// ErrUnsupportedType or ErrTooLarge without leaving anything on disk.
func (p Policy) Stage(src multipart.File, header *multipart.FileHeader) (*Staged, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), ".")
	if !p.allows(ext) {
		return nil, fmt.Errorf("%w: .%s", ErrUnsupportedType, ext)
	}
	if header.Size > p.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrTooLarge, header.Size, p.MaxBytes)
	}

	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	name := p.FilePrefix + uuid.New().String() + "." + ext
	target := filepath.Join(p.Dir, name)

	dst, err := os.Create(target)
	if err != nil {
		return nil, fmt.Errorf("stage upload: %w", err)
	}

	// Guard against a lying Content-Length: stop one byte past the limit.
	written, err := io.Copy(dst, io.LimitReader(src, p.MaxBytes+1))
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && written > p.MaxBytes {
		err = fmt.Errorf("%w: body exceeds limit of %d", ErrTooLarge, p.MaxBytes)
	}
	if err != nil {
		_ = os.Remove(target)
		return nil, err
	}

	return &Staged{
		Path: target,
		URL:  path.Join(p.URLPrefix, name),
	}, nil
}

func (p Policy) allows(ext string) bool {
	for _, allowed := range p.Extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
