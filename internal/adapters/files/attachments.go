package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/atvirokodosprendimai/studio/internal/domain"
	"github.com/atvirokodosprendimai/studio/internal/platform/apperr"
)

const AttachmentsDirName = "attachments"

// Attachments copies client files into <dataDir>/attachments/<clientID>/.
// A second file with the same base name replaces the first.
type Attachments struct {
	root string
}

func NewAttachments(dataDir string) (*Attachments, error) {
	root, err := filepath.Abs(filepath.Join(dataDir, AttachmentsDirName))
	if err != nil {
		return nil, err
	}
	return &Attachments{root: root}, nil
}

func (a *Attachments) Root() string { return a.root }

// Check fails with NotFound for a missing source and Validation for anything
// that is not a regular file.
func (a *Attachments) Check(srcPath string) error {
	info, err := os.Stat(srcPath)
	if err != nil {
		return apperr.Wrap(apperr.CodeNotFound, err, "attachment source not found")
	}
	if !info.Mode().IsRegular() {
		return apperr.Newf(apperr.CodeValidation, "%s is not a regular file", srcPath)
	}
	return nil
}

func (a *Attachments) Put(ctx context.Context, clientID uint, srcPath string) (domain.StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return domain.StoredFile{}, err
	}
	if err := a.Check(srcPath); err != nil {
		return domain.StoredFile{}, err
	}

	dir := filepath.Join(a.root, strconv.FormatUint(uint64(clientID), 10))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.StoredFile{}, fmt.Errorf("create attachment dir: %w", err)
	}
	name := filepath.Base(srcPath)
	dst := filepath.Join(dir, name)
	if err := copyFile(srcPath, dst); err != nil {
		return domain.StoredFile{}, err
	}
	return domain.StoredFile{Filename: name, Path: dst}, nil
}

// Remove deletes a stored copy. Paths outside the attachments root are refused.
func (a *Attachments) Remove(f domain.StoredFile) error {
	rel, err := filepath.Rel(a.root, f.Path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return apperr.Newf(apperr.CodeValidation, "%s is outside the attachments tree", f.Path)
	}
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove attachment: %w", err)
	}
	return nil
}

// copyFile writes through a temp file in the destination dir and renames it
// into place.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open attachment: %w", err)
	}
	defer func() { _ = in.Close() }()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return fmt.Errorf("stage attachment: %w", err)
	}
	if _, err := io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("copy attachment: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("store attachment: %w", err)
	}
	return nil
}
