package walstore

import (
	"fmt"
	"io"

	"github.com/spf13/afero"
)

// File is a writable, syncable file handle.
type File interface {
	io.WriteCloser
	Sync() error
}

// ReadFile is a readable file handle.
type ReadFile interface {
	io.ReadCloser
}

// Filesys is the small database-specific filesystem surface walstore
// needs: open/create/exists/delete plus a crash-safe atomic write. Adapted
// from the teacher's fs.Filesys, trimmed to what a single WAL-plus-
// snapshot store actually uses (no per-table Rename/Truncate/Stats
// tracking, since this store never has more than two named files).
type Filesys interface {
	Open(name string) (ReadFile, error)
	Create(name string) (File, error)
	Exists(name string) bool
	Delete(name string) error
	// AtomicCreateWith writes data to name such that a crash never leaves
	// a partially-written file visible under that name: write to a temp
	// file, fsync, then rename over the destination.
	AtomicCreateWith(name string, data []byte) error
}

type aferoFilesys struct {
	fs afero.Fs
}

// deleteTmpFiles removes every leftover "*.tmp" file, the recovery step
// for a crash between AtomicCreateWith's write and its rename: such a
// crash leaves a "name.tmp" file that nothing else will ever clean up,
// the same recovery the teacher's fs.FromAfero performs on open.
func deleteTmpFiles(fs afero.Fs) error {
	tmpFiles, err := afero.Glob(fs, abs("*.tmp"))
	if err != nil {
		return err
	}
	for _, name := range tmpFiles {
		if err := fs.Remove(name); err != nil {
			return err
		}
	}
	return nil
}

// FromAfero adapts any afero.Fs into a Filesys, in the teacher's own
// style (fs.FromAfero): absolute paths rooted at "/", so callers should
// pass an afero.NewBasePathFs when they want files confined to a
// directory (see Dir). Sweeps leftover "*.tmp" files left behind by a
// crash mid-AtomicCreateWith before returning.
func FromAfero(fs afero.Fs) (Filesys, error) {
	if err := deleteTmpFiles(fs); err != nil {
		return nil, err
	}
	return aferoFilesys{fs: fs}, nil
}

// Mem creates an in-memory Filesys, for tests and ephemeral use.
func Mem() Filesys {
	fs, err := FromAfero(afero.NewMemMapFs())
	if err != nil {
		// A freshly created in-memory filesystem has nothing to sweep;
		// deleteTmpFiles cannot fail against it.
		panic(err)
	}
	return fs
}

// Dir creates an OS-directory-backed Filesys rooted at basedir, creating
// basedir if it does not exist.
func Dir(basedir string) (Filesys, error) {
	base := afero.NewOsFs()
	if err := base.MkdirAll(basedir, 0o755); err != nil {
		return nil, err
	}
	return FromAfero(afero.NewBasePathFs(base, basedir))
}

func abs(name string) string {
	return fmt.Sprintf("/%s", name)
}

func (f aferoFilesys) Open(name string) (ReadFile, error) {
	return f.fs.Open(abs(name))
}

func (f aferoFilesys) Create(name string) (File, error) {
	return f.fs.Create(abs(name))
}

func (f aferoFilesys) Exists(name string) bool {
	ok, err := afero.Exists(f.fs, abs(name))
	return err == nil && ok
}

func (f aferoFilesys) Delete(name string) error {
	return f.fs.Remove(abs(name))
}

func (f aferoFilesys) AtomicCreateWith(name string, data []byte) error {
	tmp := abs(name + ".tmp")
	if err := afero.WriteFile(f.fs, tmp, data, 0o644); err != nil {
		return err
	}
	tf, err := f.fs.Open(tmp)
	if err != nil {
		return err
	}
	if syncer, ok := tf.(interface{ Sync() error }); ok {
		_ = syncer.Sync()
	}
	_ = tf.Close()
	return f.fs.Rename(tmp, abs(name))
}
