package cellar

import (
	"archive/tar"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
	"go.trai.ch/tea/internal/core/domain"
	"go.trai.ch/zerr"
)

// DefaultMaxEntrySize caps the size of a single extracted file.
const DefaultMaxEntrySize int64 = 4 << 30

// decompress opens the compressed stream of a bottle.
func decompress(r io.Reader, c domain.Compression) (io.Reader, func() error, error) {
	switch c {
	case domain.CompressionGzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return gz, gz.Close, nil
	case domain.CompressionXZ:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return xr, func() error { return nil }, nil
	default:
		return nil, nil, zerr.With(domain.ErrUnsupportedCompression, "compression", string(c))
	}
}

// extractor unpacks one bottle below dest. Every write goes through root, so nothing lands outside dest
// even when the bottle carries symlinks.
type extractor struct {
	dest    string
	strip   string
	maxSize int64
	root    *os.Root
}

// extract unpacks the bottle at archivePath into dest. Entries rooted at strip
// (the bottle's <name>/v<version>/ prefix) are moved to the top of dest.
func (x *extractor) extract(ctx context.Context, archivePath string, c domain.Compression) error {
	f, err := os.Open(archivePath) //nolint:gosec // Path comes from the artifact cache
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCellarReadFailed.Error()), "path", archivePath)
	}
	defer f.Close() //nolint:errcheck // Read-only file

	r, closeFn, err := decompress(f, c)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveCorrupt.Error()), "path", archivePath)
	}
	defer closeFn() //nolint:errcheck // Decompressor holds no resources worth reporting

	root, err := os.OpenRoot(x.dest)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCellarWriteFailed.Error()), "path", x.dest)
	}
	defer root.Close() //nolint:errcheck // Directory handle
	x.root = root

	tr := tar.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return x.checkLinks()
		}
		if err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrArchiveCorrupt.Error()), "path", archivePath)
		}

		if err := x.entry(tr, hdr); err != nil {
			return err
		}
	}
}

func (x *extractor) entry(tr *tar.Reader, hdr *tar.Header) error {
	name, ok, err := x.target(hdr.Name)
	if err != nil || !ok {
		return err
	}
	if err := x.realParents(hdr.Name, name); err != nil {
		return err
	}

	switch hdr.Typeflag {
	case tar.TypeDir:
		return x.mkdir(name)
	case tar.TypeReg:
		return x.file(tr, hdr, name)
	case tar.TypeSymlink:
		return x.symlink(hdr, name)
	case tar.TypeLink:
		return x.hardlink(hdr, name)
	default:
		// Devices, fifos and PAX metadata have no place in a bottle.
		return nil
	}
}

// target maps an archive entry name to its slash separated path below dest.
// ok is false for the bottle's root itself.
func (x *extractor) target(entry string) (string, bool, error) {
	clean := path.Clean(strings.TrimPrefix(entry, "./"))
	if x.strip != "" {
		if clean == x.strip {
			return "", false, nil
		}
		clean = strings.TrimPrefix(clean, x.strip+"/")
	}
	if clean == "." {
		return "", false, nil
	}
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", false, zerr.With(domain.ErrArchiveUnsafePath, "entry", entry)
	}
	return clean, true, nil
}

// realParents rejects an entry when one of its already extracted parent directories is a symlink.
func (x *extractor) realParents(entry, name string) error {
	for dir := path.Dir(name); dir != "."; dir = path.Dir(dir) {
		info, err := x.root.Lstat(filepath.FromSlash(dir))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrCellarWriteFailed.Error()), "path", x.path(dir))
		}
		if info.Mode()&fs.ModeSymlink != 0 {
			return zerr.With(zerr.With(domain.ErrArchiveUnsafePath, "entry", entry), "parent", dir)
		}
	}
	return nil
}

func (x *extractor) file(tr *tar.Reader, hdr *tar.Header, name string) error {
	if hdr.Size > x.maxSize {
		return zerr.With(zerr.With(domain.ErrArchiveTooLarge, "entry", hdr.Name), "size", hdr.Size)
	}
	if err := x.mkdir(path.Dir(name)); err != nil {
		return err
	}

	mode := os.FileMode(hdr.Mode).Perm() | 0o600 //nolint:gosec // tar modes fit in FileMode
	out, err := x.root.OpenFile(filepath.FromSlash(name), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCellarWriteFailed.Error()), "path", x.path(name))
	}

	n, err := io.Copy(out, io.LimitReader(tr, x.maxSize+1))
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCellarWriteFailed.Error()), "path", x.path(name))
	}
	if n > x.maxSize {
		return zerr.With(domain.ErrArchiveTooLarge, "entry", hdr.Name)
	}
	return nil
}

func (x *extractor) symlink(hdr *tar.Header, name string) error {
	link := filepath.ToSlash(hdr.Linkname)
	if path.IsAbs(link) || filepath.IsAbs(hdr.Linkname) || !inside(path.Join(path.Dir(name), link)) {
		return zerr.With(zerr.With(domain.ErrArchiveUnsafePath, "entry", hdr.Name), "link", hdr.Linkname)
	}
	if err := x.mkdir(path.Dir(name)); err != nil {
		return err
	}
	if err := x.root.Symlink(hdr.Linkname, filepath.FromSlash(name)); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCellarWriteFailed.Error()), "path", x.path(name))
	}
	return nil
}

func (x *extractor) hardlink(hdr *tar.Header, name string) error {
	source, ok, err := x.target(hdr.Linkname)
	if err != nil || !ok {
		return zerr.With(zerr.With(domain.ErrArchiveUnsafePath, "entry", hdr.Name), "link", hdr.Linkname)
	}
	if err := x.mkdir(path.Dir(name)); err != nil {
		return err
	}
	if err := x.root.Link(filepath.FromSlash(source), filepath.FromSlash(name)); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCellarWriteFailed.Error()), "path", x.path(name))
	}
	return nil
}

// checkLinks rejects the bottle when one of its symlinks resolves outside dest. Symlinks may point
// through each other, so each one is only judged once the whole tree exists.
func (x *extractor) checkLinks() error {
	return fs.WalkDir(x.root.FS(), ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrCellarReadFailed.Error()), "path", x.path(p))
		}
		if d.Type()&fs.ModeSymlink == 0 {
			return nil
		}
		if _, err := x.root.Stat(filepath.FromSlash(p)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return zerr.With(domain.ErrArchiveUnsafePath, "entry", p)
		}
		return nil
	})
}

func (x *extractor) mkdir(dir string) error {
	if dir == "." {
		return nil
	}
	if err := x.root.MkdirAll(filepath.FromSlash(dir), domain.ExecPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCellarWriteFailed.Error()), "path", x.path(dir))
	}
	return nil
}

func (x *extractor) path(name string) string {
	return filepath.Join(x.dest, filepath.FromSlash(name))
}

// inside reports whether the cleaned slash path p stays below its starting directory.
func inside(p string) bool {
	return p != ".." && !strings.HasPrefix(p, "../")
}
