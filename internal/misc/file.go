package misc

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

func IsFileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || os.IsExist(err)
}

// WriteFileAtomic replaces path with data so that readers observe either the
// old or the new content, never a partial write. An existing file keeps its
// permissions; a new one is created with perm.
func WriteFileAtomic(path string, data []byte, perm fs.FileMode) (err error) {
	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "Create folder ["+dir+"] failed")
	}

	if info, serr := os.Stat(path); serr == nil {
		perm = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(err, "Create temporary file in ["+dir+"] failed")
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "Write ["+tmpName+"] failed")
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "Sync ["+tmpName+"] failed")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "Close ["+tmpName+"] failed")
	}
	if err = os.Chmod(tmpName, perm); err != nil {
		return errors.Wrap(err, "Chmod ["+tmpName+"] failed")
	}
	if err = os.Rename(tmpName, path); err != nil {
		return errors.Wrap(err, "Replace ["+path+"] failed")
	}

	return nil
}
