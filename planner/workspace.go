package planner

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

type previewBundle struct {
	name string
	path string
}

// presentBundles returns, sorted by name, the preview bundles whose
// build-output directory exists in fsys. A missing directory means the
// bundle is not part of this run. Any other stat failure is returned.
func presentBundles(fsys fs.FS, bundles map[string]string) ([]previewBundle, error) {
	if fsys == nil || len(bundles) == 0 {
		return nil, nil
	}

	names := make([]string, 0, len(bundles))
	for name := range bundles {
		names = append(names, name)
	}
	sort.Strings(names)

	var present []previewBundle
	for _, name := range names {
		dir := path.Clean(strings.TrimPrefix(bundles[name], "./"))
		if !fs.ValidPath(dir) || dir == "." {
			return nil, fmt.Errorf("preview %s: path %q must be relative to the workspace", name, bundles[name])
		}

		info, err := fs.Stat(fsys, dir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("preview %s: %w", name, err)
		}
		if !info.IsDir() {
			continue
		}
		present = append(present, previewBundle{name: name, path: dir})
	}
	return present, nil
}
