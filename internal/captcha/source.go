package captcha

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pixgate/internal/constants"
)

// ImageSource loads the bytes of image number n from the named pool.
type ImageSource interface {
	Load(ctx context.Context, pool string, n int) ([]byte, error)
}

// DirSource serves <Root>/<pool><n>.png from the local file system.
type DirSource struct {
	Root string
}

func NewDirSource(root string) *DirSource {
	return &DirSource{Root: root}
}

func (d *DirSource) Load(ctx context.Context, pool string, n int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if pool == "" || strings.ContainsAny(pool, `/\`) || strings.Contains(pool, "..") {
		return nil, fmt.Errorf("bad pool name %q", pool)
	}
	name := fmt.Sprintf("%s%d%s", pool, n, constants.ImageExtension)
	return os.ReadFile(filepath.Join(d.Root, name))
}
