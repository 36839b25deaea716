//go:build ffmpeg_embedded

package ffmpeg

import (
	"embed"
	"errors"
	"io"
	"io/fs"
)

// Archives following the ffbinaries release naming, dropped into prebuilt/
// before building with -tags ffmpeg_embedded. Lets storyforge install its
// encoder binaries on render boxes with no outbound network.
//
//go:embed prebuilt
var prebuiltArchives embed.FS

func openEmbeddedAsset(name string) (io.ReadCloser, bool, error) {
	file, err := prebuiltArchives.Open("prebuilt/" + name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return file, true, nil
}
