package playlist

import (
	"fmt"
	"strings"

	"github.com/grafov/m3u8"
	"github.com/pkg/errors"
)

type Info struct {
	Master    bool
	Variants  int
	Segments  int
	Encrypted bool
	Duration  float64
}

func (info *Info) String() string {
	if info.Master {
		return fmt.Sprintf("master playlist, %d variants", info.Variants)
	}
	return fmt.Sprintf(
		"media playlist, %d segments, %.1fs, encrypted=%t",
		info.Segments, info.Duration, info.Encrypted,
	)
}

// Inspect decodes a manifest and summarizes it. Used for logging only;
// the rewriter never depends on it.
func Inspect(manifest string) (*Info, error) {
	playlist, listType, err := m3u8.DecodeFrom(strings.NewReader(manifest), false)
	if err != nil {
		return nil, fmt.Errorf("failed parsing m3u8: %w", err)
	}
	switch listType {
	case m3u8.MASTER:
		master := playlist.(*m3u8.MasterPlaylist)
		return &Info{
			Master:   true,
			Variants: len(master.Variants),
		}, nil
	case m3u8.MEDIA:
		media := playlist.(*m3u8.MediaPlaylist)
		info := &Info{Encrypted: media.Key != nil}
		for _, segment := range media.Segments {
			if segment == nil {
				continue
			}
			info.Segments++
			info.Duration += segment.Duration
			if segment.Key != nil {
				info.Encrypted = true
			}
		}
		return info, nil
	}
	return nil, errors.New("unsupported m3u8 playlist type")
}
