package playlist

import (
	"strings"

	"hlsgate/enums"
	"hlsgate/util"
)

const (
	keyDirectivePrefix = "#EXT-X-KEY:"
	directivePrefix    = "#"

	segmentExtension  = ".ts"
	manifestExtension = ".m3u8"
)

// ClassifyLine tells what a single manifest line is. Extensions are matched
// against the reference path only, so a line is never both a segment and a
// manifest reference.
func ClassifyLine(line string) enums.LineKind {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return enums.LineKindBlank
	case strings.HasPrefix(trimmed, keyDirectivePrefix):
		return enums.LineKindKeyDirective
	case strings.HasPrefix(trimmed, directivePrefix):
		return enums.LineKindDirective
	}
	path := strings.ToLower(util.StripQuery(trimmed))
	switch {
	case strings.HasSuffix(path, manifestExtension):
		return enums.LineKindManifest
	case strings.HasSuffix(path, segmentExtension):
		return enums.LineKindSegment
	default:
		return enums.LineKindOther
	}
}

// IsManifestURL reports whether a URL path names an HLS manifest.
func IsManifestURL(rawURL string) bool {
	return strings.HasSuffix(strings.ToLower(util.StripQuery(rawURL)), manifestExtension)
}

// IsSegmentURL reports whether a URL looks like a transport-stream segment.
// Matches anywhere in the URL, as some CDNs put the extension before path
// parameters.
func IsSegmentURL(rawURL string) bool {
	return strings.Contains(strings.ToLower(rawURL), segmentExtension)
}
