package enums

type LineKind string

const (
	LineKindBlank        LineKind = "blank"
	LineKindDirective    LineKind = "directive"
	LineKindKeyDirective LineKind = "key_directive"
	LineKindSegment      LineKind = "segment"
	LineKindManifest     LineKind = "manifest"
	LineKindOther        LineKind = "other"
)
