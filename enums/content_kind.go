package enums

type ContentKind string

const (
	ContentKindManifest    ContentKind = "manifest"
	ContentKindSegment     ContentKind = "segment"
	ContentKindPassthrough ContentKind = "passthrough"
)
