package playlist

// Attribute keys tracked on every record.
const (
	AttrGroup   = "group-title"
	AttrTvgName = "tvg-name"
)

// Record is one channel entry.
//
// All fields are plain values, so assigning a Record copies it completely.
// Group and TvgName are derived from MetadataLine and kept in sync by [Record.SetGroup]
// and [Record.Rewrite].
type Record struct {
	MetadataLine  string
	LocatorLine   string
	DisplayName   string
	Group         string
	TvgName       string
	OriginalIndex int
}

// NewRecord opens a record from a metadata line and derives its fields.
func NewRecord(metadataLine string, index int) Record {
	r := Record{MetadataLine: metadataLine, OriginalIndex: index}
	r.derive()
	return r
}

// Attribute returns the value of key in the metadata line, or "" when absent.
func (r Record) Attribute(key string) string {
	return ExtractAttribute(r.MetadataLine, key)
}

// Clone returns an independent copy. Mutating the copy never affects r.
func (r Record) Clone() Record {
	return r
}

// SetGroup rewrites the group-title attribute in place, inserting it when missing.
func (r *Record) SetGroup(group string) {
	r.MetadataLine = UpsertAttribute(r.MetadataLine, AttrGroup, group)
	r.Group = group
}

// Rewrite replaces both lines and re-derives the display name and tracked attributes.
func (r *Record) Rewrite(metadataLine, locatorLine string) {
	r.MetadataLine = metadataLine
	r.LocatorLine = locatorLine
	r.derive()
}

func (r *Record) derive() {
	r.DisplayName = DisplayName(r.MetadataLine)
	r.Group = ExtractAttribute(r.MetadataLine, AttrGroup)
	r.TvgName = ExtractAttribute(r.MetadataLine, AttrTvgName)
}
