package vector

const (
	MetaTitle      = "title"
	MetaCleanTitle = "clean_title"
	MetaYear       = "year"
	MetaGenres     = "genres"
	MetaTags       = "tags"
)

// Map flattens the metadata into the key/value form used by document
// stores with a flexible payload (Chroma, Qdrant).
func (m Metadata) Map() map[string]any {
	return map[string]any{
		MetaTitle:      m.Title,
		MetaCleanTitle: m.CleanTitle,
		MetaYear:       m.Year,
		MetaGenres:     m.Genres,
		MetaTags:       m.Tags,
	}
}

// MetadataFromMap reads the fixed fields back out of a flexible payload.
// Missing or non-string values become empty strings.
func MetadataFromMap(m map[string]any) Metadata {
	get := func(key string) string {
		if m == nil {
			return ""
		}
		s, _ := m[key].(string)
		return s
	}

	return Metadata{
		Title:      get(MetaTitle),
		CleanTitle: get(MetaCleanTitle),
		Year:       get(MetaYear),
		Genres:     get(MetaGenres),
		Tags:       get(MetaTags),
	}
}
