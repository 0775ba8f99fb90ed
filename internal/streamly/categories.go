package streamly

// Category maps a URL-friendly slug to the value the backend expects.
type Category struct {
	Slug string // slug used in CLI flags and URLs
	Name string // display name
}

// Categories is the fixed catalog the platform browses by.
var Categories = []Category{
	{Slug: "all", Name: "All"},
	{Slug: "series", Name: "Series"},
	{Slug: "movies", Name: "Movies"},
	{Slug: "comedy", Name: "Comedy"},
	{Slug: "sf", Name: "SF"},
}

// CategoryBySlug looks up a category by its slug. Returns nil when unknown.
func CategoryBySlug(slug string) *Category {
	for i := range Categories {
		if Categories[i].Slug == slug {
			return &Categories[i]
		}
	}
	return nil
}
