package models

// Well-known recording group names.
const (
	GroupDefault   = "Default"
	GroupDeleted   = "Deleted"
	GroupAllGroups = "All Groups" // pseudo-group spanning every recording
	AllShows       = "All Shows"  // aggregate entry heading every title list
)

// TitleCount is a recorded title and the number of recordings carrying it.
type TitleCount struct {
	Title string `json:"title"`
	Count int    `json:"count"`
}
