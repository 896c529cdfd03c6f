package entities

// Category groups assemblies for reports and procurement sheets
type Category struct {
	Code          string
	Name          string
	Description   string
	Subcategories map[string]Subcategory
}

// Subcategory is a second level classification under a Category
type Subcategory struct {
	Code string
	Name string
}

// Classification labels used for items that are not catalog assemblies
const (
	CategoryCustom        = "CUSTOM"
	CategoryUncategorized = "UNCATEGORIZED"
)
