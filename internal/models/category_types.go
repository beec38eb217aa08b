package models

// Category defines the struct for the 'categories' table.
// Ids come from supplier price lists, so they are not auto-generated.
type Category struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}
