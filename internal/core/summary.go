package core

// CategoryTotal is the aggregate of a set of expenses sharing a category.
type CategoryTotal struct {
	Category Category
	Total    Money
	Count    int
}
