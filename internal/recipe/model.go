package recipe

// Recipe is a candidate recipe as stored in the document store. Ingredient
// strings are kept exactly as authored; normalization happens in the engine.
type Recipe struct {
	ID              string   `json:"id" db:"id"`
	Title           string   `json:"title" db:"title"`
	Instructions    string   `json:"instructions" db:"instructions"`
	Ingredients     []string `json:"ingredients"`
	PreparationTime int      `json:"preparation_time" db:"preparation_time"`
	CookingTime     int      `json:"cooking_time" db:"cooking_time"`
	Calories        int      `json:"calories" db:"calories"`
	ImageURL        string   `json:"image_url" db:"image_url"`
}

// TotalTime is preparation plus cooking time in minutes.
func (r *Recipe) TotalTime() int {
	return r.PreparationTime + r.CookingTime
}

// Product is a scannable product and its ingredient list, keyed by barcode.
type Product struct {
	Barcode     string   `json:"barcode" db:"barcode"`
	Name        string   `json:"name" db:"name"`
	Ingredients []string `json:"ingredients"`
}
