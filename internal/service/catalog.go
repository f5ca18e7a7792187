package service

import "library_project/internal/models"

// defaultCatalog is the seed collection used when no catalog export is
// configured.
func defaultCatalog() []models.Book {
	seed := []struct {
		title string
		genre string
	}{
		{"1984", "Dystopian"},
		{"Brave New World", "Dystopian"},
		{"Fahrenheit 451", "Dystopian"},
		{"The Handmaid's Tale", "Dystopian"},
		{"Animal Farm", "Dystopian"},
		{"The Hobbit", "Fantasy"},
		{"The Lord of the Rings", "Fantasy"},
		{"Harry Potter", "Fantasy"},
		{"Mistborn", "Fantasy"},
		{"The Name of the Wind", "Fantasy"},
		{"Wheel of Time", "Fantasy"},
		{"Clean Code", "Tech"},
		{"Design Patterns", "Tech"},
		{"The Pragmatic Programmer", "Tech"},
		{"Refactoring", "Tech"},
		{"Introduction to Algorithms", "Tech"},
		{"Artificial Intelligence", "Tech"},
		{"Deep Learning", "Tech"},
		{"Dune", "Science Fiction"},
		{"Foundation", "Science Fiction"},
		{"Neuromancer", "Science Fiction"},
		{"Snow Crash", "Science Fiction"},
		{"The Martian", "Science Fiction"},
		{"A Brief History of Time", "Science"},
		{"Cosmos", "Science"},
		{"Sapiens", "History"},
		{"Homo Deus", "History"},
	}

	books := make([]models.Book, 0, len(seed))
	for _, s := range seed {
		books = append(books, models.Book{Title: s.title, Genre: s.genre})
	}
	return books
}
