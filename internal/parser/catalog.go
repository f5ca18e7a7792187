package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"library_project/internal/models"
)

// ParseCatalog reads an HTML catalog export and returns the books found.
// Expected markup is a table whose rows carry a title cell and a genre cell;
// header rows and rows with missing fields are skipped. Best-effort: layouts
// vary, so the caller decides whether an empty result is acceptable.
func ParseCatalog(body io.Reader) ([]models.Book, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("read html: %w", err)
	}

	var books []models.Book

	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}

		title := strings.TrimSpace(cells.Eq(0).Text())
		genre := strings.TrimSpace(cells.Eq(1).Text())
		if title == "" || genre == "" {
			return
		}

		books = append(books, models.Book{Title: title, Genre: genre})
	})

	return books, nil
}
