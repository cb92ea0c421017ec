package netaccess

import (
	"github.com/PuerkitoBio/goquery"
	"strings"
	"unicode"
)

// Machine represents a single row of the portal's authorized machines table
type Machine struct {
	IP      string
	MAC     string
	Expires string

	// Columns maps every header of the table to the row's cell text
	Columns map[string]string
}

// ParseMachines extracts the authorized machines from the portal's landing page.
// The first table whose header names an IP or MAC column is used; a page without one yields no machines.
func ParseMachines(page string) ([]Machine, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, err
	}

	machines := []Machine{}
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		rows := table.Find("tr")
		if rows.Length() == 0 {
			return true
		}
		headers := cellTexts(rows.First())
		ipCol := columnIndex(headers, "ip")
		macCol := columnIndex(headers, "mac")
		if ipCol < 0 && macCol < 0 {
			return true
		}
		expiresCol := columnIndex(headers, "expiry", "expires", "till", "valid")

		rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
			cells := cellTexts(row)
			if len(cells) == 0 {
				return
			}
			machine := Machine{
				IP:      cellAt(cells, ipCol),
				MAC:     cellAt(cells, macCol),
				Expires: cellAt(cells, expiresCol),
				Columns: make(map[string]string, len(headers)),
			}
			for i, header := range headers {
				machine.Columns[header] = cellAt(cells, i)
			}
			machines = append(machines, machine)
		})
		return false
	})
	return machines, nil
}

func cellTexts(row *goquery.Selection) []string {
	var texts []string
	row.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
		texts = append(texts, strings.Join(strings.Fields(cell.Text()), " "))
	})
	return texts
}

func cellAt(cells []string, index int) string {
	if index < 0 || index >= len(cells) {
		return ""
	}
	return cells[index]
}

// columnIndex returns the first header containing one of the keys as a whole word, or -1
func columnIndex(headers []string, keys ...string) int {
	for i, header := range headers {
		words := strings.FieldsFunc(strings.ToLower(header), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, word := range words {
			for _, key := range keys {
				if word == key {
					return i
				}
			}
		}
	}
	return -1
}
