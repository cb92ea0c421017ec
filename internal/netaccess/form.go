package netaccess

import (
	"fmt"
	"github.com/PuerkitoBio/goquery"
	"net/url"
	"strings"
)

// hiddenFields extracts the values of the named form inputs present in a page.
// Inputs the page does not carry are skipped.
func hiddenFields(page string, names ...string) url.Values {
	values := url.Values{}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return values
	}
	for _, name := range names {
		input := doc.Find(fmt.Sprintf(`input[name=%q]`, name)).First()
		if value, ok := input.Attr("value"); ok {
			values.Set(name, value)
		}
	}
	return values
}
