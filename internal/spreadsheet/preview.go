//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.960 generate -f preview.templ

package spreadsheet

import (
	"context"
	"strings"

	"github.com/a-h/templ"
)

// Component renders the preview as an HTML fragment: a summary line and a
// bordered table. Header and cell values are escaped by the template.
func (p Preview) Component() templ.Component {
	return previewTable(p)
}

// HTML renders the preview fragment to a string.
func (p Preview) HTML(ctx context.Context) (string, error) {
	var b strings.Builder
	if err := p.Component().Render(ctx, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}
