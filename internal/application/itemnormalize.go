package application

import (
	"errors"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/ericfisherdev/exporthub/internal/domain/model"
)

// ErrEmptyTitle is returned when an export item has no title after normalization.
var ErrEmptyTitle = errors.New("export item title is required")

// ItemNormalizer turns checklist text into plain text safe to send to any
// provider. Checklist content may carry rich-text markup; providers render
// their own formatting, so all tags are stripped.
type ItemNormalizer struct {
	policy *bluemonday.Policy
}

// NewItemNormalizer creates an ItemNormalizer using bluemonday's strict policy.
func NewItemNormalizer() *ItemNormalizer {
	return &ItemNormalizer{policy: bluemonday.StrictPolicy()}
}

// Normalize strips markup from the title and content, collapses the title to a
// single line, and trims surrounding whitespace. It fails with ErrEmptyTitle
// when nothing remains of the title.
func (n *ItemNormalizer) Normalize(item model.ExportItem) (model.ExportItem, error) {
	title := strings.Join(strings.Fields(n.plain(item.Title)), " ")
	if title == "" {
		return model.ExportItem{}, ErrEmptyTitle
	}

	return model.ExportItem{
		Title:   title,
		Content: strings.TrimSpace(n.plain(item.Content)),
	}, nil
}

// plain sanitizes s and undoes the entity escaping bluemonday applies, since
// provider APIs take raw text rather than HTML.
func (n *ItemNormalizer) plain(s string) string {
	return html.UnescapeString(n.policy.Sanitize(s))
}
