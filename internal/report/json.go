package report

import (
	"encoding/json"
	"io"

	"inspector/internal/extractor"
)

// WriteJSON prints routes as an indented JSON array. A nil slice prints [].
func WriteJSON(w io.Writer, routes []extractor.Route) error {
	if routes == nil {
		routes = []extractor.Route{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(routes)
}
