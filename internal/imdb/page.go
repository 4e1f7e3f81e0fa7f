package imdb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/Clark-Hu/trimscore/internal/domain"
)

var pageTemplate = template.Must(template.New("ratings").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}} - User ratings</title></head>
<body>
<main><h1>{{.Title}}</h1></main>
<script id="__NEXT_DATA__" type="application/json">{{.Data}}</script>
</body>
</html>
`))

// RenderRatingsPage builds a minimal ratings page carrying h in the same
// embedded page-state shape the live site uses. It backs the local mock server.
func RenderRatingsPage(title string, h domain.Histogram) ([]byte, error) {
	payload := map[string]interface{}{
		"props": map[string]interface{}{
			"pageProps": map[string]interface{}{
				"contentData": map[string]interface{}{
					"histogramData": map[string]interface{}{
						"histogramValues": h[:],
					},
				},
			},
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal page data: %w", err)
	}

	var buf bytes.Buffer
	err = pageTemplate.Execute(&buf, struct {
		Title string
		Data  template.JS
	}{Title: title, Data: template.JS(data)})
	if err != nil {
		return nil, fmt.Errorf("render ratings page: %w", err)
	}
	return buf.Bytes(), nil
}
