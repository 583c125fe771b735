package results

import (
	"fmt"
	"html/template"
	"io"
)

// fragmentTemplate renders a View as an HTML fragment for the shell's
// server-rendered output panel. Panels are emitted already expanded; the
// first panel spans the full row, later ones a third of it.
var fragmentTemplate = template.Must(template.New("results").Parse(`{{if .Notice}}<div class="notice notice-info">{{.Notice}}</div>{{else}}{{range .Sections}}<details class="section{{if .FullWidth}} section-wide{{else}} section-narrow{{end}}" data-key="{{.Key}}"{{if .Expanded}} open{{end}}>
<summary>{{.Title}}</summary>
<ul class="fields">
{{range .Rows}}<li data-key="{{.Key}}"><span class="field-name">{{.Name}}</span> <b class="field-value">{{.Value}}</b> <span class="field-unit">{{.Unit}}</span></li>
{{end}}</ul>
</details>
{{end}}{{end}}`))

// WriteFragment renders the view as an HTML fragment.
func WriteFragment(w io.Writer, view View) error {
	if err := fragmentTemplate.Execute(w, view); err != nil {
		return fmt.Errorf("failed to render results fragment: %w", err)
	}
	return nil
}
