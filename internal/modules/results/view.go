package results

import "fmt"

// NoSolutionNotice is the informational empty-state text shown when a solve
// finished without a solution. It is not an error.
const NoSolutionNotice = "No solution found"

// RowView is one rendered field row: name, primary value, secondary unit.
type RowView struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Value string `json:"value"`
	Unit  string `json:"unit"`
}

// SectionView is one rendered collapsible panel.
type SectionView struct {
	Key      string `json:"key"`
	Title    string `json:"title"`
	Expanded bool   `json:"expanded"`
	// FullWidth marks the leading panel; all later panels render one-third
	// width. Presentation only, carries no meaning about the data.
	FullWidth bool      `json:"full_width"`
	Rows      []RowView `json:"rows"`
	Skipped   int       `json:"skipped,omitempty"`
}

// View is the complete render of one result payload.
type View struct {
	Notice   string        `json:"notice,omitempty"`
	Sections []SectionView `json:"sections"`
}

// Empty reports whether the view is the no-solution empty state.
func (v View) Empty() bool {
	return v.Notice != ""
}

// BuildView renders a result payload into its section/row view model.
//
// A nil payload or one with no output yields exactly one informational
// notice and zero sections. Otherwise every section becomes one expanded
// panel, in payload order, with the first panel full width. Row and section
// keys are index-qualified so duplicate names still get distinct identities,
// and the same payload always renders the same view.
func BuildView(payload *ResultPayload) View {
	if payload == nil || len(payload.Output) == 0 {
		return View{Notice: NoSolutionNotice}
	}

	view := View{Sections: make([]SectionView, 0, len(payload.Output))}
	for i, section := range payload.Output {
		sv := SectionView{
			Key:       itemKey(section.Name, i),
			Title:     section.Name,
			Expanded:  true,
			FullWidth: i == 0,
			Skipped:   section.Skipped,
			Rows:      make([]RowView, 0, len(section.Fields)),
		}
		for j, field := range section.Fields {
			sv.Rows = append(sv.Rows, RowView{
				Key:   itemKey(field.Name, j),
				Name:  field.Name,
				Value: field.Value,
				Unit:  field.Unit,
			})
		}
		view.Sections = append(view.Sections, sv)
	}

	return view
}

// itemKey builds a collision-resistant render key from an item's name and
// its position. Names can repeat inside a payload; positions cannot.
func itemKey(name string, index int) string {
	return fmt.Sprintf("%s#%d", name, index)
}
