package presenter

import (
	"github.com/stwalsh4118/property-analyzer/internal/catalog"
	"github.com/stwalsh4118/property-analyzer/internal/models"
)

// Placeholder texts shown by the page.
const (
	NoDataMessage  = "No property data found"
	LoadingMessage = "Analyzing your documents..."
	Title          = "Property Details"
)

// FieldView is a single label/value pair.
type FieldView struct {
	Key   string `json:"key" msgpack:"key"`
	Label string `json:"label" msgpack:"label"`
	Value string `json:"value" msgpack:"value"`
}

// GroupView is a catalog group with the fields the record actually carries.
type GroupView struct {
	Label  string      `json:"label" msgpack:"label"`
	Fields []FieldView `json:"fields" msgpack:"fields"`
}

// PropertyView is the rendered form of one PropertyRecord.
type PropertyView struct {
	HasData     bool        `json:"has_data" msgpack:"has_data"`
	Description string      `json:"description,omitempty" msgpack:"description,omitempty"`
	Groups      []GroupView `json:"groups" msgpack:"groups"`
}

// Present builds the grouped view of record. A nil record yields a view with
// HasData unset so callers show NoDataMessage instead.
//
// Fields that appear in no catalog group are not shown.
// TODO: surface uncatalogued fields in an "Other" group once the analysis
// service's field list settles.
func Present(record models.PropertyRecord) PropertyView {
	if record == nil {
		return PropertyView{Groups: []GroupView{}}
	}

	view := PropertyView{
		HasData: true,
		Groups:  []GroupView{},
	}

	if desc, ok := record.Get(catalog.DescriptionField); ok && desc.Truthy() {
		view.Description = desc.Raw()
	}

	for _, group := range catalog.Groups() {
		fields := make([]FieldView, 0, len(group.Fields))
		for _, key := range group.Fields {
			if key == catalog.DescriptionField || !record.Has(key) {
				continue
			}
			fields = append(fields, FieldView{
				Key:   key,
				Label: Normalize(key),
				Value: FormatField(record, key),
			})
		}
		if len(fields) == 0 {
			continue
		}
		view.Groups = append(view.Groups, GroupView{Label: group.Label, Fields: fields})
	}

	return view
}

// PageState is the parent page's state at render time.
type PageState struct {
	Loading bool
	Error   string
	Record  models.PropertyRecord
}

// PageView says which blocks of the page are visible.
type PageView struct {
	Loading        bool          `json:"loading" msgpack:"loading"`
	LoadingMessage string        `json:"loading_message,omitempty" msgpack:"loading_message,omitempty"`
	Error          string        `json:"error,omitempty" msgpack:"error,omitempty"`
	Property       *PropertyView `json:"property,omitempty" msgpack:"property,omitempty"`
	Placeholder    string        `json:"placeholder,omitempty" msgpack:"placeholder,omitempty"`
}

// PresentPage decides what the result area shows. The record is only shown
// when nothing is loading and no error is pending; the placeholder only when
// there is nothing else to show.
func PresentPage(state PageState) PageView {
	page := PageView{
		Loading: state.Loading,
		Error:   state.Error,
	}
	if state.Loading {
		page.LoadingMessage = LoadingMessage
	}

	switch {
	case state.Loading || state.Error != "":
	case state.Record != nil:
		view := Present(state.Record)
		page.Property = &view
	default:
		page.Placeholder = NoDataMessage
	}

	return page
}
