package admin

import (
	"encoding/json"
	"fmt"

	"github.com/debemdeboas/yasny-slukh/internal/draft"
	"github.com/debemdeboas/yasny-slukh/internal/model"
)

// Field is one editable input of a record.
type Field struct {
	Name  string
	Label string
	Value string
	Long  bool
}

type Row struct {
	Key    string
	Fields []Field
}

type Collection struct {
	Kind  model.Kind
	Title string
	Rows  []Row
}

type fieldSpec struct {
	name  string
	label string
	long  bool
}

// Editable fields per collection, in form order. Names are the JSON names the
// editor accepts.
var collectionFields = map[model.Kind][]fieldSpec{
	model.KindProducts: {
		{name: "name", label: "Name"},
		{name: "price", label: "Price"},
		{name: "imageUrl", label: "Image URL"},
		{name: "description", label: "Description", long: true},
		{name: "specs", label: "Specs", long: true},
	},
	model.KindServices: {
		{name: "title", label: "Title"},
		{name: "name", label: "Name"},
		{name: "price", label: "Price"},
		{name: "icon", label: "Icon"},
		{name: "imageUrl", label: "Image URL"},
		{name: "contact", label: "Contact"},
		{name: "link", label: "Link"},
		{name: "description", label: "Description", long: true},
	},
	model.KindArticles: {
		{name: "title", label: "Title"},
		{name: "date", label: "Date"},
		{name: "image", label: "Image URL"},
		{name: "content", label: "Content (markdown)", long: true},
	},
	model.KindAbout: {
		{name: "title", label: "Title"},
		{name: "icon", label: "Icon"},
		{name: "description", label: "Description", long: true},
	},
	model.KindAdvantages: {
		{name: "title", label: "Title"},
		{name: "icon", label: "Icon"},
		{name: "description", label: "Description", long: true},
	},
	model.KindPartners: {
		{name: "name", label: "Name"},
		{name: "logo", label: "Logo URL"},
	},
}

var heroFields = []fieldSpec{
	{name: "title", label: "Title"},
	{name: "highlightedText", label: "Highlighted text"},
	{name: "subtitle", label: "Subtitle"},
	{name: "description", label: "Description", long: true},
}

var collectionTitles = map[model.Kind]string{
	model.KindProducts:   "Products",
	model.KindServices:   "Services",
	model.KindArticles:   "Articles",
	model.KindAbout:      "About",
	model.KindAdvantages: "Advantages",
	model.KindPartners:   "Partners",
}

// fieldsOf lists the form field names of kind.
func fieldsOf(kind model.Kind) []string {
	specs := collectionFields[kind]
	names := make([]string, len(specs))
	for i, f := range specs {
		names[i] = f.name
	}
	return names
}

func fill(specs []fieldSpec, values map[string]any) []Field {
	fields := make([]Field, len(specs))
	for i, spec := range specs {
		fields[i] = Field{Name: spec.name, Label: spec.label, Long: spec.long}
		if v, ok := values[spec.name]; ok && v != nil {
			fields[i].Value = fmt.Sprint(v)
		}
	}
	return fields
}

func asMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func rowsOf[T model.Record[T]](items []T, specs []fieldSpec) ([]Row, error) {
	rows := make([]Row, len(items))
	for i, item := range items {
		values, err := asMap(item)
		if err != nil {
			return nil, err
		}
		rows[i] = Row{Key: draft.Key(item, i), Fields: fill(specs, values)}
	}
	return rows, nil
}

func collectionRows(s *model.Snapshot, kind model.Kind) ([]Row, error) {
	specs := collectionFields[kind]
	switch kind {
	case model.KindProducts:
		return rowsOf(s.Products, specs)
	case model.KindServices:
		return rowsOf(s.Services, specs)
	case model.KindArticles:
		return rowsOf(s.Articles, specs)
	case model.KindAbout:
		return rowsOf(s.About, specs)
	case model.KindAdvantages:
		return rowsOf(s.Advantages, specs)
	case model.KindPartners:
		return rowsOf(s.Partners, specs)
	}
	return nil, fmt.Errorf("%w: %q", draft.ErrUnknownKind, kind)
}

// Collections builds the editable view of every collection of s.
func Collections(s *model.Snapshot) ([]Collection, error) {
	out := make([]Collection, 0, len(model.EditableKinds))
	for _, kind := range model.EditableKinds {
		rows, err := collectionRows(s, kind)
		if err != nil {
			return nil, err
		}
		out = append(out, Collection{Kind: kind, Title: collectionTitles[kind], Rows: rows})
	}
	return out, nil
}

func HeroFields(h model.Hero) []Field {
	values, _ := asMap(h)
	return fill(heroFields, values)
}
