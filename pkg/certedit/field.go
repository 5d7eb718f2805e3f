package certedit

import "math"

const (
	MinPercent = 5.0
	MaxPercent = 95.0
)

// Position is a percentage of the container: Top of its height, Left of its width.
// It marks the center of the field's overlay.
type Position struct {
	Top  float64 `json:"top" form:"top"`
	Left float64 `json:"left" form:"left"`
}

func clampPercent(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 50
	}
	return math.Min(MaxPercent, math.Max(MinPercent, v))
}

// Clamp keeps both coordinates inside the template margins.
func (p Position) Clamp() Position {
	return Position{Top: clampPercent(p.Top), Left: clampPercent(p.Left)}
}

type VisualOverrides struct {
	FontSize   float64    `json:"fontSize"`
	FontWeight FontWeight `json:"fontWeight"`
	Color      string     `json:"color"`
	FontFamily string     `json:"fontFamily"`
}

type Field struct {
	Key      FieldKey
	Text     string
	Image    BlobHandle
	Position Position

	// Fixed role styling, used by certificate fields.
	SizeOffset float64
	Weight     FontWeight
	Color      string

	// Non-nil only for standalone fields (marksheet).
	Overrides *VisualOverrides
}

func (f Field) HasImage() bool {
	return f.Key == FieldSignature && f.Image != ""
}

func (f Field) clone() Field {
	if f.Overrides != nil {
		o := *f.Overrides
		f.Overrides = &o
	}
	return f
}

// FieldSet holds the authoritative state of every field of one open editor.
// It is not safe for concurrent use; Editor serializes access.
type FieldSet struct {
	docType DocumentType
	order   []FieldKey
	fields  map[FieldKey]*Field
}

// NewFieldSet merges the template's default positions with seed content.
// The template is only read.
func NewFieldSet(t *Template, seed map[FieldKey]string) *FieldSet {
	defaults := t.DefaultPositions()

	fs := &FieldSet{
		docType: t.Type,
		order:   t.Keys(),
		fields:  make(map[FieldKey]*Field, len(t.Fields)),
	}

	for _, spec := range t.Fields {
		f := &Field{
			Key:        spec.Key,
			Text:       spec.Placeholder,
			Position:   defaults[spec.Key].Clamp(),
			SizeOffset: spec.SizeOffset,
			Weight:     spec.Weight,
			Color:      spec.Color,
		}
		if v, ok := seed[spec.Key]; ok && v != "" {
			f.Text = v
		}
		if t.Standalone {
			o := t.DefaultOverrides
			f.Overrides = &o
		}
		fs.fields[spec.Key] = f
	}

	return fs
}

func (fs *FieldSet) Has(key FieldKey) bool {
	_, ok := fs.fields[key]
	return ok
}

func (fs *FieldSet) Field(key FieldKey) (Field, error) {
	f, ok := fs.fields[key]
	if !ok {
		return Field{}, &UnknownFieldError{Key: key, DocumentType: fs.docType}
	}
	return f.clone(), nil
}

// Fields returns copies of every field in template order.
func (fs *FieldSet) Fields() []Field {
	out := make([]Field, 0, len(fs.order))
	for _, k := range fs.order {
		out = append(out, fs.fields[k].clone())
	}
	return out
}

// SetContent replaces a field's text. Unknown keys are ignored.
func (fs *FieldSet) SetContent(key FieldKey, value string) {
	if f, ok := fs.fields[key]; ok {
		f.Text = value
	}
}

// SetOverrides replaces the visual overrides of a standalone field.
// Unknown keys and fixed role fields are ignored.
func (fs *FieldSet) SetOverrides(key FieldKey, o VisualOverrides) {
	if f, ok := fs.fields[key]; ok && f.Overrides != nil {
		f.Overrides = &o
	}
}

func (fs *FieldSet) setImage(key FieldKey, h BlobHandle) {
	if f, ok := fs.fields[key]; ok {
		f.Image = h
	}
}

func (fs *FieldSet) SetPosition(key FieldKey, p Position) error {
	f, ok := fs.fields[key]
	if !ok {
		return &UnknownFieldError{Key: key, DocumentType: fs.docType}
	}
	f.Position = p.Clamp()
	return nil
}

// ResetPositions restores every field to its default position. Content is untouched.
func (fs *FieldSet) ResetPositions(defaults map[FieldKey]Position) {
	for k, f := range fs.fields {
		if p, ok := defaults[k]; ok {
			f.Position = p
		}
	}
}

func (fs *FieldSet) Positions() map[FieldKey]Position {
	out := make(map[FieldKey]Position, len(fs.fields))
	for k, f := range fs.fields {
		out[k] = f.Position
	}
	return out
}
