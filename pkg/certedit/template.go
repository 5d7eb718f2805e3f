package certedit

import (
	"fmt"
	"strings"
)

type DocumentType string

const (
	DocumentCertificate DocumentType = "certificate"
	DocumentMarksheet   DocumentType = "marksheet"
)

// Title is the name used in download filenames, e.g. "Certificate".
func (d DocumentType) Title() string {
	switch d {
	case DocumentCertificate:
		return "Certificate"
	case DocumentMarksheet:
		return "Marksheet"
	default:
		return "Document"
	}
}

func ParseDocumentType(s string) (DocumentType, error) {
	switch DocumentType(strings.ToLower(strings.TrimSpace(s))) {
	case DocumentCertificate:
		return DocumentCertificate, nil
	case DocumentMarksheet:
		return DocumentMarksheet, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDocumentType, s)
}

type FieldKey string

const (
	FieldStudentName  FieldKey = "studentName"
	FieldCourseName   FieldKey = "courseName"
	FieldDescription  FieldKey = "description"
	FieldGrade        FieldKey = "grade"
	FieldDate         FieldKey = "date"
	FieldEnrollmentNo FieldKey = "enrollmentNo"
	FieldSignature    FieldKey = "signature"

	FieldRollNumber FieldKey = "rollNumber"
	FieldBatch      FieldKey = "batch"
	FieldTotalMarks FieldKey = "totalMarks"
	FieldPercentage FieldKey = "percentage"
	FieldResult     FieldKey = "result"
)

type Orientation string

const (
	Landscape Orientation = "landscape"
	Portrait  Orientation = "portrait"
)

// SeedRole tells which piece of the subject record pre-fills a field.
type SeedRole int

const (
	SeedNone SeedRole = iota
	SeedName
	SeedShortID
	SeedDate
)

// FieldSpec describes one field of a template. SizeOffset, Weight and Color
// only matter for templates without standalone styling.
type FieldSpec struct {
	Key         FieldKey
	Label       string
	Placeholder string
	Seed        SeedRole
	SizeOffset  float64
	Weight      FontWeight
	Color       string
}

// Size is expressed in logical points (1/72 inch).
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Template struct {
	Type        DocumentType
	Orientation Orientation
	Page        Size
	Background  ImageRef
	Fields      []FieldSpec
	Defaults    map[FieldKey]Position

	FontFamily string
	FontSize   float64

	// Standalone templates style every field on its own; see Resolve.
	Standalone       bool
	DefaultOverrides VisualOverrides
}

const (
	DefaultFontFamily = "Times New Roman"
	DefaultFontSize   = 16
	DefaultFontColor  = "#000000"
)

// CertificateTemplate returns a fresh certificate template. Every call returns
// its own copy so callers can never mutate the documented defaults.
func CertificateTemplate() *Template {
	return &Template{
		Type:        DocumentCertificate,
		Orientation: Landscape,
		Page:        Size{Width: 842, Height: 595},
		Fields: []FieldSpec{
			{Key: FieldStudentName, Label: "Student Name", Seed: SeedName, SizeOffset: 8, Weight: FontWeightBold, Color: "#1a237e"},
			{Key: FieldCourseName, Label: "Course Name", Placeholder: "Course Name", SizeOffset: 4, Weight: FontWeightBold, Color: DefaultFontColor},
			{Key: FieldDescription, Label: "Description", Placeholder: "has successfully completed the course", SizeOffset: -1, Weight: FontWeightRegular, Color: "#424242"},
			{Key: FieldGrade, Label: "Grade", Placeholder: "Grade: A", SizeOffset: 0, Weight: FontWeightRegular, Color: DefaultFontColor},
			{Key: FieldDate, Label: "Date", Seed: SeedDate, SizeOffset: -2, Weight: FontWeightRegular, Color: DefaultFontColor},
			{Key: FieldEnrollmentNo, Label: "Enrollment No", Seed: SeedShortID, SizeOffset: -2, Weight: FontWeightRegular, Color: DefaultFontColor},
			{Key: FieldSignature, Label: "Signature", Placeholder: "Authorized Signature", SizeOffset: 0, Weight: FontWeightRegular, Color: DefaultFontColor},
		},
		Defaults: map[FieldKey]Position{
			FieldStudentName:  {Top: 42, Left: 50},
			FieldCourseName:   {Top: 54, Left: 50},
			FieldDescription:  {Top: 63, Left: 50},
			FieldGrade:        {Top: 71, Left: 50},
			FieldDate:         {Top: 85, Left: 22},
			FieldEnrollmentNo: {Top: 85, Left: 50},
			FieldSignature:    {Top: 85, Left: 78},
		},
		FontFamily: DefaultFontFamily,
		FontSize:   DefaultFontSize,
	}
}

func MarksheetTemplate() *Template {
	return &Template{
		Type:        DocumentMarksheet,
		Orientation: Portrait,
		Page:        Size{Width: 595, Height: 842},
		Fields: []FieldSpec{
			{Key: FieldStudentName, Label: "Student Name", Seed: SeedName},
			{Key: FieldRollNumber, Label: "Roll Number", Seed: SeedShortID},
			{Key: FieldCourseName, Label: "Course Name", Placeholder: "Course Name"},
			{Key: FieldBatch, Label: "Batch", Placeholder: "Batch"},
			{Key: FieldTotalMarks, Label: "Total Marks", Placeholder: "Total Marks: 0 / 0"},
			{Key: FieldPercentage, Label: "Percentage", Placeholder: "Percentage: 0%"},
			{Key: FieldGrade, Label: "Grade", Placeholder: "Grade: -"},
			{Key: FieldResult, Label: "Result", Placeholder: "Result: PASS"},
			{Key: FieldDate, Label: "Date", Seed: SeedDate},
			{Key: FieldSignature, Label: "Signature", Placeholder: "Controller of Examinations"},
		},
		Defaults: map[FieldKey]Position{
			FieldStudentName: {Top: 22, Left: 50},
			FieldRollNumber:  {Top: 28, Left: 30},
			FieldCourseName:  {Top: 28, Left: 70},
			FieldBatch:       {Top: 34, Left: 30},
			FieldTotalMarks:  {Top: 52, Left: 50},
			FieldPercentage:  {Top: 60, Left: 50},
			FieldGrade:       {Top: 68, Left: 50},
			FieldResult:      {Top: 76, Left: 50},
			FieldDate:        {Top: 88, Left: 25},
			FieldSignature:   {Top: 88, Left: 75},
		},
		FontFamily: DefaultFontFamily,
		FontSize:   14,
		Standalone: true,
		DefaultOverrides: VisualOverrides{
			FontSize:   14,
			FontWeight: FontWeightRegular,
			Color:      DefaultFontColor,
			FontFamily: DefaultFontFamily,
		},
	}
}

func TemplateFor(d DocumentType) (*Template, error) {
	switch d {
	case DocumentCertificate:
		return CertificateTemplate(), nil
	case DocumentMarksheet:
		return MarksheetTemplate(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDocumentType, d)
}

// DefaultPositions returns a copy of the template's default position map.
func (t *Template) DefaultPositions() map[FieldKey]Position {
	out := make(map[FieldKey]Position, len(t.Defaults))
	for k, v := range t.Defaults {
		out[k] = v
	}
	return out
}

func (t *Template) Keys() []FieldKey {
	keys := make([]FieldKey, len(t.Fields))
	for i, f := range t.Fields {
		keys[i] = f.Key
	}
	return keys
}

func (t *Template) Spec(key FieldKey) (FieldSpec, bool) {
	for _, f := range t.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return FieldSpec{}, false
}

func (t *Template) Has(key FieldKey) bool {
	_, ok := t.Spec(key)
	return ok
}
