package certedit

type ImageFit string

const ImageFitContain ImageFit = "contain"

// SignatureBox is the maximum box, in logical points, of an uploaded signature image.
var SignatureBox = Size{Width: 120, Height: 60}

const minFontSize = 1

type ResolvedStyle struct {
	FontFamily string     `json:"fontFamily,omitempty"`
	FontSize   float64    `json:"fontSize,omitempty"`
	FontWeight FontWeight `json:"fontWeight,omitempty"`
	Color      string     `json:"color,omitempty"`

	Image    bool     `json:"image"`
	ImageBox Size     `json:"imageBox,omitempty"`
	Fit      ImageFit `json:"fit,omitempty"`
}

// Resolve computes the final visual style of a field.
//
// Fixed role fields (certificate) take the global family and the global size
// plus their offset. Standalone fields (marksheet) keep their own overrides and
// ignore the global controls. A signature with an uploaded image is drawn as an
// image and gets no font attributes.
func Resolve(f Field, globalFontFamily string, globalFontSize float64) ResolvedStyle {
	if f.HasImage() {
		return ResolvedStyle{
			Image:    true,
			ImageBox: SignatureBox,
			Fit:      ImageFitContain,
		}
	}

	if f.Overrides != nil {
		o := *f.Overrides
		return ResolvedStyle{
			FontFamily: o.FontFamily,
			FontSize:   max(o.FontSize, minFontSize),
			FontWeight: o.FontWeight,
			Color:      o.Color,
		}
	}

	return ResolvedStyle{
		FontFamily: globalFontFamily,
		FontSize:   max(globalFontSize+f.SizeOffset, minFontSize),
		FontWeight: f.Weight,
		Color:      f.Color,
	}
}
