package certedit

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFontLoaderFallback(t *testing.T) {
	fl := NewFontLoader(nil, nil)

	for _, w := range []FontWeight{FontWeightRegular, FontWeightBold, ""} {
		t.Run(string(w), func(t *testing.T) {
			family, err := fl.Load("Times New Roman", w)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if family == nil {
				t.Fatal("Load returned nil family")
			}
		})
	}

	again, _ := fl.Load("times new roman", FontWeightBold)
	first, _ := fl.Load("Times New Roman", FontWeightBold)
	if again != first {
		t.Error("expected cached family for the same name and weight")
	}
}

func TestFontLoaderFamilies(t *testing.T) {
	fl := NewFontLoader([]FontMetadata{
		{Name: "Roboto", Path: "roboto.ttf"},
		{Name: "Roboto", Path: "roboto-bold.ttf", Weight: FontWeightBold},
		{Name: "Lora", Path: "lora.ttf"},
	}, nil)

	got := fl.Families()
	expected := []string{FallbackFontFamily, "Roboto", "Lora"}
	if len(got) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("expected %v, got %v", expected, got)
		}
	}

	meta, ok := fl.lookup("roboto", FontWeightBold)
	if !ok || meta.Path != "roboto-bold.ttf" {
		t.Errorf("expected bold face, got %+v", meta)
	}
}

func TestReadFontMetadata(t *testing.T) {
	fonts, err := ReadFontMetadata(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil || len(fonts) != 0 {
		t.Fatalf("missing file should yield no fonts, got %v, %v", fonts, err)
	}

	path := filepath.Join(t.TempDir(), "font_metadata.json")
	data := `[{"name":"Lora","path":"fonts/Lora.ttf","weight":"bold"}]`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	fonts, err = ReadFontMetadata(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fonts) != 1 || fonts[0].Name != "Lora" || fonts[0].Weight != FontWeightBold {
		t.Errorf("unexpected metadata %+v", fonts)
	}
}

func TestParseFontWeight(t *testing.T) {
	tests := map[string]FontWeight{
		"bold":    FontWeightBold,
		" BOLD ":  FontWeightBold,
		"700":     FontWeightBold,
		"normal":  FontWeightRegular,
		"":        FontWeightRegular,
		"regular": FontWeightRegular,
	}
	for in, expected := range tests {
		if got := ParseFontWeight(in); got != expected {
			t.Errorf("ParseFontWeight(%q) = %s, expected %s", in, got, expected)
		}
	}
}
