package certedit

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"go.uber.org/zap"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
)

type FontWeight string

const (
	FontWeightRegular FontWeight = "regular"
	FontWeightBold    FontWeight = "bold"
)

func ParseFontWeight(s string) FontWeight {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bold", "700", "800", "900":
		return FontWeightBold
	default:
		return FontWeightRegular
	}
}

// Get font weight of canvas type
func (w FontWeight) canvasStyle() canvas.FontStyle {
	switch w {
	case FontWeightBold:
		return canvas.FontBold
	default:
		return canvas.FontRegular
	}
}

type FontMetadata struct {
	Name   string     `json:"name"`
	Path   string     `json:"path"`
	Weight FontWeight `json:"weight,omitempty"`
}

func getFontMetadataByPath(fontPath string) (*FontMetadata, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	font, err := sfnt.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	name, err := font.Name(nil, sfnt.NameIDFamily)
	if err != nil {
		return nil, fmt.Errorf("retrieving font name: %w", err)
	}

	weight := FontWeightRegular
	if sub, err := font.Name(nil, sfnt.NameIDSubfamily); err == nil && strings.Contains(strings.ToLower(sub), "bold") {
		weight = FontWeightBold
	}

	return &FontMetadata{
		Name:   name,
		Path:   fontPath,
		Weight: weight,
	}, nil
}

// Scan through the directory to collect .ttf and .otf files.
func ScanFontDir(dir string, logger *zap.SugaredLogger) ([]FontMetadata, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	var fonts []FontMetadata

	err := filepath.Walk(dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(info.Name()))
		if ext != ".ttf" && ext != ".otf" {
			return nil
		}

		meta, err := getFontMetadataByPath(path)
		if err != nil {
			logger.Warnf("Skipping %q: %v", path, err)
			return nil
		}

		fonts = append(fonts, *meta)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return fonts, nil
}

// ReadFontMetadata reads the json written by the scan_font command. A missing
// file is not an error, there are just no custom fonts.
func ReadFontMetadata(path string) ([]FontMetadata, error) {
	var fonts []FontMetadata
	if path == "" {
		return fonts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fonts, nil
		}
		return nil, fmt.Errorf("reading font metadata: %w", err)
	}

	if err := json.Unmarshal(data, &fonts); err != nil {
		return nil, fmt.Errorf("unmarshalling font metadata: %w", err)
	}

	return fonts, nil
}

// FallbackFontFamily is used for every family missing from the metadata.
const FallbackFontFamily = "Go"

type FontLoader struct {
	available []FontMetadata
	logger    *zap.SugaredLogger

	mu    sync.Mutex
	cache map[string]*canvas.FontFamily
}

func NewFontLoader(fonts []FontMetadata, logger *zap.SugaredLogger) *FontLoader {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &FontLoader{
		available: fonts,
		logger:    logger,
		cache:     make(map[string]*canvas.FontFamily),
	}
}

// Families lists the font family names that can be selected, fallback included.
func (fl *FontLoader) Families() []string {
	seen := map[string]bool{FallbackFontFamily: true}
	names := []string{FallbackFontFamily}
	for _, f := range fl.available {
		if !seen[f.Name] {
			seen[f.Name] = true
			names = append(names, f.Name)
		}
	}
	return names
}

func (fl *FontLoader) lookup(name string, weight FontWeight) (FontMetadata, bool) {
	var match FontMetadata
	found := false
	for _, f := range fl.available {
		if !strings.EqualFold(f.Name, name) {
			continue
		}
		if f.Weight == weight || (f.Weight == "" && weight == FontWeightRegular) {
			return f, true
		}
		if !found {
			match, found = f, true
		}
	}
	return match, found
}

// Load returns a font family that has a face for the given weight. Unknown
// families fall back to the Go fonts.
func (fl *FontLoader) Load(name string, weight FontWeight) (*canvas.FontFamily, error) {
	if weight == "" {
		weight = FontWeightRegular
	}
	cacheKey := strings.ToLower(name) + "|" + string(weight)

	fl.mu.Lock()
	defer fl.mu.Unlock()

	if family, ok := fl.cache[cacheKey]; ok {
		return family, nil
	}

	var family *canvas.FontFamily
	if meta, ok := fl.lookup(name, weight); ok {
		family = canvas.NewFontFamily(meta.Name)
		if err := family.LoadFontFile(meta.Path, weight.canvasStyle()); err != nil {
			return nil, fmt.Errorf("failed to load font file %s: %w", meta.Path, err)
		}
	} else {
		if name != FallbackFontFamily {
			fl.logger.Debugf("Font %q not found, falling back to %s", name, FallbackFontFamily)
		}
		family = canvas.NewFontFamily(FallbackFontFamily)
		ttf := goregular.TTF
		if weight == FontWeightBold {
			ttf = gobold.TTF
		}
		if err := family.LoadFont(ttf, 0, weight.canvasStyle()); err != nil {
			return nil, fmt.Errorf("failed to load fallback font: %w", err)
		}
	}

	fl.cache[cacheKey] = family
	return family, nil
}
