package render

import (
	"fmt"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
)

// fontSet holds the parsed Go fonts and cached measurement faces.
type fontSet struct {
	fonts map[Style]*truetype.Font

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

type faceKey struct {
	style Style
	size  float64
}

var (
	fontsOnce sync.Once
	fontsErr  error
	fonts     *fontSet
)

// loadFonts parses the embedded fonts once.
func loadFonts() (*fontSet, error) {
	fontsOnce.Do(func() {
		set := &fontSet{
			fonts: make(map[Style]*truetype.Font, 4),
			faces: make(map[faceKey]font.Face),
		}
		for style, ttf := range map[Style][]byte{
			Regular:  goregular.TTF,
			Bold:     gobold.TTF,
			Mono:     gomono.TTF,
			MonoBold: gomonobold.TTF,
		} {
			f, err := freetype.ParseFont(ttf)
			if err != nil {
				fontsErr = fmt.Errorf("failed to parse font %d: %w", style, err)
				return
			}
			set.fonts[style] = f
		}
		fonts = set
	})
	return fonts, fontsErr
}

func (s *fontSet) font(style Style) *truetype.Font {
	if f, ok := s.fonts[style]; ok {
		return f
	}
	return s.fonts[Regular]
}

// measure returns the advance width of text in base pixels.
func (s *fontSet) measure(style Style, size float64, text string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := faceKey{style, size}
	face, ok := s.faces[key]
	if !ok {
		face = truetype.NewFace(s.font(style), &truetype.Options{Size: size, DPI: 72})
		s.faces[key] = face
	}
	return float64(font.MeasureString(face, text)) / 64
}
