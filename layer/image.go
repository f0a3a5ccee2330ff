package layer

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// CreateImageLayer adds an image layer holding img. Images larger than
// the canvas are scaled down to fit, preserving aspect ratio; the result
// is centered.
func (s *Store) CreateImageLayer(img image.Image, name string) (string, error) {
	if img == nil || img.Bounds().Empty() {
		return "", fmt.Errorf("layer: create image: empty image")
	}
	fitted := imaging.Fit(img, s.width, s.height, imaging.Lanczos)

	id, err := s.CreateLayer(TypeImage, name)
	if err != nil {
		return "", err
	}
	l := s.layers[id]
	b := fitted.Bounds()
	at := image.Pt((s.width-b.Dx())/2, (s.height-b.Dy())/2)
	draw.Copy(l.Content, at, fitted, b, draw.Src, nil)
	return id, nil
}
