package vip8

import (
	"image"
	"image/color"
	"strings"
)

const (
	ScreenWidth  = 64
	ScreenHeight = 32
)

// Screen is the monochrome frame buffer, indexed [y][x].
// Copying a Screen copies every pixel, so values handed out are snapshots.
type Screen [ScreenHeight][ScreenWidth]bool

// Clear turns off every pixel
func (s *Screen) Clear() {
	*s = Screen{}
}

// Pixel reports whether the pixel at x, y is lit. Out of range coordinates are off.
func (s *Screen) Pixel(x, y int) bool {
	if x < 0 || x >= ScreenWidth || y < 0 || y >= ScreenHeight {
		return false
	}

	return s[y][x]
}

// DrawSprite XORs the sprite rows onto the screen with its top left corner at x, y.
// The starting coordinates always wrap; pixels past the edge wrap or are dropped
// according to edge.
// Returns whether any lit pixel was turned off.
func (s *Screen) DrawSprite(x, y byte, sprite []byte, edge SpriteEdge) bool {
	x0 := int(x) % ScreenWidth
	y0 := int(y) % ScreenHeight

	collision := false
	for row, bits := range sprite {
		py := y0 + row
		if py >= ScreenHeight {
			if edge == SpriteClip {
				break
			}
			py %= ScreenHeight
		}

		for col := 0; col < 8; col++ {
			if bits&(0x80>>col) == 0 {
				continue
			}

			px := x0 + col
			if px >= ScreenWidth {
				if edge == SpriteClip {
					break
				}
				px %= ScreenWidth
			}

			if s[py][px] {
				collision = true
			}
			s[py][px] = !s[py][px]
		}
	}

	return collision
}

// Packed returns the screen as 1 bit per pixel, row major, most significant bit first
func (s Screen) Packed() []byte {
	buf := make([]byte, ScreenWidth*ScreenHeight/8)
	for y := range s {
		for x, on := range s[y] {
			if on {
				t := y*ScreenWidth + x
				buf[t/8] |= 0x80 >> (t % 8)
			}
		}
	}

	return buf
}

// Image returns the screen as a grayscale image, lit pixels are white
func (s Screen) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, ScreenWidth, ScreenHeight))
	for y := range s {
		for x, on := range s[y] {
			if on {
				img.SetGray(x, y, color.Gray{Y: 0xFF})
			}
		}
	}

	return img
}

func (s Screen) String() string {
	sb := strings.Builder{}
	sb.Grow((ScreenWidth + 1) * ScreenHeight)
	for y := range s {
		for _, on := range s[y] {
			if on {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}

	return sb.String()
}
