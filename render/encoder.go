package render

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/skip2/go-qrcode"
)

// Defaults used by the form when no override is configured.
const (
	DefaultWidth      = 300
	DefaultMargin     = 2
	DefaultForeground = "#000000"
	DefaultBackground = "#ffffff"
	DefaultLevel      = "M"
)

// Options controls how a symbol is painted. Width is the full edge length in
// pixels with the quiet zone included; Margin is counted in modules.
type Options struct {
	Width      int
	Margin     int
	Foreground string
	Background string
	Level      string
}

// DefaultOptions returns 300px, 2-module margin, black on white.
func DefaultOptions() Options {
	return Options{
		Width:      DefaultWidth,
		Margin:     DefaultMargin,
		Foreground: DefaultForeground,
		Background: DefaultBackground,
		Level:      DefaultLevel,
	}
}

// Encoder draws the QR symbol for text onto a borrowed surface.
type Encoder interface {
	Encode(ctx context.Context, s *Surface, text string, opts Options) error
}

// QREncoder is the go-qrcode backed Encoder.
type QREncoder struct{}

// NewQREncoder returns an Encoder that uses github.com/skip2/go-qrcode.
func NewQREncoder() *QREncoder {
	return &QREncoder{}
}

// ParseLevel maps L/M/Q/H (or the go-qrcode names) to a recovery level.
func ParseLevel(s string) (qrcode.RecoveryLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "l", "low":
		return qrcode.Low, nil
	case "", "m", "medium":
		return qrcode.Medium, nil
	case "q", "high":
		return qrcode.High, nil
	case "h", "highest":
		return qrcode.Highest, nil
	}
	return qrcode.Medium, fmt.Errorf("unknown error correction level %q", s)
}

// Encode resizes s to opts.Width and paints the symbol scaled so that the
// symbol plus margin fills the whole surface. When the width is too small for
// one pixel per module the surface grows to fit at scale 1.
func (e *QREncoder) Encode(ctx context.Context, s *Surface, text string, opts Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	level, err := ParseLevel(opts.Level)
	if err != nil {
		return err
	}
	fg, err := ParseColor(orDefault(opts.Foreground, DefaultForeground))
	if err != nil {
		return fmt.Errorf("foreground: %w", err)
	}
	bg, err := ParseColor(orDefault(opts.Background, DefaultBackground))
	if err != nil {
		return fmt.Errorf("background: %w", err)
	}
	margin := opts.Margin
	if margin < 0 {
		margin = 0
	}

	qr, err := qrcode.New(text, level)
	if err != nil {
		return fmt.Errorf("encode qr: %w", err)
	}
	qr.DisableBorder = true
	bitmap := qr.Bitmap()
	size := len(bitmap)
	if size == 0 {
		return fmt.Errorf("encode qr: empty symbol")
	}

	width := opts.Width
	if width < size+2*margin {
		width = size + 2*margin
	}
	scale := float64(width) / float64(size+2*margin)
	scaledMargin := float64(margin) * scale

	s.Resize(width)
	s.Fill(bg)
	img := s.Image()

	for y := 0; y < width; y++ {
		fy := float64(y)
		if fy < scaledMargin || fy >= float64(width)-scaledMargin {
			continue
		}
		row := int(math.Floor((fy - scaledMargin) / scale))
		if row >= size {
			continue
		}
		for x := 0; x < width; x++ {
			fx := float64(x)
			if fx < scaledMargin || fx >= float64(width)-scaledMargin {
				continue
			}
			col := int(math.Floor((fx - scaledMargin) / scale))
			if col < size && bitmap[row][col] {
				img.SetRGBA(x, y, fg)
			}
		}
	}

	return ctx.Err()
}

// Terminal renders text as a compact block-character QR code for consoles.
func Terminal(text string, level string) (string, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return "", err
	}
	qr, err := qrcode.New(text, lvl)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	return qr.ToSmallString(false), nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
