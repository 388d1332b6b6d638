// Package form implements the QR form controller: it holds the input text,
// the generated PNG and the user-facing error, and exposes the generate and
// download actions.
package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/openclaw/qrform/render"
)

// User-facing messages.
const (
	MsgEmptyInput    = "please enter text or a URL"
	MsgEncodeFailure = "failed to generate the QR code"
)

// DownloadName is the filename offered for the generated image.
const DownloadName = "qrcode.png"

var (
	// ErrEmptyInput is returned by Submit for blank or whitespace-only text.
	ErrEmptyInput = errors.New("empty input")
	// ErrEncodeFailure wraps any encoder or export failure.
	ErrEncodeFailure = errors.New("encode failure")
)

// State is a snapshot of the controller fields.
type State struct {
	Text  string `json:"text"`
	Image []byte `json:"image_png,omitempty"`
	Error string `json:"error,omitempty"`
	Ready bool   `json:"ready"`
}

// Controller is the form state machine. All methods are safe for concurrent
// use; submits are serialised so the borrowed surface has a single writer and
// the last completed submit wins.
type Controller struct {
	encoder render.Encoder
	surface *render.Surface
	opts    render.Options
	log     *slog.Logger

	mu    sync.Mutex
	text  string
	image []byte
	err   string

	// OnChange, when set, is called after every state mutation.
	OnChange func(State)
}

// NewController creates a controller that draws onto surface. The surface is
// borrowed: the controller never replaces it and the caller keeps ownership.
func NewController(encoder render.Encoder, surface *render.Surface, opts render.Options, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		encoder: encoder,
		surface: surface,
		opts:    opts,
		log:     log,
	}
}

// SetText records the current input text without validating it.
func (c *Controller) SetText(text string) {
	c.mu.Lock()
	c.text = text
	st := c.stateLocked()
	c.mu.Unlock()
	c.notify(st)
}

// Submit validates text and, when non-blank, encodes it onto the surface and
// captures the result as PNG. It returns ErrEmptyInput or an error wrapping
// ErrEncodeFailure; in both cases the controller is left in a retryable state
// with the error message set and no image.
func (c *Controller) Submit(ctx context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.text = text

	if err := Validate(text); err != nil {
		c.err = MsgEmptyInput
		c.image = nil
		c.notifyLocked()
		return err
	}

	c.err = ""
	c.notifyLocked()

	if err := c.encoder.Encode(ctx, c.surface, text, c.opts); err != nil {
		return c.failLocked(err)
	}
	png, err := render.ExportPNG(c.surface)
	if err != nil {
		return c.failLocked(err)
	}

	c.image = png
	c.log.Debug("qr generated", "chars", len(text), "png_bytes", len(png))
	c.notifyLocked()
	return nil
}

// Download hands the generated image to saver under DownloadName. It reports
// false without calling saver when nothing has been generated.
func (c *Controller) Download(saver Saver) (bool, error) {
	c.mu.Lock()
	img := c.image
	c.mu.Unlock()

	if img == nil {
		return false, nil
	}
	if err := saver.Save(DownloadName, img); err != nil {
		return true, fmt.Errorf("save %s: %w", DownloadName, err)
	}
	return true, nil
}

// Validate reports ErrEmptyInput for blank or whitespace-only text.
func Validate(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyInput
	}
	return nil
}

// State returns a snapshot of the current fields.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) failLocked(err error) error {
	c.log.Warn("qr generation failed", "error", err)
	c.err = MsgEncodeFailure
	c.image = nil
	c.notifyLocked()
	return fmt.Errorf("%w: %v", ErrEncodeFailure, err)
}

func (c *Controller) stateLocked() State {
	return State{
		Text:  c.text,
		Image: c.image,
		Error: c.err,
		Ready: c.image != nil,
	}
}

// notifyLocked calls OnChange while c.mu is held; OnChange must not call back
// into the controller.
func (c *Controller) notifyLocked() {
	if c.OnChange != nil {
		c.OnChange(c.stateLocked())
	}
}

func (c *Controller) notify(st State) {
	if c.OnChange != nil {
		c.OnChange(st)
	}
}
