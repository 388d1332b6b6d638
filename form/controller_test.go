package form

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/openclaw/qrform/render"
)

// failingEncoder always reports an error, standing in for a throwing library.
type failingEncoder struct {
	calls int
}

func (e *failingEncoder) Encode(ctx context.Context, s *render.Surface, text string, opts render.Options) error {
	e.calls++
	return errors.New("boom")
}

// recordingSaver keeps every Save call.
type recordingSaver struct {
	names []string
	data  [][]byte
}

func (r *recordingSaver) Save(filename string, data []byte) error {
	r.names = append(r.names, filename)
	r.data = append(r.data, data)
	return nil
}

func newTestController() *Controller {
	return NewController(render.NewQREncoder(), render.NewSurface(render.DefaultWidth), render.DefaultOptions(), nil)
}

func TestSubmitBlankInput(t *testing.T) {
	for _, text := range []string{"", " ", "   ", "\t\n", " "} {
		c := newTestController()
		err := c.Submit(context.Background(), text)
		if !errors.Is(err, ErrEmptyInput) {
			t.Fatalf("Submit(%q) error = %v, want ErrEmptyInput", text, err)
		}
		st := c.State()
		if st.Error != MsgEmptyInput {
			t.Errorf("Submit(%q) Error = %q, want %q", text, st.Error, MsgEmptyInput)
		}
		if st.Image != nil || st.Ready {
			t.Errorf("Submit(%q) left an image behind", text)
		}
	}
}

func TestSubmitExampleURL(t *testing.T) {
	c := newTestController()
	if err := c.Submit(context.Background(), "https://example.com"); err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}

	st := c.State()
	if st.Error != "" {
		t.Errorf("Error = %q, want empty", st.Error)
	}
	if !st.Ready {
		t.Fatal("Ready = false, want true")
	}
	if !bytes.HasPrefix(st.Image, render.PNGSignature) {
		t.Fatal("image does not start with the PNG signature")
	}

	cfg, err := png.DecodeConfig(bytes.NewReader(st.Image))
	if err != nil {
		t.Fatalf("DecodeConfig() failed: %v", err)
	}
	if cfg.Width != 300 || cfg.Height != 300 {
		t.Errorf("image is %dx%d, want 300x300", cfg.Width, cfg.Height)
	}
}

func TestSubmitIsIdempotent(t *testing.T) {
	c := newTestController()
	ctx := context.Background()

	if err := c.Submit(ctx, "same text"); err != nil {
		t.Fatalf("first Submit() failed: %v", err)
	}
	first := c.State().Image

	if err := c.Submit(ctx, "same text"); err != nil {
		t.Fatalf("second Submit() failed: %v", err)
	}
	if !bytes.Equal(first, c.State().Image) {
		t.Fatal("resubmitting the same text produced a different image")
	}
}

func TestSubmitEncodeFailure(t *testing.T) {
	enc := &failingEncoder{}
	c := NewController(enc, render.NewSurface(render.DefaultWidth), render.DefaultOptions(), nil)

	err := c.Submit(context.Background(), "hello")
	if !errors.Is(err, ErrEncodeFailure) {
		t.Fatalf("Submit() error = %v, want ErrEncodeFailure", err)
	}
	st := c.State()
	if st.Error != MsgEncodeFailure {
		t.Errorf("Error = %q, want %q", st.Error, MsgEncodeFailure)
	}
	if st.Image != nil {
		t.Error("image present after encode failure")
	}
	if enc.calls != 1 {
		t.Errorf("encoder called %d times, want 1", enc.calls)
	}
}

func TestStateTransitions(t *testing.T) {
	c := newTestController()
	ctx := context.Background()

	// Idle -> Idle+Error
	_ = c.Submit(ctx, "  ")
	if st := c.State(); st.Error == "" || st.Ready {
		t.Fatalf("after blank submit: %+v", st)
	}

	// Idle+Error -> Ready clears the error.
	if err := c.Submit(ctx, "ok"); err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	if st := c.State(); st.Error != "" || !st.Ready {
		t.Fatalf("after valid submit: error=%q ready=%v", st.Error, st.Ready)
	}

	// Ready -> Idle+Error clears the image.
	_ = c.Submit(ctx, "")
	if st := c.State(); st.Error != MsgEmptyInput || st.Ready {
		t.Fatalf("after blank resubmit: error=%q ready=%v", st.Error, st.Ready)
	}
}

func TestDownloadBeforeSubmitIsNoop(t *testing.T) {
	c := newTestController()
	saver := &recordingSaver{}

	saved, err := c.Download(saver)
	if err != nil {
		t.Fatalf("Download() failed: %v", err)
	}
	if saved {
		t.Error("Download() reported a save before any image existed")
	}
	if len(saver.names) != 0 {
		t.Errorf("saver called %d times, want 0", len(saver.names))
	}
}

func TestDownloadAfterSubmit(t *testing.T) {
	c := newTestController()
	if err := c.Submit(context.Background(), "https://example.com"); err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	before := c.State()

	saver := &recordingSaver{}
	saved, err := c.Download(saver)
	if err != nil || !saved {
		t.Fatalf("Download() = %v, %v", saved, err)
	}
	if len(saver.names) != 1 || saver.names[0] != "qrcode.png" {
		t.Fatalf("saved names = %v, want [qrcode.png]", saver.names)
	}
	if !bytes.Equal(saver.data[0], before.Image) {
		t.Error("saved bytes differ from the generated image")
	}
	if after := c.State(); after.Error != before.Error || !bytes.Equal(after.Image, before.Image) {
		t.Error("Download() changed controller state")
	}
}

func TestOnChangeCalledAfterMutations(t *testing.T) {
	c := newTestController()
	var seen []State
	c.OnChange = func(st State) { seen = append(seen, st) }

	c.SetText("h")
	_ = c.Submit(context.Background(), "hello")

	if len(seen) < 3 {
		t.Fatalf("OnChange called %d times, want at least 3", len(seen))
	}
	if last := seen[len(seen)-1]; !last.Ready || last.Text != "hello" {
		t.Errorf("last rendered state = %+v", last)
	}
}

func TestFileSaver(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	s := FileSaver{Dir: dir}

	if err := s.Save(DownloadName, []byte("data")); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	got, err := os.ReadFile(s.Path(DownloadName))
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	if string(got) != "data" {
		t.Errorf("file contents = %q, want %q", got, "data")
	}
}
