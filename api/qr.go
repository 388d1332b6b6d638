package api

import (
	"net/http"
	"time"

	"github.com/openclaw/qrform/form"
	"github.com/openclaw/qrform/render"
	"github.com/openclaw/qrform/store"
)

const (
	minImageSize = 64
	maxImageSize = 2048
)

// handleQRImage renders ?text= directly to PNG without a session.
func (s *Server) handleQRImage(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	if err := form.Validate(text); err != nil {
		s.record("", text, store.OutcomeEmpty, form.State{Error: form.MsgEmptyInput}, 0)
		writeError(w, http.StatusBadRequest, form.MsgEmptyInput)
		return
	}

	opts := s.Options
	size := queryInt(r, "size", opts.Width)
	if size < minImageSize {
		size = minImageSize
	}
	if size > maxImageSize {
		size = maxImageSize
	}
	opts.Width = size

	start := time.Now()
	surface := render.NewSurface(size)
	err := s.Encoder.Encode(r.Context(), surface, text, opts)
	var png []byte
	if err == nil {
		png, err = render.ExportPNG(surface)
	}
	if err != nil {
		s.Log.Warn("qr render failed", "error", err)
		s.record("", text, store.OutcomeFailed, form.State{Error: form.MsgEncodeFailure}, time.Since(start))
		writeError(w, http.StatusUnprocessableEntity, form.MsgEncodeFailure)
		return
	}
	s.record("", text, store.OutcomeOK, form.State{Image: png}, time.Since(start))

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
