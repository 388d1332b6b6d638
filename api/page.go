package api

import "net/http"

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(formPageHTML))
}

const formPageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>QR Code Generator</title>
<style>
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
    background: #fafafa;
    color: #18181b;
    display: flex;
    justify-content: center;
    align-items: center;
    min-height: 100vh;
  }
  main {
    background: #fff;
    border-radius: 16px;
    box-shadow: 0 4px 16px rgba(0,0,0,.08);
    padding: 32px;
    max-width: 448px;
    width: 100%;
    display: flex;
    flex-direction: column;
    align-items: center;
    gap: 32px;
  }
  h1 { font-size: 24px; font-weight: 700; }
  .fields { width: 100%; display: flex; flex-direction: column; gap: 12px; }
  input {
    width: 100%; padding: 12px 16px; font-size: 16px;
    border: 1px solid #d4d4d8; border-radius: 8px; outline: none;
  }
  input:focus { border-color: #2563eb; }
  button, a.download {
    padding: 12px 16px; border-radius: 8px; font-size: 16px; font-weight: 500; cursor: pointer;
  }
  button { width: 100%; background: #2563eb; color: #fff; border: none; }
  button:hover { background: #1d4ed8; }
  a.download { border: 1px solid #d4d4d8; color: #3f3f46; text-decoration: none; }
  #error { color: #ef4444; font-size: 14px; }
  #result { display: flex; flex-direction: column; align-items: center; gap: 16px; }
  #surface { border-radius: 8px; }
  .hidden { display: none !important; }
</style>
</head>
<body>
<main>
  <h1>QR Code Generator</h1>
  <div class="fields">
    <input id="text" type="text" placeholder="enter URL or text" autocomplete="off">
    <button id="generate" type="button">Generate</button>
  </div>
  <p id="error" class="hidden"></p>
  <div id="result">
    <img id="surface" class="hidden" alt="QR Code" width="300" height="300">
    <a id="download" class="download hidden" download="qrcode.png">Download</a>
  </div>
</main>
<script>
(function() {
  var input = document.getElementById('text');
  var button = document.getElementById('generate');
  var errorEl = document.getElementById('error');
  var surface = document.getElementById('surface');
  var download = document.getElementById('download');
  var sessionID = null;

  function render(state) {
    if (state.error) {
      errorEl.textContent = state.error;
      errorEl.classList.remove('hidden');
    } else {
      errorEl.textContent = '';
      errorEl.classList.add('hidden');
    }
    if (state.ready && state.image_png) {
      surface.setAttribute('src', 'data:image/png;base64,' + state.image_png);
      surface.classList.remove('hidden');
      download.setAttribute('href', '/sessions/' + sessionID + '/download');
      download.classList.remove('hidden');
    } else {
      surface.removeAttribute('src');
      surface.classList.add('hidden');
      download.removeAttribute('href');
      download.classList.add('hidden');
    }
  }

  function openSession() {
    return fetch('/sessions', { method: 'POST' })
      .then(function(r) { return r.json(); })
      .then(function(data) { sessionID = data.id; });
  }

  function generate() {
    var ready = sessionID ? Promise.resolve() : openSession();
    ready
      .then(function() {
        return fetch('/sessions/' + sessionID + '/generate', {
          method: 'POST',
          headers: { 'Content-Type': 'application/json' },
          body: JSON.stringify({ text: input.value })
        });
      })
      .then(function(r) {
        if (r.status === 404) {
          sessionID = null;
          throw new Error('session expired');
        }
        return r.json();
      })
      .then(render)
      .catch(function() {
        render({ error: 'failed to generate the QR code' });
      });
  }

  button.addEventListener('click', generate);
  input.addEventListener('keydown', function(e) {
    if (e.key === 'Enter') generate();
  });
  window.addEventListener('pagehide', function() {
    if (sessionID) fetch('/sessions/' + sessionID, { method: 'DELETE', keepalive: true });
  });

  openSession();
})();
</script>
</body>
</html>`
