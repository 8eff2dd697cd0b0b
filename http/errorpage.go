package http

import (
	"io"
	"net/http"

	"github.com/go-chi/render"
)

const notFoundHTML = `<html>
<head><title>404 Not Found</title></head>
<body>
<center><h1>404 Not Found</h1></center>
<hr><center>fragments</center>
</body>
</html>`

// handleNotFound answers unknown routes with a plain HTML page when the
// caller prefers HTML (a browser) and the JSON envelope otherwise.
func handleNotFound(w http.ResponseWriter, r *http.Request) {
	if render.GetAcceptedContentType(r) == render.ContentTypeHTML {
		writeNotFoundPage(w)
		return
	}
	WriteError(w, r, http.StatusNotFound, "not found")
}

func writeNotFoundPage(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = io.WriteString(w, notFoundHTML)
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}
