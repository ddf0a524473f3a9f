// Package pages serves the prebuilt front end: the HTML pages of the site and
// the static assets next to them.
package pages

import (
	"net/http"
	"os"
	"path"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/patric-chuzhbe/todolist/internal/logger"
)

const notFoundPage = "html/404.html"

// Pages serves files from a directory laid out as index.html plus html/*.html.
type Pages struct {
	dir string
}

func New(dir string) *Pages {
	return &Pages{dir: dir}
}

func (p *Pages) file(name string) string {
	return filepath.Join(p.dir, filepath.FromSlash(path.Clean("/"+name)))
}

// Page returns a handler serving the named page with 200.
func (p *Pages) Page(name string) http.HandlerFunc {
	return func(response http.ResponseWriter, request *http.Request) {
		fileName := p.file(name)
		if !isRegularFile(fileName) {
			p.NotFound(response, request)
			return
		}

		http.ServeFile(response, request, fileName)
	}
}

// Static serves the asset named by the request path, or the 404 page.
// Only GET and HEAD requests get assets.
func (p *Pages) Static(response http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodGet && request.Method != http.MethodHead {
		p.NotFound(response, request)
		return
	}

	fileName := p.file(request.URL.Path)
	if !isRegularFile(fileName) {
		p.NotFound(response, request)
		return
	}

	http.ServeFile(response, request, fileName)
}

// NotFound serves the 404 page with status 404.
func (p *Pages) NotFound(response http.ResponseWriter, request *http.Request) {
	content, err := os.ReadFile(p.file(notFoundPage))
	if err != nil {
		logger.Log.Debugln("Error calling the `os.ReadFile()`: ", zap.Error(err))
		http.NotFound(response, request)
		return
	}

	response.Header().Set("Content-Type", "text/html; charset=utf-8")
	response.WriteHeader(http.StatusNotFound)
	if _, err := response.Write(content); err != nil {
		logger.Log.Debugln("Error calling the `response.Write()`: ", zap.Error(err))
	}
}

func isRegularFile(fileName string) bool {
	info, err := os.Stat(fileName)
	return err == nil && info.Mode().IsRegular()
}
