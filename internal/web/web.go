// Package web builds the single page playground served at the site root.
package web

import (
	"bytes"
	"embed"
	"io/fs"
	"text/template"

	"github.com/cockroachdb/errors"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"
)

//go:embed assets
var embedded embed.FS

// Assets holds the page sources.
var Assets, _ = fs.Sub(embedded, "assets")

// PageData is injected into index.html.tpl.
type PageData struct {
	CSS     string
	JS      string
	SVG     string
	Formats []string
}

// Page is a built page.
type Page struct {
	HTML    []byte
	Favicon []byte
}

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/javascript", js.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)
	return m
}

// Build renders the page from fsys, inlining minified CSS, JS and the logo.
// formats fills the format pickers.
func Build(fsys fs.FS, formats []string) (*Page, error) {
	m := newMinifier()

	read := func(name, mediatype string) (string, error) {
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return "", errors.Wrapf(err, "read %s", name)
		}
		out, err := m.String(mediatype, string(raw))
		if err != nil {
			return "", errors.Wrapf(err, "minify %s", name)
		}
		return out, nil
	}

	cssMin, err := read("style.css", "text/css")
	if err != nil {
		return nil, err
	}
	jsMin, err := read("script.js", "text/javascript")
	if err != nil {
		return nil, err
	}
	svgMin, err := read("logo.svg", "image/svg+xml")
	if err != nil {
		return nil, err
	}

	htmlRaw, err := fs.ReadFile(fsys, "index.html.tpl")
	if err != nil {
		return nil, errors.Wrap(err, "read index.html.tpl")
	}
	tmpl, err := template.New("index").Parse(string(htmlRaw))
	if err != nil {
		return nil, errors.Wrap(err, "parse template")
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, PageData{
		CSS:     cssMin,
		JS:      jsMin,
		SVG:     svgMin,
		Formats: formats,
	})
	if err != nil {
		return nil, errors.Wrap(err, "execute template")
	}

	finalHTML, err := m.Bytes("text/html", buf.Bytes())
	if err != nil {
		return nil, errors.Wrap(err, "minify html")
	}

	return &Page{HTML: finalHTML, Favicon: []byte(svgMin)}, nil
}
