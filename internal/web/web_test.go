package web

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	page, err := Build(Assets, []string{"geojson", "wkt"})
	require.NoError(t, err)

	html := string(page.HTML)
	require.Contains(t, html, "FoxFire")
	require.Contains(t, html, "wkt")
	require.Contains(t, html, "/api/convert")
	require.NotContains(t, html, "{{")
	require.Contains(t, string(page.Favicon), "<svg")
}

func TestBuildMissingAsset(t *testing.T) {
	fsys := fstest.MapFS{
		"style.css": {Data: []byte("body{}")},
	}
	_, err := Build(fsys, nil)
	require.Error(t, err)
}

func TestBuildBadTemplate(t *testing.T) {
	fsys := fstest.MapFS{
		"style.css":      {Data: []byte("body{}")},
		"script.js":      {Data: []byte("var a = 1;")},
		"logo.svg":       {Data: []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`)},
		"index.html.tpl": {Data: []byte("<p>{{.Missing</p>")},
	}
	_, err := Build(fsys, nil)
	require.Error(t, err)
}
