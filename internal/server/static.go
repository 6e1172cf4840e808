package server

import (
	"io/fs"
	"net/http"

	"github.com/noveltylab/priorart/web"
)

// staticHandler serves the embedded frontend at the root path.
func staticHandler() http.Handler {
	sub, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
