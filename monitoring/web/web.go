// Package web holds the monitor dashboard.
package web

import (
	"embed"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

// DevEnv switches the dashboard to files on disk while it is being edited.
// A boolean value selects the dist directory next to this source file; any
// other value is taken as the directory to serve.
const DevEnv = "EDAC_MONITOR_DEV"

//go:embed dist/*
var dist embed.FS

// Assets returns the dashboard files.
func Assets() http.FileSystem {
	if dir, ok := devDir(); ok {
		log.Printf("monitor: serving dashboard from %s", dir)
		return http.Dir(dir)
	}

	sub, err := fs.Sub(dist, "dist")
	if err != nil {
		panic(err)
	}

	return http.FS(sub)
}

func devDir() (string, bool) {
	v := os.Getenv(DevEnv)
	if v == "" {
		return "", false
	}

	on, err := strconv.ParseBool(v)
	if err != nil {
		return v, true
	}

	if !on {
		return "", false
	}

	_, self, _, ok := runtime.Caller(0)
	if !ok {
		panic("web: cannot locate the dashboard sources")
	}

	return filepath.Join(filepath.Dir(self), "dist"), true
}
