package http

import (
	"errors"
	"io"
	iofs "io/fs"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/yalue/merged_fs"

	"github.com/3-lines-studio/hydrate/internal/core"
)

const immutableCacheControl = "public, max-age=31536000, immutable"

// StaticFS serves built bundles first and public files second.
func StaticFS(outputDir, publicDir string) iofs.FS {
	return merged_fs.MergeMultiple(os.DirFS(outputDir), os.DirFS(publicDir))
}

type AssetHandler struct {
	fsys iofs.FS
}

func NewAssetHandler(fsys iofs.FS) http.Handler {
	return &AssetHandler{fsys: fsys}
}

func (h *AssetHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	name := strings.TrimPrefix(path.Clean("/"+req.URL.Path), "/")
	if name == "" || !iofs.ValidPath(name) {
		http.NotFound(w, req)
		return
	}

	f, err := h.fsys.Open(name)
	if err != nil {
		if !errors.Is(err, iofs.ErrNotExist) {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		http.NotFound(w, req)
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, req)
		return
	}

	w.Header().Set("Content-Type", core.GetContentType(name))
	if core.IsBundleFileName(name) {
		w.Header().Set("Cache-Control", immutableCacheControl)
	}
	if rs, ok := f.(io.ReadSeeker); ok {
		http.ServeContent(w, req, info.Name(), info.ModTime(), rs)
		return
	}
	_, _ = io.Copy(w, f)
}
