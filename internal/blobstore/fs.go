package blobstore

import (
    "context"
    "fmt"
    "os"
    "path/filepath"
    "strings"
)

// FS stores blobs on the local filesystem under a root directory and serves
// them under a URL prefix (the router mounts the root as a static route).
type FS struct {
    root   string
    prefix string
}

// NewFS returns a filesystem blob store.  root is the directory blobs are
// written to; prefix is the public URL path the directory is served under
// (e.g. "/uploads").
func NewFS(root, prefix string) *FS {
    return &FS{root: root, prefix: strings.TrimSuffix(prefix, "/")}
}

// Upload writes data to root/path and returns its public URL.  Parent
// directories are created as needed.  The path is cleaned and must stay
// inside the root.
func (f *FS) Upload(ctx context.Context, path string, data []byte) (string, error) {
    rel, err := f.safeRel(path)
    if err != nil {
        return "", err
    }
    full := filepath.Join(f.root, rel)
    if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
        return "", err
    }
    if err := os.WriteFile(full, data, 0o644); err != nil {
        return "", err
    }
    return f.prefix + "/" + filepath.ToSlash(rel), nil
}

// Delete removes the blob addressed by a URL previously returned from
// Upload.  Deleting a URL that does not exist is an error so callers can
// log it.
func (f *FS) Delete(ctx context.Context, url string) error {
    if !strings.HasPrefix(url, f.prefix+"/") {
        return fmt.Errorf("url %q is not served by this store", url)
    }
    rel, err := f.safeRel(strings.TrimPrefix(url, f.prefix+"/"))
    if err != nil {
        return err
    }
    return os.Remove(filepath.Join(f.root, rel))
}

// safeRel cleans a slash-separated path and rejects escapes from the root.
func (f *FS) safeRel(path string) (string, error) {
    rel := filepath.Clean(filepath.FromSlash(path))
    if rel == "." || rel == "" || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
        return "", fmt.Errorf("invalid blob path %q", path)
    }
    return rel, nil
}
