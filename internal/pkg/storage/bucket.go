// Package storage is the object store for request attachments. Objects live
// under a root directory of an afero filesystem and are served back through
// public locators.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

var (
	ErrObjectExists  = errors.New("object already exists")
	ErrObjectMissing = errors.New("object not found")
	ErrInvalidPath   = errors.New("invalid object path")
)

// Bucket is what the submission flow depends on.
type Bucket interface {
	Upload(ctx context.Context, objectPath string, r io.Reader) (string, error)
	PublicURL(objectPath string) string
}

// Object is an opened stored file.
type Object struct {
	File        afero.File
	Name        string
	Size        int64
	ContentType string
}

// inlineTypes may be rendered by a browser on the files origin. Everything
// else, SVG and HTML included, is served as a download.
var inlineTypes = []string{
	"application/pdf",
	"image/png",
	"image/jpeg",
	"image/gif",
	"image/webp",
	"text/plain",
}

// Inline reports whether the object may be displayed in place.
func (o *Object) Inline() bool {
	return mimetype.EqualsAny(o.ContentType, inlineTypes...)
}

// FSBucket stores objects on an afero filesystem.
type FSBucket struct {
	fs      afero.Fs
	name    string
	baseURL string
}

// NewFSBucket roots the bucket at name inside fs. baseURL prefixes public
// locators, e.g. "https://mohandz.sa/files".
func NewFSBucket(fs afero.Fs, name, baseURL string) (*FSBucket, error) {
	if err := fs.MkdirAll(name, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create bucket %s: %w", name, err)
	}
	return &FSBucket{fs: fs, name: name, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// NewOSBucket is the production bucket under dir on local disk.
func NewOSBucket(dir, name, baseURL string) (*FSBucket, error) {
	return NewFSBucket(afero.NewBasePathFs(afero.NewOsFs(), dir), name, baseURL)
}

// Name is the bucket name.
func (b *FSBucket) Name() string { return b.name }

// Upload writes r to objectPath. An existing object is never overwritten.
func (b *FSBucket) Upload(ctx context.Context, objectPath string, r io.Reader) (string, error) {
	clean, err := cleanPath(objectPath)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	full := path.Join(b.name, clean)
	if err := b.fs.MkdirAll(path.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create object dir: %w", err)
	}

	f, err := b.fs.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return "", fmt.Errorf("%s: %w", clean, ErrObjectExists)
		}
		return "", fmt.Errorf("failed to create object: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = b.fs.Remove(full)
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = b.fs.Remove(full)
		return "", fmt.Errorf("failed to close object: %w", err)
	}

	return clean, nil
}

// PublicURL is the locator stored on request records.
func (b *FSBucket) PublicURL(objectPath string) string {
	segments := strings.Split(strings.TrimLeft(objectPath, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return b.baseURL + "/" + b.name + "/" + strings.Join(segments, "/")
}

// Open returns the object and its sniffed content type. The caller closes
// Object.File.
func (b *FSBucket) Open(objectPath string) (*Object, error) {
	clean, err := cleanPath(objectPath)
	if err != nil {
		return nil, err
	}
	full := path.Join(b.name, clean)

	f, err := b.fs.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectMissing
		}
		return nil, fmt.Errorf("failed to open object: %w", err)
	}
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		f.Close()
		return nil, ErrObjectMissing
	}

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to sniff object: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rewind object: %w", err)
	}

	return &Object{File: f, Name: path.Base(clean), Size: info.Size(), ContentType: mt.String()}, nil
}

func cleanPath(p string) (string, error) {
	if p == "" {
		return "", ErrInvalidPath
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", ErrInvalidPath
		}
	}
	clean := path.Clean("/" + p)
	if clean == "/" {
		return "", ErrInvalidPath
	}
	return strings.TrimPrefix(clean, "/"), nil
}
