// Package imageinput turns a file dropped or pasted onto the terminal into
// image bytes ready for the vision model.
package imageinput

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxSize caps how much of a file is read into memory
const MaxSize = 20 << 20

// ErrNotImage is wrapped by every ValidationError
var ErrNotImage = errors.New("not an image")

// Image is a selected reference screenshot
type Image struct {
	Path     string
	Name     string
	MimeType string
	Data     []byte
}

// ValidationError reports a file that is not an image
type ValidationError struct {
	Path     string
	MimeType string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is %s, not an image", filepath.Base(e.Path), e.MimeType)
}

func (e *ValidationError) Unwrap() error {
	return ErrNotImage
}

// Load reads path and checks the content is an image
func Load(path string) (*Image, error) {
	path = ResolvePath(path)
	if path == "" {
		return nil, fmt.Errorf("empty path")
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > MaxSize {
		return nil, fmt.Errorf("%s is too large (%d bytes, max %d)", filepath.Base(path), info.Size(), MaxSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	img, err := FromBytes(filepath.Base(path), data)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			verr.Path = path
		}
		return nil, err
	}
	img.Path = path
	return img, nil
}

// FromBytes sniffs data and wraps it as an Image
func FromBytes(name string, data []byte) (*Image, error) {
	mime := mimetype.Detect(data)
	mt := mime.String()
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	if !strings.HasPrefix(mt, "image/") {
		return nil, &ValidationError{Path: name, MimeType: mt}
	}
	return &Image{
		Name:     name,
		MimeType: mt,
		Data:     data,
	}, nil
}

// FirstImage loads the first image found in a drop or paste payload.
// Non-image entries are skipped; ErrNotImage is returned when none qualify.
func FirstImage(payload string) (*Image, error) {
	// A single typed path may hold unescaped spaces
	whole, err := Load(payload)
	if err == nil {
		return whole, nil
	}
	if errors.Is(err, ErrNotImage) {
		return nil, err
	}

	var lastErr error
	for _, p := range SplitPaths(payload) {
		img, err := Load(p)
		if err == nil {
			return img, nil
		}
		lastErr = err
	}
	if lastErr == nil || errors.Is(lastErr, ErrNotImage) {
		return nil, ErrNotImage
	}
	return nil, lastErr
}

// ResolvePath normalizes the forms terminals use when a file is dropped:
// quoted paths, file:// URLs, backslash-escaped spaces and ~.
func ResolvePath(raw string) string {
	p := strings.TrimSpace(raw)
	if len(p) >= 2 && (p[0] == '\'' || p[0] == '"') && p[len(p)-1] == p[0] {
		p = p[1 : len(p)-1]
	}
	if strings.HasPrefix(p, "file://") {
		if u, err := url.Parse(p); err == nil {
			p = u.Path
		}
	}
	p = unescape(p)
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// SplitPaths splits a payload holding one or more dropped paths. Quoted
// and backslash-escaped spaces stay inside a path.
func SplitPaths(payload string) []string {
	var (
		paths []string
		cur   strings.Builder
		quote byte
	)
	flush := func() {
		if cur.Len() > 0 {
			paths = append(paths, cur.String())
			cur.Reset()
		}
	}

	for i := 0; i < len(payload); i++ {
		c := payload[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
				continue
			}
			cur.WriteByte(c)
		case c == '\\' && i+1 < len(payload):
			cur.WriteByte(c)
			cur.WriteByte(payload[i+1])
			i++
		case c == '\'' || c == '"':
			quote = c
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()

	return paths
}

func unescape(p string) string {
	if !strings.Contains(p, `\`) {
		return p
	}
	var b strings.Builder
	for i := 0; i < len(p); i++ {
		if p[i] == '\\' && i+1 < len(p) {
			i++
		}
		b.WriteByte(p[i])
	}
	return b.String()
}
