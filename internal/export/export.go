// Package export writes finished prompts to markdown files with a YAML
// frontmatter header.
package export

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sant0-9/soapflow/internal/asmr"
)

var ErrNoFrontmatter = errors.New("file has no frontmatter")

// Metadata is the frontmatter of an exported file
type Metadata struct {
	Created      time.Time `yaml:"created"`
	HistoryID    string    `yaml:"history_id,omitempty"`
	Model        string    `yaml:"model,omitempty"`
	ContentTypes []string  `yaml:"content_types"`
}

// Markdown renders result as a document: frontmatter, the tone block,
// then one section per content type in display order.
func Markdown(result *asmr.GeneratedResult, meta Metadata) ([]byte, error) {
	if result == nil {
		return nil, errors.New("nothing to export")
	}
	if meta.ContentTypes == nil {
		for _, ct := range asmr.ContentTypes {
			if _, ok := result.Prompts[ct]; ok {
				meta.ContentTypes = append(meta.ContentTypes, ct.String())
			}
		}
	}

	header, err := yaml.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode frontmatter: %w", err)
	}

	var b bytes.Buffer
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")

	b.WriteString("## Tone block\n\n")
	b.WriteString(strings.TrimSpace(result.FinalToneBlock))
	b.WriteString("\n")

	for _, ct := range asmr.ContentTypes {
		text, ok := result.Prompts[ct]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n%s\n", ct, strings.TrimSpace(text))
	}
	return b.Bytes(), nil
}

// FileName is the name used for a session exported at t
func FileName(t time.Time) string {
	return "soapflow-" + t.Format("20060102-150405") + ".md"
}

// WriteFile exports result into dir and returns the written path
func WriteFile(dir string, result *asmr.GeneratedResult, meta Metadata) (string, error) {
	if meta.Created.IsZero() {
		meta.Created = time.Now()
	}
	data, err := Markdown(result, meta)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, FileName(meta.Created))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// ReadMetadata reads only the frontmatter of an exported file
func ReadMetadata(path string) (*Metadata, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var frontmatter strings.Builder
	scanner := bufio.NewScanner(file)
	lineCount := 0
	closed := false

	for scanner.Scan() {
		line := scanner.Text()
		lineCount++

		if lineCount == 1 {
			if line != "---" {
				return nil, ErrNoFrontmatter
			}
			continue
		}
		if line == "---" {
			closed = true
			break
		}
		frontmatter.WriteString(line)
		frontmatter.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !closed {
		return nil, ErrNoFrontmatter
	}

	var meta Metadata
	if err := yaml.Unmarshal([]byte(frontmatter.String()), &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}
