// Package ingest turns uploaded files into ProjectDocuments.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/bryanwahyu/automaton-assurance/internal/domain/assurance"
)

// rule order matters: the first match wins.
var categoryRules = []struct {
	keywords []string
	category string
}{
	{[]string{"req"}, assurance.CategoryRequirement},
	{[]string{"design", "arch"}, assurance.CategoryArchitecture},
	{[]string{"case"}, assurance.CategoryBusinessCase},
	{[]string{"budget", "cost"}, assurance.CategoryBudget},
	{[]string{"plan", "schedule"}, assurance.CategoryPlan},
	{[]string{"risk"}, assurance.CategoryRiskRegister},
	{[]string{"status"}, assurance.CategoryStatusReport},
}

// Categorize assigns a category from the filename alone.
func Categorize(filename string) string {
	name := strings.ToLower(filename)
	for _, r := range categoryRules {
		for _, kw := range r.keywords {
			if strings.Contains(name, kw) {
				return r.category
			}
		}
	}
	return assurance.CategoryOther
}

var sizeUnits = []string{"B", "KB", "MB", "GB"}

// FormatSize renders n in 1024-based units with at most one decimal:
// 0 B, 512 B, 1.5 KB, 10 MB.
func FormatSize(n int64) string {
	if n <= 0 {
		return "0 B"
	}
	v, i := float64(n), 0
	for v >= 1024 && i < len(sizeUnits)-1 {
		v /= 1024
		i++
	}
	return humanize.Ftoa(math.Round(v*10)/10) + " " + sizeUnits[i]
}

// File is one upload waiting to be read.
type File struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// Ingestor reads files into documents. Zero value uses a 10 MiB cap.
type Ingestor struct {
	MaxBytes int64
}

func (in Ingestor) maxBytes() int64 {
	if in.MaxBytes <= 0 {
		return 10 << 20
	}
	return in.MaxBytes
}

// Read reads a single file. Errors name the file; nothing is retried.
func (in Ingestor) Read(f File) (assurance.ProjectDocument, error) {
	limit := in.maxBytes()
	data, err := io.ReadAll(io.LimitReader(f.Body, limit+1))
	if err != nil {
		return assurance.ProjectDocument{}, fmt.Errorf("read %s: %w", f.Name, err)
	}
	if int64(len(data)) > limit {
		return assurance.ProjectDocument{}, fmt.Errorf("read %s: file exceeds %s", f.Name, humanize.IBytes(uint64(limit)))
	}

	ctype := detectType(f.Name, f.ContentType)
	content, err := extractText(ctype, data)
	if err != nil {
		return assurance.ProjectDocument{}, fmt.Errorf("read %s: %w", f.Name, err)
	}

	return assurance.ProjectDocument{
		ID:       uuid.NewString(),
		Name:     f.Name,
		Type:     ctype,
		Size:     FormatSize(int64(len(data))),
		Category: Categorize(f.Name),
		Content:  content,
	}, nil
}

// ReadAll reads every file in order and stops at the first failure.
func (in Ingestor) ReadAll(ctx context.Context, files []File) ([]assurance.ProjectDocument, error) {
	docs := make([]assurance.ProjectDocument, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := in.Read(f)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func detectType(name, declared string) string {
	if declared != "" && declared != "application/octet-stream" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil {
			return mt
		}
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); byExt != "" {
		if mt, _, err := mime.ParseMediaType(byExt); err == nil {
			return mt
		}
	}
	if declared != "" {
		return declared
	}
	return "text/plain"
}

func extractText(ctype string, data []byte) (string, error) {
	if ctype == "text/html" || ctype == "application/xhtml+xml" {
		return htmlText(data)
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	return strings.ToValidUTF8(string(data), "�"), nil
}

// htmlText keeps text nodes and drops script/style bodies.
func htmlText(data []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				if sb.Len() > 0 {
					sb.WriteByte('\n')
				}
				sb.WriteString(t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return sb.String(), nil
}
