// Package catalog reads service definitions from a folder of JSON or YAML
// documents.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/atvirokodosprendimai/studio/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	ReasonNotRegular = "not a regular file"
	ReasonReadFailed = "read failed"
	ReasonMalformed  = "malformed document"
	ReasonNoName     = "missing name"
)

// Entry is one scanned file: either a usable draft or a skip reason.
type Entry struct {
	Path   string
	Draft  domain.ServiceDraft
	Reason string
}

func (e Entry) Skipped() bool { return e.Reason != "" }

func (e Entry) Skip() domain.CatalogSkip {
	return domain.CatalogSkip{Path: e.Path, Reason: e.Reason}
}

// Scan walks the top level of dir. Each call lists the folder again, so the
// sequence can be ranged over more than once. A missing folder yields nothing.
func Scan(dir string) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return
		}
		for _, de := range entries {
			if !recognized(de.Name()) {
				continue
			}
			if !yield(load(filepath.Join(dir, de.Name()))) {
				return
			}
		}
	}
}

func recognized(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

func load(path string) Entry {
	skip := func(reason string) Entry { return Entry{Path: path, Reason: reason} }

	info, err := os.Stat(path)
	if err != nil {
		return skip(ReasonReadFailed)
	}
	if !info.Mode().IsRegular() {
		return skip(ReasonNotRegular)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return skip(ReasonReadFailed)
	}

	doc, ok := decode(path, raw)
	if !ok {
		return skip(ReasonMalformed)
	}

	name, _ := doc["name"].(string)
	name = strings.TrimSpace(name)
	if name == "" {
		return skip(ReasonNoName)
	}

	draft := domain.ServiceDraft{Name: name}
	if code, ok := doc["code"].(string); ok && strings.TrimSpace(code) != "" {
		draft.Code = strings.TrimSpace(code)
	} else {
		base := filepath.Base(path)
		draft.Code = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if desc, ok := doc["description"].(string); ok {
		draft.Description = &desc
	}
	if price, ok := numeric(doc["price_default"]); ok {
		draft.PriceDefault = &price
	}
	return Entry{Path: path, Draft: draft}
}

// decode accepts only a top-level object.
func decode(path string, raw []byte) (map[string]any, bool) {
	var doc map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, false
		}
		if dec.More() {
			return nil, false
		}
	default:
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, false
		}
	}
	return doc, doc != nil
}

func numeric(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case float64:
		return decimal.NewFromFloat(n), true
	}
	return decimal.Decimal{}, false
}

// Folder is a catalog source backed by a directory on disk.
type Folder struct {
	Dir string
}

func NewFolder(dir string) *Folder {
	return &Folder{Dir: dir}
}

func (f *Folder) Drafts(ctx context.Context) ([]domain.ServiceDraft, []domain.CatalogSkip, error) {
	drafts := make([]domain.ServiceDraft, 0)
	skips := make([]domain.CatalogSkip, 0)
	for entry := range Scan(f.Dir) {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if entry.Skipped() {
			skips = append(skips, entry.Skip())
			continue
		}
		drafts = append(drafts, entry.Draft)
	}
	return drafts, skips, nil
}
