package repository

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"airfare-collector/internal/domain/entity"
	"airfare-collector/internal/domain/repository"
	"airfare-collector/pkg/logger"
)

var unsafeNameRe = regexp.MustCompile(`[^A-Za-z0-9-]`)

// FileRawResponseRepository stores raw responses as
// <root>/<scrape date>/<departure date>/<ORG>_<DST>_<DATE>_<AGENCY>.json
type FileRawResponseRepository struct {
	root   string
	logger logger.Logger
}

// NewFileRawResponseRepository creates a new file backed raw response repository
func NewFileRawResponseRepository(root string, logger logger.Logger) repository.RawResponseRepository {
	return &FileRawResponseRepository{
		root:   root,
		logger: logger,
	}
}

// Save writes the body atomically and returns the path relative to the root
func (r *FileRawResponseRepository) Save(ctx context.Context, raw entity.RawResponse) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ref := sourceRef(raw.Provenance)
	target := filepath.Join(r.root, filepath.FromSlash(ref))
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".raw-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write response: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("failed to move response into place: %w", err)
	}

	return ref, nil
}

// List reads every stored response whose scrape date passes the filter,
// ordered by scrape date then path. Files outside the layout are skipped.
func (r *FileRawResponseRepository) List(ctx context.Context, filter entity.RawFilter) ([]entity.RawResponse, error) {
	var out []entity.RawResponse

	err := filepath.WalkDir(r.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == r.root && os.IsNotExist(err) {
				return fs.SkipAll
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}

		rel, err := filepath.Rel(r.root, p)
		if err != nil {
			return err
		}
		ref := filepath.ToSlash(rel)
		prov, ok := parseSourceRef(ref)
		if !ok {
			r.logger.Warn("Skipping file outside raw layout", "path", ref)
			return nil
		}
		if !filter.Match(prov.ScrapeDate) {
			return nil
		}

		body, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", ref, err)
		}
		out = append(out, entity.RawResponse{Provenance: prov, Body: body})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func sourceRef(p entity.Provenance) string {
	date := p.Key.CompactDate()
	name := strings.Join([]string{
		safeName(p.Key.Origin),
		safeName(p.Key.Destination),
		date,
		safeName(p.Key.AgencyCode),
	}, "_") + ".json"
	return path.Join(p.ScrapeDate.Format(entity.ISODateLayout), date, name)
}

func parseSourceRef(ref string) (entity.Provenance, bool) {
	parts := strings.Split(ref, "/")
	if len(parts) != 3 {
		return entity.Provenance{}, false
	}
	scrapeDate, err := time.ParseInLocation(entity.ISODateLayout, parts[0], time.UTC)
	if err != nil {
		return entity.Provenance{}, false
	}
	fields := strings.Split(strings.TrimSuffix(parts[2], ".json"), "_")
	if len(fields) != 4 {
		return entity.Provenance{}, false
	}
	depDate, err := time.ParseInLocation(entity.CompactDateLayout, fields[2], time.UTC)
	if err != nil || fields[2] != parts[1] {
		return entity.Provenance{}, false
	}

	return entity.Provenance{
		ScrapeDate: scrapeDate,
		SourceRef:  ref,
		Key: entity.RequestKey{
			Origin:        fields[0],
			Destination:   fields[1],
			DepartureDate: depDate,
			AgencyCode:    fields[3],
		},
	}, true
}

func safeName(s string) string {
	return unsafeNameRe.ReplaceAllString(strings.TrimSpace(s), "-")
}
