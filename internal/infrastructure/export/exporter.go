package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/penalty-tracker/internal/platform/atomicfile"
	"github.com/riskibarqy/penalty-tracker/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
)

const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

type Exporter struct {
	dir     string
	formats []string
	logger  *logging.Logger
	now     func() time.Time
}

func NewExporter(dir string, formats []string, logger *logging.Logger) *Exporter {
	if logger == nil {
		logger = logging.Default()
	}
	return &Exporter{
		dir:     dir,
		formats: formats,
		logger:  logger,
		now:     time.Now,
	}
}

// SetClock replaces the clock that dates export file names.
func (e *Exporter) SetClock(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

// Export writes one file per configured format and returns the paths in
// format order. Every format is staged first; targets are replaced only
// once all of them encoded cleanly.
func (e *Exporter) Export(ctx context.Context, ds Dataset) ([]string, error) {
	stamp := e.now().UTC().Format("20060102")
	paths := make([]string, len(e.formats))
	staged := make([]*atomicfile.Staged, len(e.formats))

	p := pool.New().WithErrors().WithContext(ctx)
	for i, format := range e.formats {
		i, format := i, format
		path := filepath.Join(e.dir, FileName(ds.Scope, stamp, format))
		paths[i] = path

		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var encode func(w io.Writer, ds Dataset) error
			switch format {
			case FormatCSV:
				encode = WriteCSV
			case FormatJSON:
				encode = WriteJSON
			default:
				return fmt.Errorf("unsupported export format %q", format)
			}
			file, err := atomicfile.Stage(path, 0o644, func(w io.Writer) error {
				return encode(w, ds)
			})
			if err != nil {
				return err
			}
			staged[i] = file
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		discardAll(staged)
		return nil, err
	}

	for i, file := range staged {
		if err := file.Commit(); err != nil {
			discardAll(staged[i+1:])
			removeAll(paths[:i])
			return nil, err
		}
	}

	e.logger.InfoContext(ctx, "export written", "scope", ds.Scope, "rows", len(ds.Rows), "files", strings.Join(paths, ","))
	return paths, nil
}

func discardAll(staged []*atomicfile.Staged) {
	for _, file := range staged {
		if file != nil {
			_ = file.Discard()
		}
	}
}

func removeAll(paths []string) {
	for _, path := range paths {
		_ = os.Remove(path)
	}
}

func WriteCSV(w io.Writer, ds Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(ds.Rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

func WriteJSON(w io.Writer, ds Dataset) error {
	raw, err := sonic.ConfigStd.MarshalIndent(ds.JSON, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json export: %w", err)
	}
	raw = append(raw, '\n')
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("write json export: %w", err)
	}
	return nil
}

// FileName builds penalties_<scope>_<stamp>.<ext>.
func FileName(scope, stamp, ext string) string {
	return fmt.Sprintf("penalties_%s_%s.%s", Slug(scope), stamp, ext)
}

// Slug lowercases the scope and joins its words with dashes.
func Slug(scope string) string {
	scope = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == '.' {
			return ' '
		}
		return r
	}, strings.ToLower(scope))
	slug := strings.Join(strings.Fields(scope), "-")
	if slug == "" {
		return "all"
	}
	return slug
}
