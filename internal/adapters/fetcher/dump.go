package fetcher

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/rs/zerolog/log"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Dumper writes fetched HTML to disk for debugging selector breakage
type Dumper struct {
	dir string
	now func() time.Time
}

// NewDumper writes into dir, creating it on first use
func NewDumper(dir string) *Dumper {
	if dir == "" {
		dir = "dumps"
	}
	return &Dumper{dir: dir, now: time.Now}
}

// Dump saves html under a name derived from url. Failures are logged and
// never reach the caller.
func (d *Dumper) Dump(url, html string) string {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		log.Warn().Err(err).Str("dir", d.dir).Msg("Failed to create dump directory")
		return ""
	}
	path := filepath.Join(d.dir, d.fileName(url))
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to write page dump")
		return ""
	}
	log.Debug().Str("path", path).Str("url", url).Msg("Page dumped")
	return path
}

func (d *Dumper) fileName(url string) string {
	name := unsafeFileChars.ReplaceAllString(url, "_")
	if len(name) > 120 {
		name = name[len(name)-120:]
	}
	return fmt.Sprintf("%s_%s.html", d.now().UTC().Format("20060102T150405.000"), name)
}
