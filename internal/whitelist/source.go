package whitelist

import (
	"context"
	"fmt"
	"log"
	"os"

	"golang.org/x/net/publicsuffix"
	"gopkg.in/yaml.v3"

	"github.com/tinydroplets/imagefetch/internal/domain"
)

// Source loads a whitelist from somewhere: a config file, the
// environment, a remote endpoint.
type Source interface {
	Load(ctx context.Context) (*domain.Whitelist, error)
}

// FileSource reads patterns from the `whitelist:` key of a YAML file.
// The file is re-read on every Load so the reloader picks up edits.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

type fileFormat struct {
	Whitelist []string `yaml:"whitelist"`
}

func (s *FileSource) Load(ctx context.Context) (*domain.Whitelist, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read whitelist file: %w", err)
	}

	var ff fileFormat
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("parse whitelist file %s: %w", s.path, err)
	}

	return Compile(ff.Whitelist), nil
}

// StaticSource serves a fixed pattern list, for deployments configured
// entirely through the environment.
type StaticSource struct {
	patterns []string
}

func NewStaticSource(patterns []string) *StaticSource {
	return &StaticSource{patterns: patterns}
}

func (s *StaticSource) Load(ctx context.Context) (*domain.Whitelist, error) {
	return Compile(s.patterns), nil
}

// Compile turns raw patterns into a whitelist. Patterns that do not
// yield a usable host are skipped, not fatal: a partially bad config
// should still protect the hosts it names.
func Compile(patterns []string) *domain.Whitelist {
	entries := make([]domain.Entry, 0, len(patterns))

	var skipped int
	for _, p := range patterns {
		e, err := domain.CompileEntry(p)
		if err != nil {
			skipped++
			log.Printf("whitelist: skipping pattern %q: %v", p, err)
			continue
		}

		// A bare public suffix combined with suffix matching admits
		// nearly every host on the internet. Warn loudly, keep the entry.
		if ps, icann := publicsuffix.PublicSuffix(e.Host); icann && ps == e.Host {
			log.Printf("whitelist: pattern %q is a bare public suffix and will match almost any host", p)
		}

		entries = append(entries, e)
	}

	if skipped > 0 {
		log.Printf("whitelist: skipped %d of %d patterns", skipped, len(patterns))
	}

	return domain.NewWhitelist(entries)
}
