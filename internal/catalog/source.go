package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// Source fetches the raw catalog JSON document.
type Source interface {
	// Fetch returns the catalog document bytes. Implementations must respect
	// context cancellation.
	Fetch(ctx context.Context) ([]byte, error)
}

// FileSource reads the catalog from a local JSON file.
type FileSource struct {
	// Path is the filesystem path of the catalog document.
	Path string
}

// Fetch implements [Source].
func (s FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %q: %w", s.Path, err)
	}
	return data, nil
}

// HTTPSource fetches the catalog from an HTTP endpoint.
type HTTPSource struct {
	// URL is the catalog document address.
	URL string

	// Client is the HTTP client to use. When nil, [http.DefaultClient] is
	// used.
	Client *http.Client
}

// Fetch implements [Source]. Non-2xx responses are returned as errors.
func (s HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("catalog: build request for %q: %w", s.URL, err)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog: fetch %q: %w", s.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("catalog: fetch %q: unexpected status %d", s.URL, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("catalog: read body of %q: %w", s.URL, err)
	}
	return data, nil
}

// NewSource builds a [Source] from a config location string: "http://" and
// "https://" prefixes yield an [HTTPSource], anything else a [FileSource].
func NewSource(location string) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return HTTPSource{URL: location}
	}
	return FileSource{Path: location}
}

// rawEntry mirrors one catalog document entry before page resolution.
type rawEntry struct {
	Name       string           `json:"name"`
	Page       int              `json:"page"`
	ListedPage int              `json:"listedPage"`
	ActualPage int              `json:"actualPage"`
	ECTS       *float64         `json:"ects"`
	Term       string           `json:"term"`
	Type       string           `json:"type"`
	PartOf     []Classification `json:"partOf"`
	Schedule   *Schedule        `json:"schedule"`
	Exam       *Exam            `json:"exam"`
}

// wrappedDocument is the {"generatedAt": ..., "modules": [...]} catalog form.
type wrappedDocument struct {
	GeneratedAt string     `json:"generatedAt"`
	Modules     []rawEntry `json:"modules"`
}

// Decode parses a catalog document in either supported form and resolves
// each entry into a [Module]. Entries without a name are dropped. Page
// resolution priority: page if positive, else actualPage if positive, else
// listedPage if positive, else 1.
func Decode(data []byte) ([]Module, error) {
	var entries []rawEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		var doc wrappedDocument
		if err2 := json.Unmarshal(data, &doc); err2 != nil {
			return nil, fmt.Errorf("catalog: decode document: %w", err)
		}
		entries = doc.Modules
	}

	modules := make([]Module, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.Name) == "" {
			continue
		}
		modules = append(modules, Module{
			Name:       strings.TrimSpace(e.Name),
			Page:       resolvePage(e),
			ListedPage: e.ListedPage,
			ECTS:       e.ECTS,
			Term:       e.Term,
			Type:       e.Type,
			PartOf:     e.PartOf,
			Schedule:   e.Schedule,
			Exam:       e.Exam,
		})
	}
	return modules, nil
}

// resolvePage applies the page resolution priority chain.
func resolvePage(e rawEntry) int {
	switch {
	case e.Page > 0:
		return e.Page
	case e.ActualPage > 0:
		return e.ActualPage
	case e.ListedPage > 0:
		return e.ListedPage
	default:
		return 1
	}
}
