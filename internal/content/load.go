package content

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"
)

//go:embed data
var embedded embed.FS

const (
	documentFile = "portfolio.yaml"
	ideasDir     = "ideas"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Default loads the content set compiled into the binary.
func Default() (*Store, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, fmt.Errorf("embedded content: %w", err)
	}
	return Load(sub)
}

// LoadDir loads a content set from dir on disk.
func LoadDir(dir string) (*Store, error) {
	return Load(os.DirFS(dir))
}

// Load reads portfolio.yaml and ideas/*.md from fsys and validates the result.
func Load(fsys fs.FS) (*Store, error) {
	raw, err := fs.ReadFile(fsys, documentFile)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", documentFile, err)
	}

	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", documentFile, err)
	}

	bio, err := renderMarkdown(doc.Profile.Bio)
	if err != nil {
		return nil, fmt.Errorf("rendering bio: %w", err)
	}
	doc.Profile.BioHTML = bio

	ideas, err := loadIdeas(fsys)
	if err != nil {
		return nil, err
	}

	s := &Store{
		version:        doc.Version,
		profile:        doc.Profile,
		about:          doc.About,
		nav:            doc.Nav,
		jobs:           doc.Experience,
		projects:       doc.Projects,
		skills:         doc.Skills,
		education:      doc.Education,
		certifications: doc.Certifications,
		ideas:          ideas,
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("invalid content: %w", err)
	}
	s.categories = distinctCategories(s.projects)
	return s, nil
}

// loadIdeas parses every ideas/*.md file. Files are ordered by name; a missing directory
// yields no ideas.
func loadIdeas(fsys fs.FS) ([]Idea, error) {
	entries, err := fs.ReadDir(fsys, ideasDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", ideasDir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var ideas []Idea
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".md") {
			continue
		}
		name := path.Join(ideasDir, e.Name())
		idea, err := parseIdea(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("idea %s: %w", name, err)
		}
		ideas = append(ideas, idea)
	}
	return ideas, nil
}

func parseIdea(fsys fs.FS, name string) (Idea, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Idea{}, err
	}

	var idea Idea
	body, err := frontmatter.MustParse(bytes.NewReader(raw), &idea)
	if err != nil {
		return Idea{}, fmt.Errorf("front matter: %w", err)
	}

	idea.Solution = strings.TrimSpace(string(body))
	idea.SolutionHTML, err = renderMarkdown(idea.Solution)
	if err != nil {
		return Idea{}, fmt.Errorf("rendering solution: %w", err)
	}
	idea.Problem = strings.TrimSpace(idea.Problem)
	return idea, nil
}

func renderMarkdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

func distinctCategories(projects []Project) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range projects {
		if !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	return out
}
