package content

import (
	"fmt"
	"slices"
	"strings"

	"github.com/harishcmuthyala/portfolio/internal/selection"
)

// Store is the immutable content set.
type Store struct {
	version        int
	profile        Profile
	about          About
	nav            []NavLink
	jobs           []Job
	projects       []Project
	skills         Skills
	education      []Education
	certifications []Certification
	ideas          []Idea
	categories     []string
}

func (s *Store) Version() int { return s.version }

func (s *Store) Profile() Profile { return s.profile }

func (s *Store) About() About {
	return About{
		Stats:   slices.Clone(s.about.Stats),
		WhatIDo: slices.Clone(s.about.WhatIDo),
	}
}

func (s *Store) Nav() []NavLink { return slices.Clone(s.nav) }

// Jobs returns the experience entries in display order.
func (s *Store) Jobs() []Job {
	out := make([]Job, len(s.jobs))
	for i, j := range s.jobs {
		j.Highlights = slices.Clone(j.Highlights)
		out[i] = j
	}
	return out
}

// Projects returns every project in display order.
func (s *Store) Projects() []Project {
	out := make([]Project, len(s.projects))
	for i, p := range s.projects {
		p.Details = slices.Clone(p.Details)
		p.Technologies = slices.Clone(p.Technologies)
		out[i] = p
	}
	return out
}

// ProjectCategories returns AllCategory followed by the distinct project categories in order of
// first appearance.
func (s *Store) ProjectCategories() []string {
	return append([]string{AllCategory}, s.categories...)
}

// ProjectsIn returns the projects whose category is category, or every project for AllCategory.
func (s *Store) ProjectsIn(category string) []Project {
	return selection.Filter(s.Projects(), category, AllCategory, func(p Project) string { return p.Category })
}

func (s *Store) Skills() Skills {
	groups := make([]SkillGroup, len(s.skills.Groups))
	for i, g := range s.skills.Groups {
		g.Skills = slices.Clone(g.Skills)
		groups[i] = g
	}
	return Skills{Groups: groups, Also: slices.Clone(s.skills.Also)}
}

func (s *Store) Education() []Education {
	out := make([]Education, len(s.education))
	for i, e := range s.education {
		e.Specializations = slices.Clone(e.Specializations)
		out[i] = e
	}
	return out
}

func (s *Store) Certifications() []Certification { return slices.Clone(s.certifications) }

func (s *Store) Ideas() []Idea { return slices.Clone(s.ideas) }

// IdeaIDs returns idea ids in display order.
func (s *Store) IdeaIDs() []int {
	ids := make([]int, len(s.ideas))
	for i, idea := range s.ideas {
		ids[i] = idea.ID
	}
	return ids
}

// validate enforces "fields are present strings/numbers" on the loaded set.
func (s *Store) validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	p := s.profile
	for field, v := range map[string]string{
		"profile.name":  p.Name,
		"profile.title": p.Title,
		"profile.email": p.Email,
	} {
		if strings.TrimSpace(v) == "" {
			add("%s is required", field)
		}
	}

	for i, l := range s.nav {
		if l.Name == "" || !strings.HasPrefix(l.Href, "#") || len(l.Href) < 2 {
			add("nav[%d]: name and #anchor href are required", i)
		}
	}

	seen := map[int]bool{}
	for i, j := range s.jobs {
		if seen[j.ID] {
			add("experience[%d]: duplicate id %d", i, j.ID)
		}
		seen[j.ID] = true
		if j.Role == "" || j.Company == "" {
			add("experience[%d]: role and company are required", i)
		}
	}

	seen = map[int]bool{}
	for i, pr := range s.projects {
		if seen[pr.ID] {
			add("projects[%d]: duplicate id %d", i, pr.ID)
		}
		seen[pr.ID] = true
		if pr.Title == "" || pr.Category == "" {
			add("projects[%d]: title and category are required", i)
		}
		if pr.Category == AllCategory {
			add("projects[%d]: category %q is reserved", i, AllCategory)
		}
	}

	for _, g := range s.skills.Groups {
		if g.Key == "" || g.Title == "" {
			add("skills: group key and title are required")
		}
		for _, sk := range g.Skills {
			if sk.Name == "" {
				add("skills.%s: skill name is required", g.Key)
			}
			if sk.Level < 0 || sk.Level > 100 {
				add("skills.%s: %s level %d out of range 0-100", g.Key, sk.Name, sk.Level)
			}
		}
	}

	seen = map[int]bool{}
	for i, e := range s.education {
		if seen[e.ID] {
			add("education[%d]: duplicate id %d", i, e.ID)
		}
		seen[e.ID] = true
		if e.Degree == "" || e.Institution == "" {
			add("education[%d]: degree and institution are required", i)
		}
	}

	seen = map[int]bool{}
	for i, c := range s.certifications {
		if seen[c.ID] {
			add("certifications[%d]: duplicate id %d", i, c.ID)
		}
		seen[c.ID] = true
		if c.Name == "" {
			add("certifications[%d]: name is required", i)
		}
	}

	seen = map[int]bool{}
	for _, idea := range s.ideas {
		if seen[idea.ID] {
			add("ideas: duplicate id %d", idea.ID)
		}
		seen[idea.ID] = true
		if idea.Title == "" || idea.Problem == "" || idea.Solution == "" {
			add("ideas[%d]: title, problem and solution are required", idea.ID)
		}
	}

	if len(problems) > 0 {
		slices.Sort(problems)
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

// AllCategory is the pseudo-category selecting every project.
const AllCategory = "All"
