// Package content holds the read-only portfolio data set: profile, experience, projects,
// skills, education, certifications, ideas and navigation links.
//
// A Store is built once at startup and shared by reference. Every accessor returns a copy, so
// no consumer can change what another one renders.
package content

import "html/template"

type Profile struct {
	Name         string `yaml:"name"`
	Initials     string `yaml:"initials"`
	Title        string `yaml:"title"`
	Tagline      string `yaml:"tagline"`
	Availability string `yaml:"availability"`
	Location     string `yaml:"location"`
	Email        string `yaml:"email"`
	Phone        string `yaml:"phone"`
	LinkedIn     string `yaml:"linkedin"`
	GitHub       string `yaml:"github"`
	ProfileImage string `yaml:"profile_image"`
	ResumeURL    string `yaml:"resume_url"`
	ResumeFile   string `yaml:"resume_file"`
	Bio          string `yaml:"bio"`
	BioExtra     string `yaml:"bio_extra"`

	// BioHTML is Bio rendered from Markdown at load time.
	BioHTML template.HTML `yaml:"-"`
}

type Stat struct {
	Icon  string `yaml:"icon"`
	Value string `yaml:"value"`
	Label string `yaml:"label"`
}

type About struct {
	Stats   []Stat   `yaml:"stats"`
	WhatIDo []string `yaml:"what_i_do"`
}

type NavLink struct {
	Name string `yaml:"name"`
	Href string `yaml:"href"`
}

// Anchor returns the section id the link points at, without the leading '#'.
func (l NavLink) Anchor() string {
	if len(l.Href) > 0 && l.Href[0] == '#' {
		return l.Href[1:]
	}
	return l.Href
}

// Job is one experience entry.
type Job struct {
	ID         int      `yaml:"id"`
	Role       string   `yaml:"role"`
	Company    string   `yaml:"company"`
	Department string   `yaml:"department"`
	Location   string   `yaml:"location"`
	Period     string   `yaml:"period"`
	Current    bool     `yaml:"current"`
	Highlights []string `yaml:"highlights"`
}

type Project struct {
	ID           int      `yaml:"id"`
	Title        string   `yaml:"title"`
	Description  string   `yaml:"description"`
	Category     string   `yaml:"category"`
	Details      []string `yaml:"details"`
	Technologies []string `yaml:"technologies"`
	Link         string   `yaml:"link,omitempty"`
}

type Skill struct {
	Name  string `yaml:"name"`
	Level int    `yaml:"level"`
}

// SkillGroup is one skill category. Display order is the order of groups in the source.
type SkillGroup struct {
	Key    string  `yaml:"key"`
	Title  string  `yaml:"title"`
	Icon   string  `yaml:"icon"`
	Skills []Skill `yaml:"skills"`
}

type Skills struct {
	Groups []SkillGroup `yaml:"groups"`
	Also   []string     `yaml:"also"`
}

type Education struct {
	ID              int      `yaml:"id"`
	Degree          string   `yaml:"degree"`
	Institution     string   `yaml:"institution"`
	Location        string   `yaml:"location"`
	Period          string   `yaml:"period"`
	GPA             string   `yaml:"gpa,omitempty"`
	Current         bool     `yaml:"current"`
	Specializations []string `yaml:"specializations"`
}

type Certification struct {
	ID     int    `yaml:"id"`
	Name   string `yaml:"name"`
	Issuer string `yaml:"issuer"`
	Icon   string `yaml:"icon"`
	Link   string `yaml:"link,omitempty"`
}

// Idea is a speculative product idea shown on the hidden ideas page.
type Idea struct {
	ID          int    `yaml:"id"`
	Title       string `yaml:"title"`
	Category    string `yaml:"category"`
	Status      string `yaml:"status"`
	Icon        string `yaml:"icon"`
	OpenToBuild bool   `yaml:"open_to_build"`
	Problem     string `yaml:"problem"`

	// Solution is the Markdown body of the idea file, SolutionHTML its rendering.
	Solution     string        `yaml:"-"`
	SolutionHTML template.HTML `yaml:"-"`
}

// Idea statuses with dedicated badge styling.
const (
	StatusReadyToBuild = "Ready to Build"
	StatusConceptual   = "Conceptual"
	StatusResearch     = "Research"
)

// document is the shape of portfolio.yaml.
type document struct {
	Version        int             `yaml:"version"`
	Profile        Profile         `yaml:"profile"`
	About          About           `yaml:"about"`
	Nav            []NavLink       `yaml:"nav"`
	Experience     []Job           `yaml:"experience"`
	Projects       []Project       `yaml:"projects"`
	Skills         Skills          `yaml:"skills"`
	Education      []Education     `yaml:"education"`
	Certifications []Certification `yaml:"certifications"`
}
