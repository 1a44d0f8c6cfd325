package audiences

import (
	"strings"
	"time"

	"github.com/noah-isme/adminportal/internal/categories"
	"github.com/noah-isme/adminportal/internal/platform/httpx"
)

var (
	ErrNotFound         = httpx.NewError(httpx.ErrNotFound, "Audience not found")
	ErrNotAssigned      = httpx.NewError(httpx.ErrNotFound, "Audience not assigned to this category")
	ErrCategoryNotFound = httpx.NewError(httpx.ErrNotFound, "Category not found")
	ErrNotLeaf          = httpx.NewError(httpx.ErrValidation, "Audiences can only be assigned to leaf categories")
	ErrEmptyID          = httpx.NewError(httpx.ErrValidation, "Audience ID cannot be empty")
	ErrEmptyPath        = httpx.NewError(httpx.ErrValidation, "category_path cannot be empty")
	ErrAgeRange         = httpx.NewError(httpx.ErrValidation, "min_age must not exceed max_age")
	ErrNegativeAge      = httpx.NewError(httpx.ErrValidation, "Ages must not be negative")
	ErrNoChanges        = httpx.NewError(httpx.ErrValidation, "No audience fields to update")
)

// Info describes who an audience targets.
type Info struct {
	Names          []string `json:"names,omitempty"`
	MinAge         *int     `json:"min_age,omitempty"`
	MaxAge         *int     `json:"max_age,omitempty"`
	Description    string   `json:"description,omitempty"`
	TargetCriteria string   `json:"target_criteria,omitempty"`
}

func (i Info) validate() error {
	if (i.MinAge != nil && *i.MinAge < 0) || (i.MaxAge != nil && *i.MaxAge < 0) {
		return ErrNegativeAge
	}
	if i.MinAge != nil && i.MaxAge != nil && *i.MinAge > *i.MaxAge {
		return ErrAgeRange
	}
	return nil
}

// InfoUpdate carries the fields of Info to overwrite. Nil fields are left alone.
type InfoUpdate struct {
	Names          *[]string `json:"names"`
	MinAge         *int      `json:"min_age"`
	MaxAge         *int      `json:"max_age"`
	Description    *string   `json:"description"`
	TargetCriteria *string   `json:"target_criteria"`
}

func (u InfoUpdate) empty() bool {
	return u.Names == nil && u.MinAge == nil && u.MaxAge == nil && u.Description == nil && u.TargetCriteria == nil
}

func (u InfoUpdate) apply(info *Info) {
	if u.Names != nil {
		info.Names = append([]string(nil), (*u.Names)...)
	}
	if u.MinAge != nil {
		v := *u.MinAge
		info.MinAge = &v
	}
	if u.MaxAge != nil {
		v := *u.MaxAge
		info.MaxAge = &v
	}
	if u.Description != nil {
		info.Description = *u.Description
	}
	if u.TargetCriteria != nil {
		info.TargetCriteria = *u.TargetCriteria
	}
}

// Assignment links an audience to one leaf category.
type Assignment struct {
	CategoryPath categories.Path `json:"category_path"`
	PathString   string          `json:"category_path_str"`
	AssignedAt   time.Time       `json:"assigned_at"`
}

// Audience is a stored audience record.
type Audience struct {
	ID         string       `json:"audience_id"`
	Info       Info         `json:"audience_info"`
	Categories []Assignment `json:"categories"`
	CreatedBy  string       `json:"created_by,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

func (a *Audience) assignment(path string) int {
	for i, c := range a.Categories {
		if c.PathString == path {
			return i
		}
	}
	return -1
}

func (a *Audience) matches(term string) bool {
	if strings.Contains(strings.ToLower(a.ID), term) {
		return true
	}
	for _, c := range a.Categories {
		if strings.Contains(strings.ToLower(c.PathString), term) {
			return true
		}
	}
	return false
}

// Member is an audience as seen from one of its categories.
type Member struct {
	AudienceID string    `json:"audience_id"`
	Info       Info      `json:"audience_info"`
	AssignedAt time.Time `json:"assigned_at"`
}

// ListOptions filters and pages List.
type ListOptions struct {
	Search string
	Limit  int
	Offset int
}

// DefaultListLimit applies when ListOptions.Limit is not positive.
const DefaultListLimit = 50

// BatchItem reports the outcome of one audience in a batch assignment.
type BatchItem struct {
	AudienceID string `json:"audience_id"`
	Success    bool   `json:"success"`
	Message    string `json:"message"`
}

// BatchResult summarises a batch assignment.
type BatchResult struct {
	Total      int         `json:"total"`
	Successful int         `json:"successful"`
	Failed     int         `json:"failed"`
	Details    []BatchItem `json:"details"`
}

// Statistics counts audiences and their category assignments.
type Statistics struct {
	TotalAudiences   int `json:"total_audiences"`
	TotalAssignments int `json:"total_assignments"`
}
