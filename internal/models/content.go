package models

import (
	"sort"
	"time"

	"gorm.io/datatypes"
)

type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityProtected Visibility = "protected"
	VisibilityLabs      Visibility = "labs"
)

type Status string

const (
	StatusIdea       Status = "idea"
	StatusPilot      Status = "pilot"
	StatusBeta       Status = "beta"
	StatusLive       Status = "live"
	StatusDeprecated Status = "deprecated"
	StatusArchived   Status = "archived"
)

// StatusPriority lists product statuses in listing order.
var StatusPriority = []Status{
	StatusLive,
	StatusBeta,
	StatusPilot,
	StatusIdea,
	StatusDeprecated,
	StatusArchived,
}

// Rank returns the listing position of s. Unknown statuses rank after all
// known ones.
func (s Status) Rank() int {
	for i, known := range StatusPriority {
		if s == known {
			return i
		}
	}
	return len(StatusPriority)
}

// SortProducts orders products by explicit order (unset last), then status
// priority, then name. Stores apply it before any limit is taken.
func SortProducts(products []Product) {
	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i], products[j]
		if a.Order != nil && b.Order != nil && *a.Order != *b.Order {
			return *a.Order < *b.Order
		}
		if (a.Order == nil) != (b.Order == nil) {
			return a.Order != nil
		}
		if ra, rb := a.Status.Rank(), b.Status.Rank(); ra != rb {
			return ra < rb
		}
		return a.Name < b.Name
	})
}

type LabStatus string

const (
	LabStatusHypothesis LabStatus = "hypothesis"
	LabStatusRunning    LabStatus = "running"
	LabStatusValidated  LabStatus = "validated"
	LabStatusFailed     LabStatus = "failed"
	LabStatusGraduated  LabStatus = "graduated"
)

type EngagementType string

const (
	EngagementPilot    EngagementType = "pilot"
	EngagementProject  EngagementType = "project"
	EngagementRetainer EngagementType = "retainer"
)

// ContentBase is the shape shared by every content collection.
// ID is stable across slug renames.
type ContentBase struct {
	ID         string     `gorm:"primaryKey;size:64" json:"id"`
	Slug       string     `gorm:"size:200;not null;uniqueIndex" json:"slug"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Visibility Visibility `gorm:"size:20;not null;index" json:"visibility"`
	Order      *int       `gorm:"column:sort_order" json:"order"`
}

type ProductLinks struct {
	Demo     *string `json:"demo"`
	Docs     *string `json:"docs"`
	External *string `json:"external"`
}

type ProductTheme struct {
	PrimaryColor   *string `json:"primary_color"`
	SecondaryColor *string `json:"secondary_color"`
}

type Product struct {
	ContentBase
	Name             string                            `gorm:"size:100;not null" json:"name"`
	Tagline          string                            `gorm:"size:150" json:"tagline"`
	ShortDescription string                            `gorm:"size:300" json:"short_description"`
	LongDescription  string                            `gorm:"type:text" json:"long_description"`
	Category         string                            `gorm:"size:100;index" json:"category"`
	Status           Status                            `gorm:"size:20;index" json:"status"`
	AccentColor      string                            `gorm:"size:7" json:"accent_color"`
	Icon             *string                           `gorm:"size:100" json:"icon"`
	Features         datatypes.JSONSlice[string]       `gorm:"type:jsonb" json:"features"`
	TargetAudience   *string                           `gorm:"type:text" json:"target_audience"`
	RelatedProducts  datatypes.JSONSlice[string]       `gorm:"type:jsonb" json:"related_products"`
	Links            *datatypes.JSONType[ProductLinks] `gorm:"type:jsonb" json:"links"`
	Theme            *datatypes.JSONType[ProductTheme] `gorm:"type:jsonb" json:"theme"`
}

type Service struct {
	ContentBase
	Name            string                      `gorm:"size:100;not null" json:"name"`
	Summary         string                      `gorm:"size:300" json:"summary"`
	Description     string                      `gorm:"type:text" json:"description"`
	Scope           datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"scope"`
	EngagementType  EngagementType              `gorm:"size:20;index" json:"engagement_type"`
	Deliverables    datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"deliverables"`
	Duration        *string                     `gorm:"size:100" json:"duration"`
	RelatedServices datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"related_services"`
}

type LabMetric struct {
	Name   string  `json:"name"`
	Target string  `json:"target"`
	Actual *string `json:"actual"`
}

// Lab is experimental work shown only to signed-in users. Its visibility is
// always VisibilityLabs.
type Lab struct {
	ContentBase
	Name        string                         `gorm:"size:100;not null" json:"name"`
	Description string                         `gorm:"type:text" json:"description"`
	Hypothesis  *string                        `gorm:"type:text" json:"hypothesis"`
	Status      LabStatus                      `gorm:"size:20;index" json:"status"`
	StartDate   *time.Time                     `json:"start_date"`
	EndDate     *time.Time                     `json:"end_date"`
	GraduatedTo *string                        `gorm:"size:64" json:"graduated_to"`
	Metrics     datatypes.JSONSlice[LabMetric] `gorm:"type:jsonb" json:"metrics"`
}

type PageSEO struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	OGImage     *string `json:"og_image"`
}

type Page struct {
	ContentBase
	Title   string                       `gorm:"size:100;not null" json:"title"`
	Content string                       `gorm:"type:text" json:"content"`
	SEO     *datatypes.JSONType[PageSEO] `gorm:"type:jsonb" json:"seo"`
}

type Redirect struct {
	ID        uint   `gorm:"primaryKey" json:"-"`
	FromPath  string `gorm:"column:from_path;size:500;not null;uniqueIndex" json:"from"`
	ToPath    string `gorm:"column:to_path;size:500;not null" json:"to"`
	Permanent bool   `gorm:"not null;default:true" json:"permanent"`
}
