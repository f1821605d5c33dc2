package opportunities

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/InternHub-KE/client/internal/validation"
)

// Draft is an opportunity submission before the backend assigns an ID and a
// lifecycle status. Drafts are never created directly into approved or
// rejected; the status applied on creation is a policy decision made by the
// moderation gateway, not by the author.
type Draft struct {
	Title               string    `json:"title" validate:"required"`
	Company             string    `json:"company" validate:"required"`
	Description         string    `json:"description" validate:"required"`
	Requirements        []string  `json:"requirements"`
	Location            string    `json:"location" validate:"required"`
	Duration            *string   `json:"duration,omitempty"`
	Positions           int       `json:"positions" validate:"gte=1"`
	ApplicationDeadline time.Time `json:"applicationDeadline" validate:"required"`
	Type                Type      `json:"type" validate:"required,oneof=internship industrial-attachment"`
	Category            string    `json:"category" validate:"required,oneof=IT Engineering Business Healthcare Other"`
	Stipend             *string   `json:"stipend,omitempty"`
	ApplyURL            *string   `json:"applyUrl,omitempty"`
	Source              Source    `json:"source"`
}

var draftValidator = validator.New()

// Normalize trims whitespace and drops blank requirement entries. The
// requirements submitted to creation are always the subsequence of entered
// values with blanks removed; no further emptiness policy is applied.
func (d *Draft) Normalize() {
	d.Title = strings.TrimSpace(d.Title)
	d.Company = strings.TrimSpace(d.Company)
	d.Location = strings.TrimSpace(d.Location)
	d.Category = strings.TrimSpace(d.Category)

	filtered := make([]string, 0, len(d.Requirements))
	for _, req := range d.Requirements {
		req = strings.TrimSpace(req)
		if req == "" {
			continue
		}
		filtered = append(filtered, req)
	}
	d.Requirements = filtered

	if d.Source == "" {
		d.Source = SourceManual
	}
}

// Validate checks the draft before any network call. Failures are returned as
// *validation.ValidationError.
func (d *Draft) Validate() error {
	if err := validation.FromValidator(draftValidator.Struct(d)); err != nil {
		return err
	}
	if d.ApplyURL != nil {
		if err := validation.ValidateURL(*d.ApplyURL, "applyUrl"); err != nil {
			return err
		}
	}
	return nil
}
