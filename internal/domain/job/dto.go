// internal/domain/job/dto.go
package job

import (
	"fmt"

	xerrors "jobboard-service/internal/pkg/errors"
	"jobboard-service/internal/pkg/sanitize"
)

// SubmitJobRequest is the body for public submissions and for corporation
// create/update calls.
type SubmitJobRequest struct {
	Title        string   `json:"title" binding:"required,max=200"`
	Company      string   `json:"company" binding:"required,max=200"`
	Location     string   `json:"location" binding:"max=200"`
	Description  string   `json:"description" binding:"required,max=20000"`
	Salary       string   `json:"salary" binding:"max=100"`
	ApplyURL     string   `json:"apply_url" binding:"omitempty,max=500"`
	ContactEmail string   `json:"contact_email" binding:"omitempty,email"`
	Tags         []string `json:"tags" binding:"max=20,dive,max=50"`
}

// Sanitize cleans every free-text field in place.
func (r *SubmitJobRequest) Sanitize() {
	r.Title = sanitize.String(r.Title)
	r.Company = sanitize.String(r.Company)
	r.Location = sanitize.String(r.Location)
	r.Description = sanitize.String(r.Description)
	r.Salary = sanitize.String(r.Salary)
	r.ApplyURL = sanitize.String(r.ApplyURL)
	r.ContactEmail = sanitize.String(r.ContactEmail)
	r.Tags = sanitize.Strings(r.Tags)
}

// Validate checks the fields sanitization may have emptied.
func (r *SubmitJobRequest) Validate() error {
	for name, v := range map[string]string{
		"title":       r.Title,
		"company":     r.Company,
		"description": r.Description,
	} {
		if v == "" {
			return fmt.Errorf("%w: %s is required", xerrors.ErrInvalidInput, name)
		}
	}
	return nil
}

// Apply copies the request onto j.
func (r *SubmitJobRequest) Apply(j *Job) {
	j.Title = r.Title
	j.Company = r.Company
	j.Location = r.Location
	j.Description = r.Description
	j.Salary = r.Salary
	j.ApplyURL = r.ApplyURL
	j.ContactEmail = r.ContactEmail
	j.Tags = r.Tags
}
