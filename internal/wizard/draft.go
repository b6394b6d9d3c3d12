// internal/wizard/draft.go
package wizard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"recruitment-portal/internal/models"
)

var ErrUnknownField = errors.New("unknown draft field")

// Field names double as ErrorMap keys.
const (
	FieldPositionID        = "position_id"
	FieldCitizenID         = "citizen_id"
	FieldFullName          = "full_name"
	FieldBirthDate         = "birth_date"
	FieldAddress           = "address"
	FieldPhone             = "phone"
	FieldEmail             = "email"
	FieldEducationLevel    = "education_level"
	FieldInstitution       = "institution"
	FieldMajor             = "major"
	FieldGPA               = "gpa"
	FieldGraduationDate    = "graduation_date"
	FieldCurrentOccupation = "current_occupation"
	FieldWorkPlace         = "work_place"
	FieldSkills            = "skills"
	FieldDisabilityType    = "disability_type"
	FieldSignatureImage    = "signature_image"
)

// Draft is the in-progress application held by a wizard.
type Draft struct {
	PositionID        string `json:"position_id"`
	CitizenID         string `json:"citizen_id"`
	FullName          string `json:"full_name"`
	BirthDate         string `json:"birth_date"`
	Address           string `json:"address"`
	Phone             string `json:"phone"`
	Email             string `json:"email,omitempty"`
	EducationLevel    string `json:"education_level"`
	Institution       string `json:"institution"`
	Major             string `json:"major,omitempty"`
	GPA               string `json:"gpa,omitempty"`
	GraduationDate    string `json:"graduation_date,omitempty"`
	CurrentOccupation string `json:"current_occupation,omitempty"`
	WorkPlace         string `json:"work_place,omitempty"`
	Skills            string `json:"skills,omitempty"`
	DisabilityType    string `json:"disability_type,omitempty"`
	SignatureImage    string `json:"signature_image,omitempty"`
}

func (d *Draft) field(name string) (*string, bool) {
	switch name {
	case FieldPositionID:
		return &d.PositionID, true
	case FieldCitizenID:
		return &d.CitizenID, true
	case FieldFullName:
		return &d.FullName, true
	case FieldBirthDate:
		return &d.BirthDate, true
	case FieldAddress:
		return &d.Address, true
	case FieldPhone:
		return &d.Phone, true
	case FieldEmail:
		return &d.Email, true
	case FieldEducationLevel:
		return &d.EducationLevel, true
	case FieldInstitution:
		return &d.Institution, true
	case FieldMajor:
		return &d.Major, true
	case FieldGPA:
		return &d.GPA, true
	case FieldGraduationDate:
		return &d.GraduationDate, true
	case FieldCurrentOccupation:
		return &d.CurrentOccupation, true
	case FieldWorkPlace:
		return &d.WorkPlace, true
	case FieldSkills:
		return &d.Skills, true
	case FieldDisabilityType:
		return &d.DisabilityType, true
	case FieldSignatureImage:
		return &d.SignatureImage, true
	}
	return nil, false
}

// CheckFields returns ErrUnknownField for the first name Draft does not carry.
func CheckFields(fields map[string]string) error {
	var d Draft
	for name := range fields {
		if _, ok := d.field(name); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, name)
		}
	}
	return nil
}

// With returns a copy of d with the known fields replaced.
func (d Draft) With(fields map[string]string) Draft {
	for name, value := range fields {
		if p, ok := d.field(name); ok {
			*p = value
		}
	}
	return d
}

// Application maps the draft onto a pending record.
func (d Draft) Application() *models.Application {
	app := &models.Application{
		PositionID:        strings.TrimSpace(d.PositionID),
		CitizenID:         strings.TrimSpace(d.CitizenID),
		FullName:          strings.TrimSpace(d.FullName),
		BirthDate:         strings.TrimSpace(d.BirthDate),
		Address:           strings.TrimSpace(d.Address),
		Phone:             strings.TrimSpace(d.Phone),
		Email:             strings.TrimSpace(d.Email),
		EducationLevel:    d.EducationLevel,
		Institution:       strings.TrimSpace(d.Institution),
		Major:             strings.TrimSpace(d.Major),
		GraduationDate:    strings.TrimSpace(d.GraduationDate),
		CurrentOccupation: strings.TrimSpace(d.CurrentOccupation),
		WorkPlace:         strings.TrimSpace(d.WorkPlace),
		Skills:            strings.TrimSpace(d.Skills),
		DisabilityType:    d.DisabilityType,
		SignatureImage:    d.SignatureImage,
		Status:            models.StatusPending,
	}
	if gpa, err := strconv.ParseFloat(strings.TrimSpace(d.GPA), 64); err == nil {
		app.GPA = &gpa
	}
	return app
}
