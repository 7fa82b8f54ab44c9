package bootcamp

import (
	"github.com/sahilchouksey/devcamper-api/model"
	"github.com/sahilchouksey/devcamper-api/utils/validation"
	"gorm.io/datatypes"
)

// BootcampRequest is the client-writable part of a bootcamp
type BootcampRequest struct {
	Name          string   `json:"name" validate:"required,max=50"`
	Description   string   `json:"description" validate:"required,max=500"`
	Website       string   `json:"website" validate:"omitempty,url"`
	Phone         string   `json:"phone" validate:"omitempty,max=20"`
	Email         string   `json:"email" validate:"omitempty,email"`
	Address       string   `json:"address" validate:"required"`
	Careers       []string `json:"careers" validate:"required,min=1,dive,oneof='Web Development' 'Mobile Development' UI/UX 'Data Science' Business Other"`
	Housing       bool     `json:"housing"`
	JobAssistance bool     `json:"jobAssistance"`
	JobGuarantee  bool     `json:"jobGuarantee"`
	AcceptGi      bool     `json:"acceptGi"`
}

// BootcampPatch is a partial update; nil fields are left unchanged
type BootcampPatch struct {
	Name          *string   `json:"name"`
	Description   *string   `json:"description"`
	Website       *string   `json:"website"`
	Phone         *string   `json:"phone"`
	Email         *string   `json:"email"`
	Address       *string   `json:"address"`
	Careers       *[]string `json:"careers"`
	Housing       *bool     `json:"housing"`
	JobAssistance *bool     `json:"jobAssistance"`
	JobGuarantee  *bool     `json:"jobGuarantee"`
	AcceptGi      *bool     `json:"acceptGi"`
}

func requestFrom(b *model.Bootcamp) BootcampRequest {
	return BootcampRequest{
		Name:          b.Name,
		Description:   b.Description,
		Website:       b.Website,
		Phone:         b.Phone,
		Email:         b.Email,
		Address:       b.Address,
		Careers:       append([]string(nil), b.Careers...),
		Housing:       b.Housing,
		JobAssistance: b.JobAssistance,
		JobGuarantee:  b.JobGuarantee,
		AcceptGi:      b.AcceptGi,
	}
}

func (p *BootcampPatch) applyTo(r *BootcampRequest) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Website != nil {
		r.Website = *p.Website
	}
	if p.Phone != nil {
		r.Phone = *p.Phone
	}
	if p.Email != nil {
		r.Email = *p.Email
	}
	if p.Address != nil {
		r.Address = *p.Address
	}
	if p.Careers != nil {
		r.Careers = *p.Careers
	}
	if p.Housing != nil {
		r.Housing = *p.Housing
	}
	if p.JobAssistance != nil {
		r.JobAssistance = *p.JobAssistance
	}
	if p.JobGuarantee != nil {
		r.JobGuarantee = *p.JobGuarantee
	}
	if p.AcceptGi != nil {
		r.AcceptGi = *p.AcceptGi
	}
}

func (r *BootcampRequest) applyTo(b *model.Bootcamp) {
	b.Name = validation.SanitizeString(r.Name)
	b.Description = validation.SanitizeString(r.Description)
	b.Website = r.Website
	b.Phone = r.Phone
	b.Email = r.Email
	b.Address = validation.SanitizeString(r.Address)
	b.Careers = datatypes.JSONSlice[string](r.Careers)
	b.Housing = r.Housing
	b.JobAssistance = r.JobAssistance
	b.JobGuarantee = r.JobGuarantee
	b.AcceptGi = r.AcceptGi
}
