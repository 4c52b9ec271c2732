package library

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/edukit/eduhub/core"
)

const (
	KindBook      = "book"
	KindWorksheet = "worksheet"
)

type (
	// Resource is a downloadable study material. The file itself lives in the
	// blob store under BlobKey; only the metadata is kept here.
	Resource struct {
		ID          string    `json:"id"`
		Title       string    `json:"title"`
		Kind        string    `json:"kind"`
		Subject     string    `json:"subject"`
		Grade       string    `json:"grade"`
		BlobKey     string    `json:"-"`
		Size        int64     `json:"size"`
		ContentType string    `json:"content_type"`
		UploadedBy  string    `json:"uploaded_by"`
		CreatedAt   time.Time `json:"created_at"`
	}

	NewResource struct {
		Title   string `json:"title" validate:"required,max=200"`
		Kind    string `json:"kind" validate:"required,oneof=book worksheet"`
		Subject string `json:"subject" validate:"required,max=100"`
		Grade   string `json:"grade" validate:"omitempty,max=50"`
	}

	// Video is a lesson recording, stored and served the same way as a
	// Resource.
	Video struct {
		ID          string    `json:"id"`
		Title       string    `json:"title"`
		Subject     string    `json:"subject"`
		Grade       string    `json:"grade"`
		BlobKey     string    `json:"-"`
		Size        int64     `json:"size"`
		ContentType string    `json:"content_type"`
		Duration    int       `json:"duration"` // seconds; 0 when unknown
		UploadedBy  string    `json:"uploaded_by"`
		CreatedAt   time.Time `json:"created_at"`
	}

	NewVideo struct {
		Title    string `json:"title" validate:"required,max=200"`
		Subject  string `json:"subject" validate:"required,max=100"`
		Grade    string `json:"grade" validate:"omitempty,max=50"`
		Duration int    `json:"duration" validate:"omitempty,min=0"`
	}

	ResourceFilter struct {
		Kind    string `query:"kind"`
		Subject string `query:"subject"`
		Grade   string `query:"grade"`
		Search  string `query:"search"`
	}
)

func (nr *NewResource) Validate(validate *validator.Validate) error {
	nr.Title = core.CleanString(nr.Title)
	nr.Subject = core.CleanString(nr.Subject)
	nr.Grade = core.CleanString(nr.Grade)
	return validate.Struct(nr)
}

func (nv *NewVideo) Validate(validate *validator.Validate) error {
	nv.Title = core.CleanString(nv.Title)
	nv.Subject = core.CleanString(nv.Subject)
	nv.Grade = core.CleanString(nv.Grade)
	return validate.Struct(nv)
}

func (f *ResourceFilter) IsEmpty() bool {
	return f.Kind == "" && f.Subject == "" && f.Grade == "" && f.Search == ""
}

func (f *ResourceFilter) Clean() {
	f.Kind = core.CleanString(f.Kind, true /* lower */)
	f.Subject = core.CleanString(f.Subject)
	f.Grade = core.CleanString(f.Grade)
	f.Search = core.CleanString(f.Search)
}
