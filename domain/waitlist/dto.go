package waitlist

import (
	"github.com/akeren/archive-waitlist/internal/models"
	"github.com/akeren/archive-waitlist/pkg/constants"
)

type JoinWaitlistRequest struct {
	Email string `json:"email" validate:"required,email,max=320"`
	Name  string `json:"name"`
	// FileData is the attachment, standard base64 encoded.
	FileData     string `json:"file_data" validate:"omitempty,base64"`
	FileName     string `json:"file_name" validate:"required_with=FileData,max=255,safe_filename"`
	FileMimeType string `json:"file_mime_type" validate:"max=100"`
}

func (r *JoinWaitlistRequest) hasAttachment() bool {
	return r.FileData != "" && r.FileName != ""
}

type JoinWaitlistResponse struct {
	Success bool `json:"success"`
}

type WaitlistEntryResponse struct {
	ID                 uint    `json:"id"`
	Email              string  `json:"email"`
	Name               *string `json:"name"`
	AttachmentURL      *string `json:"attachment_url"`
	AttachmentKey      *string `json:"attachment_key"`
	AttachmentFilename *string `json:"attachment_filename"`
	AttachmentMimeType *string `json:"attachment_mime_type"`
	Status             string  `json:"status"`
	CreatedAt          string  `json:"created_at"`
}

// ========================================
// Mappers
// ========================================

func ToWaitlistEntryModel(req *JoinWaitlistRequest) *models.WaitlistEntry {
	if req == nil {
		return nil
	}

	entry := &models.WaitlistEntry{
		Email:  req.Email,
		Status: models.WaitlistStatusPending,
	}
	if req.Name != "" {
		name := req.Name
		entry.Name = &name
	}

	return entry
}

func ToWaitlistEntryResponse(entry *models.WaitlistEntry) WaitlistEntryResponse {
	if entry == nil {
		return WaitlistEntryResponse{}
	}
	return WaitlistEntryResponse{
		ID:                 entry.ID,
		Email:              entry.Email,
		Name:               entry.Name,
		AttachmentURL:      entry.AttachmentURL,
		AttachmentKey:      entry.AttachmentKey,
		AttachmentFilename: entry.AttachmentFilename,
		AttachmentMimeType: entry.AttachmentMimeType,
		Status:             string(entry.Status),
		CreatedAt:          entry.CreatedAt.Format(constants.RFC3339DateTimeFormat),
	}
}
