package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

type WaitlistStatus string

const (
	WaitlistStatusPending  WaitlistStatus = "pending"
	WaitlistStatusApproved WaitlistStatus = "approved"
	WaitlistStatusRejected WaitlistStatus = "rejected"
)

func (s WaitlistStatus) IsValid() bool {
	switch s {
	case WaitlistStatusPending, WaitlistStatusApproved, WaitlistStatusRejected:
		return true
	}
	return false
}

// ErrPartialAttachment is returned by the create hook when only some of the
// attachment columns are populated.
var ErrPartialAttachment = errors.New("attachment fields must be all set or all empty")

// Attachment is the object-store reference carried by a waitlist entry.
type Attachment struct {
	URL      string
	Key      string
	Filename string
	MimeType string
}

type WaitlistEntry struct {
	ID    uint    `gorm:"primaryKey;autoIncrement"`
	Email string  `gorm:"size:320;not null;index"`
	Name  *string `gorm:"type:text"`

	AttachmentURL      *string `gorm:"type:text"`
	AttachmentKey      *string `gorm:"type:text"`
	AttachmentFilename *string `gorm:"type:text"`
	AttachmentMimeType *string `gorm:"size:100"`

	Status    WaitlistStatus `gorm:"size:16;not null;default:pending"`
	CreatedAt time.Time      `gorm:"not null"`
}

// SetAttachment populates all four attachment columns at once.
func (e *WaitlistEntry) SetAttachment(a Attachment) {
	e.AttachmentURL = &a.URL
	e.AttachmentKey = &a.Key
	e.AttachmentFilename = &a.Filename
	e.AttachmentMimeType = &a.MimeType
}

// Attachment returns the stored reference, or false when the entry has none.
func (e *WaitlistEntry) Attachment() (Attachment, bool) {
	if !e.hasAllAttachmentFields() {
		return Attachment{}, false
	}
	return Attachment{
		URL:      *e.AttachmentURL,
		Key:      *e.AttachmentKey,
		Filename: *e.AttachmentFilename,
		MimeType: *e.AttachmentMimeType,
	}, true
}

func (e *WaitlistEntry) hasAllAttachmentFields() bool {
	return e.AttachmentURL != nil && e.AttachmentKey != nil && e.AttachmentFilename != nil && e.AttachmentMimeType != nil
}

func (e *WaitlistEntry) hasAnyAttachmentField() bool {
	return e.AttachmentURL != nil || e.AttachmentKey != nil || e.AttachmentFilename != nil || e.AttachmentMimeType != nil
}

func (e *WaitlistEntry) BeforeCreate(tx *gorm.DB) error {
	if e.hasAnyAttachmentField() && !e.hasAllAttachmentFields() {
		return ErrPartialAttachment
	}
	if e.Status == "" {
		e.Status = WaitlistStatusPending
	}
	if !e.Status.IsValid() {
		return errors.New("invalid waitlist status: " + string(e.Status))
	}
	return nil
}
