package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(ModelRegistry...))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestWaitlistEntry_DefaultsToPending(t *testing.T) {
	db := openTestDB(t)

	entry := &WaitlistEntry{Email: "pioneer@nostalgist.io"}
	require.NoError(t, db.Create(entry).Error)

	var stored WaitlistEntry
	require.NoError(t, db.First(&stored, entry.ID).Error)

	assert.Equal(t, WaitlistStatusPending, stored.Status)
	assert.False(t, stored.CreatedAt.IsZero())

	_, ok := stored.Attachment()
	assert.False(t, ok)
	assert.Nil(t, stored.AttachmentURL)
	assert.Nil(t, stored.AttachmentKey)
	assert.Nil(t, stored.AttachmentFilename)
	assert.Nil(t, stored.AttachmentMimeType)
}

func TestWaitlistEntry_SetAttachmentRoundTrip(t *testing.T) {
	db := openTestDB(t)

	entry := &WaitlistEntry{Email: "docent@nostalgist.io"}
	entry.SetAttachment(Attachment{
		URL:      "http://localhost/uploads/waitlist-attachments/docent.txt",
		Key:      "waitlist-attachments/docent.txt",
		Filename: "resume.txt",
		MimeType: "text/plain",
	})
	require.NoError(t, db.Create(entry).Error)

	var stored WaitlistEntry
	require.NoError(t, db.First(&stored, entry.ID).Error)

	att, ok := stored.Attachment()
	require.True(t, ok)
	assert.Equal(t, "resume.txt", att.Filename)
	assert.Equal(t, "text/plain", att.MimeType)
}

func TestWaitlistEntry_RejectsPartialAttachment(t *testing.T) {
	db := openTestDB(t)

	key := "waitlist-attachments/orphan.txt"
	entry := &WaitlistEntry{Email: "partial@nostalgist.io", AttachmentKey: &key}

	err := db.Create(entry).Error
	assert.ErrorIs(t, err, ErrPartialAttachment)

	var count int64
	require.NoError(t, db.Model(&WaitlistEntry{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestWaitlistEntry_EmailIsNotUnique(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Create(&WaitlistEntry{Email: "twice@nostalgist.io"}).Error)
	require.NoError(t, db.Create(&WaitlistEntry{Email: "twice@nostalgist.io"}).Error)

	var count int64
	require.NoError(t, db.Model(&WaitlistEntry{}).Where("email = ?", "twice@nostalgist.io").Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestWaitlistStatus_IsValid(t *testing.T) {
	assert.True(t, WaitlistStatusPending.IsValid())
	assert.True(t, WaitlistStatusApproved.IsValid())
	assert.True(t, WaitlistStatusRejected.IsValid())
	assert.False(t, WaitlistStatus("archived").IsValid())
}
