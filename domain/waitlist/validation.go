package waitlist

import (
	"encoding/base64"
	"fmt"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/akeren/archive-waitlist/internal/objectstore"
	"github.com/akeren/archive-waitlist/pkg/constants"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

var requestValidator = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("safe_filename", validateSafeFilename); err != nil {
		panic(err)
	}
	return v
}

// validateSafeFilename accepts the empty string; presence is checked by required_with.
func validateSafeFilename(fl validator.FieldLevel) bool {
	return isSafeFilename(fl.Field().String())
}

func isSafeFilename(name string) bool {
	if name == "" {
		return true
	}
	if name == "." || name == ".." {
		return false
	}
	for _, r := range name {
		if r == '/' || r == '\\' || unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// exceedsAttachmentCeiling checks the encoded length so oversized payloads
// are rejected without being decoded. DecodedLen counts padding, which is at
// most two bytes; the decoded length is checked exactly afterwards.
func exceedsAttachmentCeiling(fileData string, maxBytes int64) bool {
	return int64(base64.StdEncoding.DecodedLen(len(fileData))) > maxBytes+2
}

var emailKeyReplacer = strings.NewReplacer("/", "_", "\\", "_")

// maxKeyEmailBytes bounds the email's share of the key segment so the file
// name always keeps room.
const maxKeyEmailBytes = 128

// buildAttachmentKey derives waitlist-attachments/<email>-<suffix>-<file name>.
// The last segment is kept within objectstore.MaxKeySegmentBytes by shortening
// the email and then the file name stem; the extension survives.
func buildAttachmentKey(email, fileName, suffix string) string {
	safeEmail := truncateUTF8(emailKeyReplacer.Replace(norm.NFC.String(email)), maxKeyEmailBytes)
	room := objectstore.MaxKeySegmentBytes - len(safeEmail) - len(suffix) - len("--")
	name := fitFileName(norm.NFC.String(fileName), room)

	return fmt.Sprintf("%s/%s-%s-%s", constants.WaitlistAttachmentPrefix, safeEmail, suffix, name)
}

// fitFileName shortens name to at most maxBytes, cutting the stem so the
// extension is kept. An implausibly long extension is cut like any other text.
func fitFileName(name string, maxBytes int) string {
	if len(name) <= maxBytes {
		return name
	}

	ext := path.Ext(name)
	if len(ext) > maxBytes/2 {
		return truncateUTF8(name, maxBytes)
	}
	return truncateUTF8(strings.TrimSuffix(name, ext), maxBytes-len(ext)) + ext
}

// truncateUTF8 cuts s to at most maxBytes without splitting a rune.
func truncateUTF8(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}

func randomKeySuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
