// internal/ingest/slots.go
package ingest

import "strings"

const (
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
	MimeWebP = "image/webp"
	MimeGIF  = "image/gif"
	MimePDF  = "application/pdf"
)

// MaxUploadBytes is the pre-compression ceiling for any attachment.
const MaxUploadBytes int64 = 5 * 1024 * 1024

type SlotKey string

const (
	SlotPhoto             SlotKey = "photo"
	SlotIDCard            SlotKey = "id_card"
	SlotTranscript        SlotKey = "transcript"
	SlotHouseRegistration SlotKey = "house_registration"
	SlotCertificate       SlotKey = "certificate"
)

// Slot is one named document requirement of the documents step.
type Slot struct {
	Key      SlotKey
	Label    string
	Required bool
	Accepted map[string]bool
}

func (s Slot) Accepts(mimeType string) bool {
	return s.Accepted[NormalizeMime(mimeType)]
}

var (
	imagesOnly   = set(MimeJPEG, MimePNG, MimeWebP, MimeGIF)
	imagesAndPDF = set(MimeJPEG, MimePNG, MimeWebP, MimeGIF, MimePDF)
)

var slots = []Slot{
	{Key: SlotPhoto, Label: "รูปถ่ายหน้าตรง (1 นิ้ว)", Required: true, Accepted: imagesOnly},
	{Key: SlotIDCard, Label: "สำเนาบัตรประจำตัวประชาชน", Required: true, Accepted: imagesAndPDF},
	{Key: SlotTranscript, Label: "สำเนาใบระเบียนผลการเรียน (Transcript)", Required: true, Accepted: imagesAndPDF},
	{Key: SlotHouseRegistration, Label: "สำเนาทะเบียนบ้าน", Required: false, Accepted: imagesAndPDF},
	{Key: SlotCertificate, Label: "ใบรับรองอื่น ๆ (ถ้ามี)", Required: false, Accepted: imagesAndPDF},
}

// Slots returns the document slots in display order.
func Slots() []Slot {
	out := make([]Slot, len(slots))
	copy(out, slots)
	return out
}

func LookupSlot(key SlotKey) (Slot, bool) {
	for _, s := range slots {
		if s.Key == key {
			return s, true
		}
	}
	return Slot{}, false
}

// RequiredSlots lists the keys that must be populated before submission.
func RequiredSlots() []SlotKey {
	var out []SlotKey
	for _, s := range slots {
		if s.Required {
			out = append(out, s.Key)
		}
	}
	return out
}

// NormalizeMime lower-cases a declared content type and strips parameters.
func NormalizeMime(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

func IsImage(mimeType string) bool {
	return strings.HasPrefix(NormalizeMime(mimeType), "image/")
}

func set(values ...string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}
