// internal/synthesis/thai.go
package synthesis

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var thaiMonths = [...]string{
	"มกราคม", "กุมภาพันธ์", "มีนาคม", "เมษายน", "พฤษภาคม", "มิถุนายน",
	"กรกฎาคม", "สิงหาคม", "กันยายน", "ตุลาคม", "พฤศจิกายน", "ธันวาคม",
}

// buddhistEraOffset converts a Gregorian year to the Thai solar calendar.
const buddhistEraOffset = 543

// ThaiDigits replaces ASCII digits with Thai numerals.
func ThaiDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			r = '๐' + (r - '0')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ThaiDate renders t as "day month year" in the Buddhist era.
func ThaiDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d %s %d", t.Day(), thaiMonths[t.Month()-1], t.Year()+buddhistEraOffset)
}

// ThaiDateString formats an ISO date (2006-01-02); anything else is returned as is.
func ThaiDateString(iso string) string {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(iso))
	if err != nil {
		return iso
	}
	return ThaiDate(t)
}

var errNotDataURL = errors.New("not a base64 data url")

// DecodeDataURL decodes a base64 "data:image/...;base64," payload.
func DecodeDataURL(s string) (image.Image, error) {
	head, payload, ok := strings.Cut(s, ",")
	if !ok || !strings.HasPrefix(head, "data:image/") || !strings.HasSuffix(head, ";base64") {
		return nil, errNotDataURL
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data url: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode data url image: %w", err)
	}
	return img, nil
}

// SafeFileName removes path separators and control characters, collapses
// whitespace runs to one space and trims leading and trailing dots.
func SafeFileName(s string) string {
	var b strings.Builder
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = b.Len() > 0
			continue
		case r == '/' || r == '\\' || unicode.IsControl(r):
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(r)
	}
	out := strings.Trim(b.String(), ". ")
	if out == "" {
		return "applicant"
	}
	return out
}

// FormFileName is the output name of an application form.
func FormFileName(applicantName string) string {
	return SafeFileName(applicantName) + ".pdf"
}

// CardFileName is the output name of an exam card.
func CardFileName(examNumber, applicantName string) string {
	return SafeFileName(examNumber) + "_" + SafeFileName(applicantName) + ".pdf"
}

func formatGPA(gpa *float64) string {
	if gpa == nil {
		return "-"
	}
	return strconv.FormatFloat(*gpa, 'f', 2, 64)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
