package synthesis

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThaiDigits(t *testing.T) {
	assert.Equal(t, "๐๐๔๒", ThaiDigits("0042"))
	assert.Equal(t, "เลขที่ ๑๒", ThaiDigits("เลขที่ 12"))
	assert.Equal(t, "", ThaiDigits(""))
}

func TestThaiDate(t *testing.T) {
	assert.Equal(t, "18 ตุลาคม 2569", ThaiDate(time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "", ThaiDate(time.Time{}))
	assert.Equal(t, "1 มกราคม 2533", ThaiDateString("1990-01-01"))
	assert.Equal(t, "not a date", ThaiDateString("not a date"))
}

func TestFileNames(t *testing.T) {
	assert.Equal(t, "สมชาย ใจดี.pdf", FormFileName("สมชาย ใจดี"))
	assert.Equal(t, "Somchai Jaidee.pdf", FormFileName("Somchai Jaidee"))
	assert.Equal(t, "0001_สมชาย ใจดี.pdf", CardFileName("0001", "  สมชาย  ใจดี "))
	assert.Equal(t, "applicant.pdf", FormFileName("  "))
	assert.Equal(t, FormFileName("Jane Doe"), FormFileName("Jane Doe"))
}

func TestSafeFileName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"../../etc/passwd", "etcpasswd"},
		{`..\windows\system32`, "windowssystem32"},
		{"Jane\x00 Doe\r\n", "Jane Doe"},
		{"Mr. O'Neil (Jr.)", "Mr. O'Neil (Jr.)"},
		{"นางสาว\tมาลี", "นางสาว มาลี"},
		{"..", "applicant"},
	}
	for _, tt := range tests {
		got := SafeFileName(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.NotContains(t, got, "/")
		assert.NotContains(t, got, `\`)
	}
}

func TestDecodeDataURL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 4))))
	url := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	img, err := DecodeDataURL(url)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())

	_, err = DecodeDataURL("")
	assert.Error(t, err)
	_, err = DecodeDataURL("data:text/plain;base64,aGVsbG8=")
	assert.Error(t, err)
	_, err = DecodeDataURL("data:image/png;base64,!!!")
	assert.Error(t, err)
}
