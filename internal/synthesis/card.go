// internal/synthesis/card.go
package synthesis

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/image/font/opentype"

	"recruitment-portal/internal/citizenid"
	"recruitment-portal/internal/models"
)

const (
	cardTitle       = "บัตรประจำตัวผู้สมัครเข้ารับการเลือกสรรเป็นพนักงานจ้าง"
	cardWatermark   = "ออกโดยระบบรับสมัครงานออนไลน์"
	cardMissionMark = "ตามภารกิจ"
)

// ExamCard renders the single-page exam admission card for an approved
// application.
type ExamCard struct {
	Application  *models.Application
	Position     *models.Position
	Organisation string
	Photo        image.Image
	// VerifyURLBase prefixes the application id in the QR payload.
	VerifyURLBase string
}

func (c *ExamCard) Key() string {
	return "exam-card:" + c.Application.ID
}

// VerifyURL is the QR payload printed on the card.
func (c *ExamCard) VerifyURL() string {
	return strings.TrimRight(c.VerifyURLBase, "/") + "/" + c.Application.ID
}

func (c *ExamCard) Render(ctx context.Context, g Geometry, fnt *opentype.Font) (*image.RGBA, error) {
	app := c.Application
	if app.ExamNumber == "" {
		return nil, fmt.Errorf("exam card: application %s has no exam number", app.ID)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	width := g.ContentWidthMM()
	cv := newCanvas(width, 100, g.Scale, fnt)
	defer cv.close()

	const pad = 5.0
	cv.stroke(0, 0, width, 100, 0.6, colorBrand)
	cv.fill(0, 0, width, 14, colorTint)
	cv.textCentered(width/2, 6.5, 10, colorBrand, cardTitle)
	cv.textCentered(width/2, 11.5, 8, colorInk, c.Organisation)

	// exam number, one box per Thai digit
	y := 20.0
	cv.text(pad, y+4, 9, colorInk, "เลขประจำตัวสอบ")
	boxX := pad + 26
	for _, r := range ThaiDigits(app.ExamNumber) {
		cv.stroke(boxX, y, 6, 6, 0.25, colorInk)
		cv.textCentered(boxX+3, y+4.5, 10, colorInk, string(r))
		boxX += 7
	}

	title, department := app.PositionID, ""
	if c.Position != nil {
		title, department = c.Position.Title, c.Position.Department
	}
	mission := strings.Contains(title, cardMissionMark)

	y = 32
	checkbox(cv, pad, y, mission)
	cv.text(pad+5, y+2.8, 8, colorInk, "พนักงานจ้างตามภารกิจ")
	checkbox(cv, pad+42, y, !mission)
	cv.text(pad+47, y+2.8, 8, colorInk, "พนักงานจ้างทั่วไป")

	rows := [][2]string{
		{"ตำแหน่ง", title},
		{"สังกัด", orDash(department)},
		{"ชื่อ-สกุล", app.FullName},
		{"เลขประจำตัวประชาชน", citizenid.Format(app.CitizenID)},
	}
	y = 43
	for _, r := range rows {
		cv.text(pad, y, 8, colorMuted, r[0])
		cv.text(pad+28, y, 9, colorInk, r[1])
		cv.dottedRule(pad+28, y+1, 65, colorRule)
		y += 7
	}

	photoX, photoY, photoW, photoH := width-pad-25, 20.0, 25.0, 30.0
	cv.stroke(photoX, photoY, photoW, photoH, 0.3, colorInk)
	if c.Photo != nil {
		cv.cover(photoX, photoY, photoW, photoH, c.Photo)
	} else {
		cv.textCentered(photoX+photoW/2, photoY+14, 7, colorMuted, "ติดรูปถ่าย")
		cv.textCentered(photoX+photoW/2, photoY+19, 7, colorMuted, "ขนาด ๑ นิ้ว")
	}

	qr, err := qrcode.New(c.VerifyURL(), qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("exam card qr: %w", err)
	}
	qr.ForegroundColor = colorBrand
	qr.BackgroundColor = color.White
	qrSide := 22.0
	cv.picture(photoX+(photoW-qrSide)/2, photoY+photoH+3, qrSide, qrSide, qr.Image(cv.px(qrSide)))
	cv.textCentered(photoX+photoW/2, photoY+photoH+qrSide+6, 7, colorMuted, "สแกนตรวจสอบ")

	y = 80
	cv.dottedRule(pad+5, y, 40, colorRule)
	cv.textCentered(pad+25, y+5, 8, colorInk, "เจ้าหน้าที่ออกบัตร")
	cv.dottedRule(pad+55, y, 40, colorRule)
	cv.textCentered(pad+75, y+5, 8, colorInk, "ลายมือชื่อผู้สมัครสอบ")

	cv.textCentered(width/2, 96, 6, colorShadow, cardWatermark+" "+ThaiDigits(app.ExamNumber))
	return cv.img, nil
}

func checkbox(cv *canvas, x, y float64, checked bool) {
	cv.stroke(x, y, 3.5, 3.5, 0.25, colorInk)
	if checked {
		cv.fill(x+0.8, y+0.8, 1.9, 1.9, colorBrand)
	}
}
