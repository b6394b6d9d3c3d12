// internal/synthesis/form.go
package synthesis

import (
	"context"
	"image"
	"time"

	"golang.org/x/image/font/opentype"

	"recruitment-portal/internal/citizenid"
	"recruitment-portal/internal/models"
)

const (
	formTitle       = "ใบสมัครเข้ารับการสรรหาและเลือกสรรเป็นพนักงานจ้าง"
	formWrittenAt   = "ระบบรับสมัครงานออนไลน์"
	formDeclaration = "ข้าพเจ้าขอรับรองว่าข้อความดังกล่าวข้างต้นเป็นความจริงทุกประการ หากปรากฏว่าข้อความดังกล่าวไม่เป็นความจริง " +
		"หรือข้าพเจ้าขาดคุณสมบัติในการสมัครเข้ารับการเลือกสรร ข้าพเจ้ายินยอมให้ตัดสิทธิ์การสอบ หรือออกจากงานโดยไม่มีเงื่อนไขใดๆ ทั้งสิ้น"
)

// ApplicationForm renders the full application record on A4 pages.
type ApplicationForm struct {
	Application  *models.Application
	Position     *models.Position
	Organisation string
	Photo        image.Image
	// Now stamps the form date. Defaults to time.Now.
	Now func() time.Time
}

func (f *ApplicationForm) Key() string {
	return "application-form:" + f.Application.ID
}

func (f *ApplicationForm) Render(ctx context.Context, g Geometry, fnt *opentype.Font) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	app := f.Application
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}

	width := g.ContentWidthMM()
	c := newCanvas(width, 2*297, g.Scale, fnt)
	defer c.close()

	const (
		pad    = 20.0
		body   = 14.0
		line   = 8.0
		labelW = 55.0
	)
	inner := width - 2*pad

	y := 28.0
	c.textCentered(width/2, y, 18, colorInk, formTitle)
	y += 9
	c.textCentered(width/2, y, body, colorInk, f.Organisation)

	photoX, photoY, photoW, photoH := width-pad-25, 45.0, 25.0, 30.0
	c.stroke(photoX, photoY, photoW, photoH, 0.3, colorInk)
	if f.Photo != nil {
		c.cover(photoX, photoY, photoW, photoH, f.Photo)
	} else {
		c.textCentered(photoX+photoW/2, photoY+14, 11, colorMuted, "รูปถ่าย")
		c.textCentered(photoX+photoW/2, photoY+20, 11, colorMuted, "ขนาด 1 นิ้ว")
	}

	y = 55
	c.text(pad+60, y, body, colorInk, "เขียนที่ "+formWrittenAt)
	y += line
	c.text(pad+60, y, body, colorInk, "วันที่ "+ThaiDate(now()))
	y = photoY + photoH + 10

	position, department := app.PositionID, ""
	if f.Position != nil {
		position, department = f.Position.Title, f.Position.Department
	}

	rows := []struct {
		label string
		value string
	}{
		{"1. ชื่อ-สกุล (ผู้สมัคร)", app.FullName},
		{"2. สมัครในตำแหน่ง", position},
		{"    สังกัด (กอง/สำนัก)", orDash(department)},
		{"3. วัน/เดือน/ปีเกิด", ThaiDateString(app.BirthDate)},
		{"    เลขประจำตัวประชาชน", citizenid.Format(app.CitizenID)},
		{"4. ภูมิลำเนา", app.Address},
		{"    โทรศัพท์", app.Phone},
		{"    อีเมล", orDash(app.Email)},
		{"5. ประวัติการศึกษา", ""},
		{"    - วุฒิการศึกษา", app.EducationLevel},
		{"    - สถาบันการศึกษา", app.Institution},
		{"    - สาขาวิชา", orDash(app.Major)},
		{"    - เกรดเฉลี่ย (GPA)", formatGPA(app.GPA)},
		{"    - วันที่สำเร็จการศึกษา", orDash(ThaiDateString(app.GraduationDate))},
		{"6. อาชีพในปัจจุบัน", orDash(app.CurrentOccupation)},
		{"    สถานที่ทำงาน", orDash(app.WorkPlace)},
		{"7. ทักษะและความสามารถพิเศษ", orDash(app.Skills)},
		{"8. ความพิการ", orDash(app.DisabilityType)},
	}
	for _, r := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c.text(pad, y, body, colorInk, r.label)
		if r.value == "" {
			y += line
			continue
		}
		next := c.paragraph(pad+labelW, y, inner-labelW, body, line, colorInk, r.value)
		c.dottedRule(pad+labelW, y+1.5, inner-labelW, colorRule)
		y = next + 2
	}

	y += 6
	y = c.paragraph(pad+10, y, inner-10, body, line, colorInk, formDeclaration)

	y += 12
	sigX := pad + inner/2
	c.text(sigX, y, body, colorInk, "(ลงชื่อ)")
	if sig, err := DecodeDataURL(app.SignatureImage); err == nil {
		c.picture(sigX+18, y-12, 50, 16, sig)
	}
	c.dottedRule(sigX+18, y+1.5, 50, colorRule)
	y += line
	c.textCentered(sigX+43, y, body, colorInk, "("+app.FullName+")")
	y += line
	c.textCentered(sigX+43, y, body, colorInk, "ผู้สมัครสอบ")
	y += 14
	c.fill(pad, y, inner, 0.2, colorRule)
	y += 5
	c.text(pad, y, 9, colorMuted, "เลขที่ใบสมัคร "+app.ID)
	y += pad

	return c.crop(y), nil
}
