// internal/wizard/validate.go
package wizard

import (
	"strconv"
	"strings"

	"recruitment-portal/internal/citizenid"
	"recruitment-portal/internal/ingest"
	"recruitment-portal/internal/models"
)

// ErrorMap is keyed by field name; an empty map lets the step be left.
type ErrorMap map[string]string

const (
	msgPosition       = "กรุณาเลือกตำแหน่งที่ต้องการสมัคร"
	msgCitizenID      = "กรุณากรอกเลขบัตรประชาชน 13 หลักที่ถูกต้อง"
	msgFullName       = "กรุณากรอกชื่อ-นามสกุล"
	msgBirthDate      = "กรุณาเลือกวันเกิด"
	msgPhone          = "กรุณากรอกเบอร์โทรศัพท์"
	msgAddress        = "กรุณากรอกที่อยู่"
	msgEducationLevel = "กรุณาเลือกระดับการศึกษา"
	msgInstitution    = "กรุณากรอกชื่อสถาบันการศึกษา"
	msgGPA            = "เกรดเฉลี่ยต้องอยู่ระหว่าง 0.00 - 4.00"
	msgDisabilityType = "กรุณาเลือกประเภทความพิการให้ถูกต้อง"
)

var slotMessages = map[ingest.SlotKey]string{
	ingest.SlotPhoto:      "กรุณาอัปโหลดรูปถ่าย",
	ingest.SlotIDCard:     "กรุณาอัปโหลดสำเนาบัตรประชาชน",
	ingest.SlotTranscript: "กรุณาอัปโหลดใบระเบียนผลการเรียน",
}

var EducationLevels = []string{"ต่ำกว่าปริญญาตรี", "ปริญญาตรี", "ปริญญาโท", "ปริญญาเอก"}

var DisabilityTypes = []string{"visual", "hearing", "mobility", "mental", "intellectual", "learning", "autism"}

// ValidateStep derives the error map for one step. It reads only its
// arguments, so repeated calls with equal inputs return equal maps.
func ValidateStep(step Step, d Draft, slots map[ingest.SlotKey]*ingest.Record, positions []models.Position) ErrorMap {
	errs := ErrorMap{}
	switch step {
	case StepPosition:
		if !activePosition(strings.TrimSpace(d.PositionID), positions) {
			errs[FieldPositionID] = msgPosition
		}
	case StepIdentity:
		if !citizenid.Valid(strings.TrimSpace(d.CitizenID)) {
			errs[FieldCitizenID] = msgCitizenID
		}
		required(errs, FieldFullName, d.FullName, msgFullName)
		required(errs, FieldBirthDate, d.BirthDate, msgBirthDate)
		required(errs, FieldPhone, d.Phone, msgPhone)
		required(errs, FieldAddress, d.Address, msgAddress)
	case StepEducation:
		if !contains(EducationLevels, d.EducationLevel) {
			errs[FieldEducationLevel] = msgEducationLevel
		}
		required(errs, FieldInstitution, d.Institution, msgInstitution)
		if d.DisabilityType != "" && !contains(DisabilityTypes, d.DisabilityType) {
			errs[FieldDisabilityType] = msgDisabilityType
		}
		if gpa := strings.TrimSpace(d.GPA); gpa != "" {
			v, err := strconv.ParseFloat(gpa, 64)
			if err != nil || v < 0 || v > 4 {
				errs[FieldGPA] = msgGPA
			}
		}
	case StepDocuments:
		for _, slot := range ingest.Slots() {
			if !slot.Required {
				continue
			}
			if rec := slots[slot.Key]; rec == nil {
				errs[string(slot.Key)] = slotMessages[slot.Key]
			}
		}
	}
	return errs
}

func required(errs ErrorMap, field, value, msg string) {
	if strings.TrimSpace(value) == "" {
		errs[field] = msg
	}
}

func activePosition(id string, positions []models.Position) bool {
	if id == "" {
		return false
	}
	for _, p := range positions {
		if p.ID == id && p.IsActive {
			return true
		}
	}
	return false
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
