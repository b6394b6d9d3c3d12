// internal/workers/communication/notify-status-change/messages.go
package notifystatuschange

import (
	"bytes"
	"fmt"
	"text/template"

	"recruitment-portal/internal/models"
)

type message struct {
	Subject string
	Body    string
	SMS     string
}

type messageData struct {
	Name       string
	Position   string
	ExamNumber string
	Reason     string
	PortalURL  string
}

var bodies = map[models.ApplicationStatus]*template.Template{
	models.StatusApproved: template.Must(template.New("approved").Parse(
		`เรียน คุณ{{.Name}}

ใบสมัครตำแหน่ง {{.Position}} ของท่านผ่านการตรวจสอบคุณสมบัติแล้ว
เลขประจำตัวสอบของท่านคือ {{.ExamNumber}}
{{if .PortalURL}}
พิมพ์บัตรประจำตัวผู้สอบได้ที่ {{.PortalURL}}
{{end}}
กรุณานำบัตรประจำตัวผู้สอบและบัตรประจำตัวประชาชนมาในวันสอบ
`)),
	models.StatusRejected: template.Must(template.New("rejected").Parse(
		`เรียน คุณ{{.Name}}

ใบสมัครตำแหน่ง {{.Position}} ของท่านไม่ผ่านการตรวจสอบคุณสมบัติ
{{if .Reason}}เหตุผล: {{.Reason}}
{{end}}`)),
	models.StatusEditRequested: template.Must(template.New("edit_requested").Parse(
		`เรียน คุณ{{.Name}}

เจ้าหน้าที่ขอให้ท่านแก้ไขข้อมูลใบสมัครตำแหน่ง {{.Position}}
{{if .Reason}}รายละเอียด: {{.Reason}}
{{end}}{{if .PortalURL}}แก้ไขได้ที่ {{.PortalURL}}
{{end}}`)),
}

var subjects = map[models.ApplicationStatus]string{
	models.StatusApproved:      "ผลการตรวจสอบคุณสมบัติ: ผ่าน",
	models.StatusRejected:      "ผลการตรวจสอบคุณสมบัติ: ไม่ผ่าน",
	models.StatusEditRequested: "กรุณาแก้ไขข้อมูลใบสมัคร",
}

var smsTexts = map[models.ApplicationStatus]string{
	models.StatusApproved:      "ใบสมัครของท่านผ่านการตรวจสอบ เลขประจำตัวสอบ %s",
	models.StatusRejected:      "ใบสมัครของท่านไม่ผ่านการตรวจสอบคุณสมบัติ%s",
	models.StatusEditRequested: "กรุณาแก้ไขข้อมูลใบสมัคร%s",
}

func buildMessage(n models.StatusNotification, reason, portalURL string) (*message, error) {
	tmpl, ok := bodies[n.Status]
	if !ok {
		return nil, fmt.Errorf("no message for status %q", n.Status)
	}
	var body bytes.Buffer
	if err := tmpl.Execute(&body, messageData{
		Name:       n.FullName,
		Position:   n.PositionTitle,
		ExamNumber: n.ExamNumber,
		Reason:     reason,
		PortalURL:  portalURL,
	}); err != nil {
		return nil, err
	}

	smsArg := n.ExamNumber
	if n.Status != models.StatusApproved {
		smsArg = ""
		if portalURL != "" {
			smsArg = " " + portalURL
		}
	}
	return &message{
		Subject: subjects[n.Status],
		Body:    body.String(),
		SMS:     fmt.Sprintf(smsTexts[n.Status], smsArg),
	}, nil
}
