package mailer

import (
	"fmt"
	"html/template"
	"strings"
)

// AssignmentSubject is the subject line for draw-result notifications.
const AssignmentSubject = "【你的神秘聖誕任務來囉！】"

// assignmentTmpl is the personalized draw-result message sent to each
// giver after the draw.
var assignmentTmpl = template.Must(template.New("assignment").Parse(
	`<p>哈囉 {{.GiverName}},</p>` +
		`<p>你的神秘聖誕任務來囉！</p>` +
		`<p>今年的禮物金額限制為：<b>{{.GiftAmount}}</b></p>` +
		`{{if .EventDate}}<p>交換禮物時間：{{.EventDate}}{{if .EventLocation}}，地點：{{.EventLocation}}{{end}}</p>{{end}}` +
		`<p>你的任務是為一位神秘的朋友準備禮物，這位朋友的願望是：</p>` +
		`<blockquote style="border-left: 2px solid #ccc; padding-left: 10px;"><i>{{.Wish}}</i></blockquote>` +
		`<p>請用心準備，並在交換禮物當天帶到現場。🤫</p>`))

// AssignmentData is the template input for one giver's notification.
type AssignmentData struct {
	GiverName     string
	GiftAmount    string
	EventDate     string
	EventLocation string
	Wish          string
}

// AssignmentBody renders the notification body for one giver.
func AssignmentBody(data AssignmentData) (string, error) {
	var buf strings.Builder
	if err := assignmentTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render assignment mail: %w", err)
	}
	return buf.String(), nil
}

// CapacityReachedSubject is the subject line of the organizer notice sent
// when the last slot of an event fills.
const CapacityReachedSubject = "【活動名額已滿】"

// CapacityReachedBody renders the organizer notice.
func CapacityReachedBody(eventName string, count int) string {
	return fmt.Sprintf(
		`<p>活動「%s」的所有名額已滿（共 %d 人），可以開始抽籤囉！</p>`,
		template.HTMLEscapeString(eventName), count)
}
