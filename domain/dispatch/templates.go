package dispatch

import (
	"bytes"
	"html/template"
	"strings"
)

const (
	notProvided  = "Not provided"
	notSpecified = "Not specified"
	noMessage    = "No message"
)

var emailTemplates = template.Must(template.New("dispatch").Funcs(template.FuncMap{
	"lines": htmlLines,
}).Parse(`
{{define "contact_operator"}}<h2>New Contact Form Submission</h2>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Company:</strong> {{.Company}}</p>
<p><strong>Service:</strong> {{.Service}}</p>
<p><strong>Budget:</strong> {{.Budget}}</p>
<p><strong>Message:</strong><br>{{lines .Message}}</p>
{{end}}
{{define "meeting_operator"}}<h2>New Meeting Request</h2>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Date:</strong> {{.Date}}</p>
<p><strong>Time:</strong> {{.Time}} ({{.Timezone}})</p>
<p><strong>Message:</strong><br>{{lines .Message}}</p>
{{end}}
{{define "contact_ack"}}<p>Hi {{.Name}},<br>We received your message and will get back to you soon.</p>{{end}}
{{define "meeting_ack"}}<p>Hi {{.Name}},<br>Your meeting has been scheduled. We'll contact you soon.</p>{{end}}
`))

// htmlLines escapes s and turns line breaks into <br>.
func htmlLines(s string) template.HTML {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	parts := strings.Split(s, "\n")
	for i, p := range parts {
		parts[i] = template.HTMLEscapeString(p)
	}
	return template.HTML(strings.Join(parts, "<br>"))
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderContactOperator(req *ContactRequest) (string, error) {
	view := *req
	view.Company = orDefault(req.Company, notProvided)
	view.Budget = orDefault(req.Budget, notSpecified)
	return render("contact_operator", view)
}

func renderMeetingOperator(req *MeetingRequest) (string, error) {
	view := *req
	view.Message = orDefault(req.Message, noMessage)
	return render("meeting_operator", view)
}

func renderContactAck(req *ContactRequest) (string, error) {
	return render("contact_ack", req)
}

func renderMeetingAck(req *MeetingRequest) (string, error) {
	return render("meeting_ack", req)
}
