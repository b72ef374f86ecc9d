package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

type caseAssignedEmailData struct {
	baseEmailData
	AssigneeName string
	CaseNumber   string
}

type caseReviewedEmailData struct {
	baseEmailData
	CaseNumber string
	Approved   bool
	Notes      string
}

type caseCompletedEmailData struct {
	baseEmailData
	CaseNumber string
}

type stageBlockedEmailData struct {
	baseEmailData
	CaseNumber string
	StageName  string
	Reason     string
}

type customerReviewedEmailData struct {
	baseEmailData
	CustomerName string
	Verified     bool
	Reason       string
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}
