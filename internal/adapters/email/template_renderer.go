package email

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"savingscircle/internal/domain"
)

//go:embed templates/*
var templateFS embed.FS

// Each notice "x" is made of templates/x_subject.txt, templates/x.txt and templates/x.html.
var (
	textTemplates = texttemplate.Must(texttemplate.New("").Option("missingkey=error").ParseFS(templateFS, "templates/*.txt"))
	htmlTemplates = htmltemplate.Must(htmltemplate.New("").Option("missingkey=error").ParseFS(templateFS, "templates/*.html"))
)

type templateRenderer struct {
	text *texttemplate.Template
	html *htmltemplate.Template
}

// NewTemplateRenderer returns a renderer over the notices embedded in the binary.
func NewTemplateRenderer() domain.EmailTemplateRenderer {
	return &templateRenderer{text: textTemplates, html: htmlTemplates}
}

func (r *templateRenderer) Render(name string, data any) (subject, htmlBody, textBody string, err error) {
	if r.html.Lookup(name+".html") == nil {
		return "", "", "", fmt.Errorf("unknown email template %q", name)
	}
	var buf bytes.Buffer
	if err := r.text.ExecuteTemplate(&buf, name+"_subject.txt", data); err != nil {
		return "", "", "", fmt.Errorf("render %s subject: %w", name, err)
	}
	subject = strings.TrimSpace(buf.String())

	buf.Reset()
	if err := r.text.ExecuteTemplate(&buf, name+".txt", data); err != nil {
		return "", "", "", fmt.Errorf("render %s text: %w", name, err)
	}
	textBody = buf.String()

	buf.Reset()
	if err := r.html.ExecuteTemplate(&buf, name+".html", data); err != nil {
		return "", "", "", fmt.Errorf("render %s html: %w", name, err)
	}
	return subject, buf.String(), textBody, nil
}
