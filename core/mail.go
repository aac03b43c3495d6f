package core

import (
	"bytes"
	"encoding/base64"
	htmltmpl "html/template"
	"io"
	"io/fs"
	"io/ioutil"
	"net/http"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"

	appfs "github.com/Hoopakid/HRMobileProjectBackend/fs"
)

const templatesDir = "templates/email"

// AppName is injected in every template as {{.AppName}}.
var AppName = "HRMobile"

var (
	emailTemplates     map[string]*emailTemplate
	emailTemplatesErr  error
	emailTemplatesOnce sync.Once
)

type (
	// emailTemplate holds both renditions of a template; either may be missing.
	emailTemplate struct {
		text *texttmpl.Template
		html *htmltmpl.Template
	}

	Attachment struct {
		Content     *bytes.Buffer // base64
		ContentType string
		Filename    string
	}

	EmailMessage struct {
		To          []mail.Address
		Subject     string
		BodyStr     string // plain text, used instead of the text template
		Attachments []Attachment

		TemplateName string // file name without extension
		TemplateData interface{}

		// filled by Render
		TextContent string
		HTMLContent string
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages renders and sends messages in the background
		SendMessages(messages ...*EmailMessage)
	}
)

type templateContext struct {
	AppName string
	Data    interface{}
}

// Render fills TextContent and HTMLContent from BodyStr and the named template.
func (m *EmailMessage) Render() error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
	}
	if m.TemplateName == "" {
		return nil
	}
	if err := ParseEmailTemplates(); err != nil {
		return err
	}
	tmpl, ok := emailTemplates[m.TemplateName]
	if !ok {
		return errors.Errorf("unknown email template %q", m.TemplateName)
	}

	data := templateContext{AppName: AppName, Data: m.TemplateData}
	var buf bytes.Buffer
	if tmpl.text != nil && m.BodyStr == "" {
		if err := tmpl.text.Execute(&buf, data); err != nil {
			return errors.Wrap(err, "rendering text content")
		}
		m.TextContent = buf.String()
		buf.Reset()
	}
	if tmpl.html != nil {
		if err := tmpl.html.Execute(&buf, data); err != nil {
			return errors.Wrap(err, "rendering html content")
		}
		m.HTMLContent = buf.String()
	}
	return nil
}

// Attach reads r and stores it base64 encoded. The content type is sniffed unless given.
func (m *EmailMessage) Attach(r io.Reader, filename string, contentType ...string) error {
	content, err := ioutil.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "reading attachment")
	}

	at := Attachment{
		Filename: filename,
		Content:  bytes.NewBufferString(base64.StdEncoding.EncodeToString(content)),
	}
	if len(contentType) > 0 {
		at.ContentType = contentType[0]
	} else {
		at.ContentType = http.DetectContentType(content)
	}
	m.Attachments = append(m.Attachments, at)
	return nil
}

func (m *EmailMessage) HasRecipients() bool  { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool     { return m.TextContent != "" || m.HTMLContent != "" }
func (m *EmailMessage) HasAttachments() bool { return len(m.Attachments) > 0 }

// ParseEmailTemplates parses the embedded email templates once. Files starting with "_" are base layouts.
func ParseEmailTemplates() error {
	emailTemplatesOnce.Do(func() {
		emailTemplates, emailTemplatesErr = parseEmailTemplates(appfs.FS)
	})
	return emailTemplatesErr
}

func parseEmailTemplates(fsys fs.FS) (map[string]*emailTemplate, error) {
	fps, err := fs.Glob(fsys, path.Join(templatesDir, "*"))
	if err != nil {
		return nil, errors.Wrap(err, "listing email templates")
	}

	textBase := path.Join(templatesDir, "_base.txt")
	htmlBase := path.Join(templatesDir, "_base.gohtml")
	parsed := make(map[string]*emailTemplate)
	for _, fp := range fps {
		fname := path.Base(fp)
		if strings.HasPrefix(fname, "_") {
			continue
		}
		ext := path.Ext(fname)
		name := strings.TrimSuffix(fname, ext)
		tmpl := parsed[name]
		if tmpl == nil {
			tmpl = &emailTemplate{}
		}

		switch ext {
		case ".txt":
			t, err := texttmpl.ParseFS(fsys, textBase, fp)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing %s", fname)
			}
			tmpl.text = t.Option("missingkey=error")
		case ".gohtml":
			t, err := htmltmpl.ParseFS(fsys, htmlBase, fp)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing %s", fname)
			}
			tmpl.html = t.Option("missingkey=error")
		default:
			continue
		}
		parsed[name] = tmpl
	}
	return parsed, nil
}
