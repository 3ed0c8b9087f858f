package client

import (
	"io"
	"text/template"
	"time"

	"github.com/klass-lk/postboard/internal/model"
)

const timeLayout = "Jan 2, 2006, 3:04:05 PM"

var postsTemplate = template.Must(template.New("posts").Funcs(template.FuncMap{
	"stamp": func(p model.Post) string { return p.CreatedAt().Format(timeLayout) },
}).Parse(
	`{{range .}}{{.Title}}
By {{.Author}} | {{stamp .}}
{{.Body}}

{{end}}`))

// Render writes each post's title, author, local creation time and body, in the given order.
func Render(w io.Writer, posts []model.Post, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	tmpl, err := postsTemplate.Clone()
	if err != nil {
		return err
	}
	tmpl.Funcs(template.FuncMap{
		"stamp": func(p model.Post) string { return p.CreatedAt().In(loc).Format(timeLayout) },
	})
	return tmpl.Execute(w, posts)
}
