package main

import (
	"fmt"
	"strings"
	"text/template"
)

var funcMap = template.FuncMap{
	"quote": func(s string) string { return fmt.Sprintf("%q", s) },
	"hex":   func(v uint32) string { return fmt.Sprintf("0x%08X", v) },
}

var templates = template.Must(template.New("").Funcs(funcMap).Parse(fileTmpl))

func renderTemplate(b *strings.Builder, name string, data any) {
	if err := templates.ExecuteTemplate(b, name, data); err != nil {
		panic(fmt.Sprintf("template %s: %v", name, err))
	}
}

// fileData holds the data of one generated file.
type fileData struct {
	Package   string
	Source    string
	TopType   string
	Registers []registerData
	Addressed bool
}

type registerData struct {
	Ident   string
	Path    string
	Key     string
	Comment string
	Address uint32
	HasAddr bool
}

const fileTmpl = `
{{- define "file" -}}
// Code generated by csrlink-gen from {{.Source}}. DO NOT EDIT.

package {{.Package}}

// Register paths of {{.TopType}}, relative to the top component.
const (
{{- range .Registers}}
	// {{.Ident}}Path is {{.Comment}}.
	{{.Ident}}Path = {{quote .Path}}
{{- end}}
)

// Address table keys of {{.TopType}}.
const (
{{- range .Registers}}
	{{.Ident}}Key = {{quote .Key}}
{{- end}}
)
{{- if .Addressed}}

// Bus addresses of {{.TopType}}.
const (
{{- range .Registers}}
{{- if .HasAddr}}
	{{.Ident}}Addr uint32 = {{hex .Address}}
{{- end}}
{{- end}}
)
{{- end}}

// Keys maps register paths to address table keys.
var Keys = map[string]string{
{{- range .Registers}}
	{{.Ident}}Path: {{.Ident}}Key,
{{- end}}
}
{{end}}`
