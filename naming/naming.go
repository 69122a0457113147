package naming

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig"
)

const DefaultTemplate = "{{ .Name }}_fl{{ .Ext }}"

// Namer decides where converted files are written.
type Namer struct {
	Template *template.Template
}

// Data is passed to the template when naming an output.
type Data struct {
	Name string // base name of the input without extension
	Ext  string // extension of the input, including the dot
	Dir  string
	Base string
}

// New parses tmpl, with the sprig functions available. An empty tmpl means
// DefaultTemplate.
func New(tmpl string) (*Namer, error) {
	if tmpl == "" {
		tmpl = DefaultTemplate
	}
	t, err := template.New("output").Funcs(sprig.TxtFuncMap()).Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf(`could not parse output name template "%v": %v`, tmpl, err)
	}
	return &Namer{Template: t}, nil
}

// Name executes the template for input.
func (n *Namer) Name(input string) (string, error) {
	dir, base := filepath.Split(input)
	ext := filepath.Ext(base)
	data := Data{Name: strings.TrimSuffix(base, ext), Ext: ext, Dir: dir, Base: base}
	var b bytes.Buffer
	if err := n.Template.Execute(&b, data); err != nil {
		return "", fmt.Errorf("could not name output for %v: %v", input, err)
	}
	name := strings.TrimSpace(b.String())
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("output name template gave an invalid file name %q for %v", name, input)
	}
	return name, nil
}

// Output returns the path where the conversion of input is written. If out is
// an existing directory, or ends with a path separator, the templated name is
// placed in it. Any other non-empty out is used as is. With an empty out, the
// templated name is placed next to the input.
func (n *Namer) Output(input, out string) (string, error) {
	if out != "" {
		isDir := strings.HasSuffix(out, "/") || strings.HasSuffix(out, string(filepath.Separator))
		if info, err := os.Stat(out); err == nil && info.IsDir() {
			isDir = true
		}
		if !isDir {
			return out, nil
		}
	}
	name, err := n.Name(input)
	if err != nil {
		return "", err
	}
	dir := out
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, name), nil
}
