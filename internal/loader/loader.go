package loader

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/qdsl/internal/ir"
)

//go:embed schema.cue
var schemaCUE string

// File is a decoded circuit document.
type File struct {
	Width  int                  `yaml:"width"`
	Blocks map[string]BlockSpec `yaml:"blocks"`
	Ops    []OpSpec             `yaml:"ops"`

	// Path is the file the document was read from, empty for Parse.
	Path string `yaml:"-"`
}

// BlockSpec is a named block defined in a circuit file.
type BlockSpec struct {
	Params []string `yaml:"params"`
	Ops    []OpSpec `yaml:"ops"`
}

// OpSpec is one entry of an ops list. Exactly one of Gate, Use and
// Measure is set.
type OpSpec struct {
	Gate    string `yaml:"gate,omitempty"`
	Use     string `yaml:"use,omitempty"`
	Measure string `yaml:"measure,omitempty"`

	Wires    []any   `yaml:"wires,omitempty"`
	Pairs    [][]any `yaml:"pairs,omitempty"`
	Angle    any     `yaml:"angle,omitempty"`
	Base     string  `yaml:"base,omitempty"`
	Controls []any   `yaml:"controls,omitempty"`
	Target   any     `yaml:"target,omitempty"`

	Amplitudes []any  `yaml:"amplitudes,omitempty"`
	Bits       []int  `yaml:"bits,omitempty"`
	Electrons  int    `yaml:"electrons,omitempty"`
	Orbitals   int    `yaml:"orbitals,omitempty"`
	Encoding   string `yaml:"encoding,omitempty"`

	Observable string          `yaml:"observable,omitempty"`
	Operator   *ir.Hamiltonian `yaml:"operator,omitempty"`
	Args       map[string]any  `yaml:"args,omitempty"`
}

// Format identifies a circuit file format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// FormatOf picks the format from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".cue":
		return FormatCUE, nil
	}
	return "", ir.Errorf(ir.ErrCodeValidation, "load", "unsupported circuit file extension %q", filepath.Ext(path))
}

// Load reads and decodes a circuit file.
func Load(path string) (*File, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	f, err := Parse(data, format, filepath.Base(path))
	if err != nil {
		return nil, err
	}
	f.Path = path
	return f, nil
}

// Parse decodes a circuit document. name is used in CUE error positions.
func Parse(data []byte, format Format, name string) (*File, error) {
	switch format {
	case FormatCUE:
		jsonData, err := cueToJSON(data, name)
		if err != nil {
			return nil, err
		}
		return decode(jsonData, name)
	case FormatYAML:
		return decode(data, name)
	}
	return nil, ir.Errorf(ir.ErrCodeValidation, "load", "unknown format %q", format)
}

// decode reads YAML, or JSON produced from CUE, into a File.
func decode(data []byte, name string) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, ir.Errorf(ir.ErrCodeValidation, "load", "%s: %v", name, err)
	}
	if f.Width <= 0 {
		return nil, ir.Errorf(ir.ErrCodeValidation, "load", "%s: width must be a positive integer", name)
	}
	if len(f.Ops) == 0 {
		return nil, ir.Errorf(ir.ErrCodeValidation, "load", "%s: ops must not be empty", name)
	}
	return &f, nil
}

// cueToJSON unifies src with #Circuit and exports the concrete result.
func cueToJSON(src []byte, name string) ([]byte, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling circuit schema: %w", err)
	}

	value := ctx.CompileBytes(src, cue.Filename(name))
	if err := value.Err(); err != nil {
		return nil, cueError(name, err)
	}
	unified := schema.LookupPath(cue.ParsePath("#Circuit")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError(name, err)
	}
	data, err := unified.MarshalJSON()
	if err != nil {
		return nil, cueError(name, err)
	}
	return data, nil
}

// cueError flattens CUE's error list into one validation error, keeping
// the first position.
func cueError(name string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return ir.Errorf(ir.ErrCodeValidation, "load", "%s: %v", name, err)
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msg := e.Error()
		if pos := e.Position(); pos.IsValid() {
			msg = fmt.Sprintf("%d:%d: %s", pos.Line(), pos.Column(), msg)
		}
		msgs = append(msgs, msg)
	}
	sort.Strings(msgs)
	return ir.Errorf(ir.ErrCodeValidation, "load", "%s: %s", name, strings.Join(msgs, "; "))
}

// FindFiles returns the circuit files under dir in lexical order.
func FindFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if _, ferr := FormatOf(path); ferr == nil {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}
