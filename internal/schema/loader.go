package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// Load error codes (E001-E099 are I/O, E1xx are class definitions).
const (
	ErrCodeGeneric     = "E001"
	ErrCodeScanError   = "E002"
	ErrCodeNoFiles     = "E003"
	ErrCodeLoadFailed  = "E004"
	ErrCodeNotFound    = "E005"
	ErrCodeBuildFailed = "E006"

	ErrCodeClassType      = "E101" // missing or empty type
	ErrCodeMemberShape    = "E102" // member is neither a string nor a struct
	ErrCodeRelation       = "E103" // unknown relation name
	ErrCodeMemberConflict = "E104" // embedded and relation both set
	ErrCodeNoClasses      = "E105"
)

// LoadError is a schema loading failure with optional source position.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadDir loads every class defined under dir.
func LoadDir(dir string) (*Registry, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}
	return FromValue(value)
}

// CompileString builds a registry from CUE source text.
func CompileString(src string) (*Registry, error) {
	value := cuecontext.New().CompileString(src)
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return FromValue(value)
}

// FromValue builds a registry from the top-level "class" struct of v.
func FromValue(v cue.Value) (*Registry, error) {
	classesVal := v.LookupPath(cue.ParsePath("class"))
	if !classesVal.Exists() {
		return nil, &LoadError{Code: ErrCodeNoClasses, Message: "no classes found in schema", Pos: v.Pos()}
	}

	iter, err := classesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	reg := NewRegistry()
	for iter.Next() {
		c, err := CompileClass(iter.Value())
		if err != nil {
			return nil, err
		}
		reg.Add(c)
	}
	if len(reg.Classes()) == 0 {
		return nil, &LoadError{Code: ErrCodeNoClasses, Message: "no classes found in schema", Pos: v.Pos()}
	}
	return reg, nil
}

// CompileClass parses one class struct. The class name is the last
// selector of the value's path:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`class: Person: { type: "dm_person", members: { age: {} } }`)
//	c, err := CompileClass(v.LookupPath(cue.ParsePath("class.Person")))
func CompileClass(v cue.Value) (*Class, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	var name string
	if sels := v.Path().Selectors(); len(sels) > 0 {
		name = sels[len(sels)-1].String()
	}

	typeName, err := optionalString(v, "type")
	if err != nil {
		return nil, err
	}
	if typeName == "" {
		return nil, &LoadError{Code: ErrCodeClassType, Message: fmt.Sprintf("class %s: type is required", name), Pos: v.Pos()}
	}

	c := NewClass(name, typeName)
	if c.Extends, err = optionalString(v, "extends"); err != nil {
		return nil, err
	}

	membersVal := v.LookupPath(cue.ParsePath("members"))
	if !membersVal.Exists() {
		return c, nil
	}
	iter, err := membersVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		m, err := compileMember(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		c.AddMember(m)
	}
	return c, nil
}

// compileMember accepts either a bare column string or a struct.
func compileMember(name string, v cue.Value) (*Member, error) {
	m := &Member{Name: name, Persistent: true}

	if col, err := v.String(); err == nil {
		m.Column = col
		return m, nil
	}
	if v.IncompleteKind() != cue.StructKind {
		return nil, &LoadError{
			Code:    ErrCodeMemberShape,
			Message: fmt.Sprintf("member %s must be a column string or a struct", name),
			Pos:     v.Pos(),
		}
	}

	var err error
	if m.Column, err = optionalString(v, "column"); err != nil {
		return nil, err
	}
	if m.Kind, err = optionalString(v, "kind"); err != nil {
		return nil, err
	}

	rel, err := optionalString(v, "relation")
	if err != nil {
		return nil, err
	}
	if rel != "" {
		if m.Relation, err = ParseRelationType(rel); err != nil {
			return nil, &LoadError{Code: ErrCodeRelation, Message: fmt.Sprintf("member %s: %v", name, err), Pos: v.Pos()}
		}
	}

	if m.Target, err = optionalString(v, "target"); err != nil {
		return nil, err
	}
	embedded, err := optionalString(v, "embedded")
	if err != nil {
		return nil, err
	}
	if embedded != "" {
		if rel == "" {
			m.Relation = OneToOneUni
		}
		if m.Relation != OneToOneUni && !m.Relation.IsMultiValued() {
			return nil, &LoadError{
				Code:    ErrCodeMemberConflict,
				Message: fmt.Sprintf("member %s: embedded members must be one_to_one_uni or collections", name),
				Pos:     v.Pos(),
			}
		}
		m.Embedded = true
		m.Target = embedded
	}

	if pv := v.LookupPath(cue.ParsePath("persistent")); pv.Exists() {
		p, err := pv.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		m.Persistent = p
	}

	if cv := v.LookupPath(cue.ParsePath("columns")); cv.Exists() {
		overrides := make(map[string]string)
		if err := cv.Decode(&overrides); err != nil {
			return nil, formatCUEError(err)
		}
		m.EmbeddedColumns = overrides
	}
	return m, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// FindCUEFiles returns all .cue files under dir, sorted.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// formatCUEError keeps the first position from a CUE error list.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		return &LoadError{Code: ErrCodeGeneric, Message: first.Error(), Pos: positions[0]}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: first.Error()}
}
