package workflow

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema/workflow.schema.json
var schemaBytes []byte

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
	printer        = message.NewPrinter(language.English)
)

// ValidationResult is the outcome of validating a workflow document.
type ValidationResult struct {
	Valid  bool
	Issues []ValidationIssue
}

// ValidationIssue is a single problem found in a document.
type ValidationIssue struct {
	Path    string // e.g. "/spec/templates/0/name"
	Message string
	Keyword string // schema keyword or semantic check that failed
}

func (i ValidationIssue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// Err returns nil for a valid result, otherwise a *SchemaError listing every
// issue.
func (r *ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	msgs := make([]string, len(r.Issues))
	for i, issue := range r.Issues {
		msgs[i] = issue.String()
	}
	return &SchemaError{Msg: strings.Join(msgs, "; ")}
}

func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("unmarshal schema JSON: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource("workflow.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile("workflow.schema.json")
		if compileErr != nil {
			compileErr = fmt.Errorf("compile schema: %w", compileErr)
		}
	})
	return compiledSchema, compileErr
}

// Validate checks the pruned manifest against the Workflow resource schema and
// verifies that the entrypoint, exit handler and every step or task refer to
// templates the manifest defines.
func (m *Manifest) Validate() (*ValidationResult, error) {
	mapping, err := m.ToMapping(true)
	if err != nil {
		return nil, err
	}
	return validateValue(mapping)
}

// ValidateYAML validates a rendered workflow document.
func ValidateYAML(data []byte) (*ValidationResult, error) {
	v, err := DecodeYAML(data)
	if err != nil {
		return nil, err
	}
	return validateValue(v)
}

func validateValue(v any) (*ValidationResult, error) {
	schema, err := getSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	data, err := EncodeJSON(v, "")
	if err != nil {
		return nil, err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("prepare document for validation: %w", err)
	}

	var issues []ValidationIssue
	if err := schema.Validate(inst); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return nil, fmt.Errorf("unexpected validation error: %w", err)
		}
		issues = append(issues, extractIssues(ve)...)
	}
	if doc, ok := v.(*Map); ok {
		issues = append(issues, checkReferences(doc)...)
	}

	issues = deduplicateIssues(issues)
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Path < issues[j].Path })
	return &ValidationResult{Valid: len(issues) == 0, Issues: issues}, nil
}

// extractIssues returns the leaf errors of a validation error tree.
func extractIssues(ve *jsonschema.ValidationError) []ValidationIssue {
	var issues []ValidationIssue
	collectValidationIssues(ve, &issues)
	if len(issues) == 0 {
		return []ValidationIssue{{Message: ve.Error()}}
	}
	return issues
}

func collectValidationIssues(ve *jsonschema.ValidationError, issues *[]ValidationIssue) {
	if len(ve.Causes) > 0 {
		for _, cause := range ve.Causes {
			collectValidationIssues(cause, issues)
		}
		return
	}

	path := ""
	if len(ve.InstanceLocation) > 0 {
		path = "/" + strings.Join(ve.InstanceLocation, "/")
	}

	keyword := ""
	msg := ""
	if ve.ErrorKind != nil {
		if kwPath := ve.ErrorKind.KeywordPath(); len(kwPath) > 0 {
			keyword = kwPath[len(kwPath)-1]
		}
		msg = ve.ErrorKind.LocalizedString(printer)
	}

	// Container keywords only repeat what their causes say.
	switch keyword {
	case "allOf", "$ref", "":
		return
	}

	*issues = append(*issues, ValidationIssue{Path: path, Message: msg, Keyword: keyword})
}

func deduplicateIssues(issues []ValidationIssue) []ValidationIssue {
	seen := make(map[string]bool)
	var result []ValidationIssue
	for _, issue := range issues {
		key := issue.Path + "|" + issue.Keyword + "|" + issue.Message
		if !seen[key] {
			seen[key] = true
			result = append(result, issue)
		}
	}
	return result
}

// checkReferences reports template names that are used but never defined.
func checkReferences(doc *Map) []ValidationIssue {
	templates, _ := doc.Lookup("spec", "templates")
	list, _ := templates.([]any)

	defined := make(map[string]bool, len(list))
	for _, item := range list {
		if t, ok := item.(*Map); ok {
			if name, ok := t.Get("name"); ok {
				defined[fmt.Sprint(name)] = true
			}
		}
	}
	if len(defined) == 0 {
		return nil
	}

	var issues []ValidationIssue
	check := func(path string, value any, keyword string) {
		name, ok := value.(string)
		if ok && name != "" && !defined[name] {
			issues = append(issues, ValidationIssue{
				Path:    path,
				Message: fmt.Sprintf("template %q is not defined", name),
				Keyword: keyword,
			})
		}
	}

	if entry, ok := doc.Lookup("spec", "entrypoint"); ok {
		check("/spec/entrypoint", entry, "entrypoint")
	}
	if onExit, ok := doc.Lookup("spec", "onExit"); ok {
		check("/spec/onExit", onExit, "onExit")
	}

	for i, item := range list {
		t, ok := item.(*Map)
		if !ok {
			continue
		}
		base := "/spec/templates/" + strconv.Itoa(i)

		if groups, ok := t.Get("steps"); ok {
			for g, group := range asSlice(groups) {
				for s, step := range asSlice(group) {
					if sm, ok := step.(*Map); ok {
						ref, _ := sm.Get("template")
						check(fmt.Sprintf("%s/steps/%d/%d/template", base, g, s), ref, "template")
					}
				}
			}
		}
		if tasks, ok := t.Lookup("dag", "tasks"); ok {
			for n, task := range asSlice(tasks) {
				if tm, ok := task.(*Map); ok {
					ref, _ := tm.Get("template")
					check(fmt.Sprintf("%s/dag/tasks/%d/template", base, n), ref, "template")
				}
			}
		}
	}
	return issues
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}
