package workflow

import (
	"fmt"
	"reflect"

	"github.com/cameronsjo/argonaut/pkg/argo"
)

// TemplateProducer yields one template, possibly nil, plus auxiliary templates
// to fold into the same manifest. Producing must not change the producer, so
// repeated calls give equal results.
type TemplateProducer interface {
	ProduceTemplate() (*argo.Template, []argo.Template, error)
}

// ProducerFunc adapts a function to TemplateProducer.
type ProducerFunc func() (*argo.Template, []argo.Template, error)

// ProduceTemplate calls f.
func (f ProducerFunc) ProduceTemplate() (*argo.Template, []argo.Template, error) {
	return f()
}

// Static produces a copy of t.
func Static(t argo.Template) TemplateProducer {
	return ProducerFunc(func() (*argo.Template, []argo.Template, error) {
		out := t
		return &out, nil, nil
	})
}

// Container produces a container template.
func Container(name string, c argo.Container) TemplateProducer {
	return ProducerFunc(func() (*argo.Template, []argo.Template, error) {
		container := c
		return &argo.Template{Name: name, Container: &container}, nil, nil
	})
}

// Script produces a script template.
func Script(name string, s argo.ScriptTemplate) TemplateProducer {
	return ProducerFunc(func() (*argo.Template, []argo.Template, error) {
		script := s
		return &argo.Template{Name: name, Script: &script}, nil, nil
	})
}

// Resource produces a resource template.
func Resource(name string, r argo.ResourceTemplate) TemplateProducer {
	return ProducerFunc(func() (*argo.Template, []argo.Template, error) {
		resource := r
		return &argo.Template{Name: name, Resource: &resource}, nil, nil
	})
}

// Step is one entry of a steps template. It calls either a template by name or
// an inline producer whose templates are added to the manifest alongside the
// steps template.
type Step struct {
	Name      string
	Template  string
	Inline    TemplateProducer
	Arguments *argo.Arguments
	When      string
	WithItems []any
	WithParam string
}

// StepGroup is a set of steps that run in parallel.
type StepGroup []Step

// Steps produces a steps template. Groups run in sequence.
func Steps(name string, groups ...StepGroup) TemplateProducer {
	return ProducerFunc(func() (*argo.Template, []argo.Template, error) {
		var aux auxiliary
		tmpl := &argo.Template{Name: name}
		for _, group := range groups {
			var steps []argo.WorkflowStep
			for _, s := range group {
				ref, err := aux.resolve(s.Name, s.Template, s.Inline)
				if err != nil {
					return nil, nil, err
				}
				steps = append(steps, argo.WorkflowStep{
					Name:      s.Name,
					Template:  ref,
					Arguments: s.Arguments,
					When:      s.When,
					WithItems: s.WithItems,
					WithParam: s.WithParam,
				})
			}
			tmpl.Steps = append(tmpl.Steps, steps)
		}
		return tmpl, aux.templates, nil
	})
}

// Task is one node of a DAG template, calling a template by name or an inline
// producer.
type Task struct {
	Name         string
	Template     string
	Inline       TemplateProducer
	Arguments    *argo.Arguments
	Dependencies []string
	Depends      string
	When         string
	WithItems    []any
	WithParam    string
}

// DAG produces a DAG template.
func DAG(name string, tasks ...Task) TemplateProducer {
	return ProducerFunc(func() (*argo.Template, []argo.Template, error) {
		var aux auxiliary
		dag := &argo.DAGTemplate{}
		for _, t := range tasks {
			ref, err := aux.resolve(t.Name, t.Template, t.Inline)
			if err != nil {
				return nil, nil, err
			}
			dag.Tasks = append(dag.Tasks, argo.DAGTask{
				Name:         t.Name,
				Template:     ref,
				Arguments:    t.Arguments,
				Dependencies: t.Dependencies,
				Depends:      t.Depends,
				When:         t.When,
				WithItems:    t.WithItems,
				WithParam:    t.WithParam,
			})
		}
		return &argo.Template{Name: name, DAG: dag}, aux.templates, nil
	})
}

// auxiliary gathers the inline templates of a steps or DAG template, depth
// first, keeping the first template of each name.
type auxiliary struct {
	templates []argo.Template
	seen      map[string]int
}

// resolve returns the template name a step or task calls, producing the inline
// template when there is one.
func (a *auxiliary) resolve(stepName, template string, inline TemplateProducer) (string, error) {
	if inline == nil {
		if template == "" {
			return "", &SchemaError{Path: stepName, Msg: "step calls no template"}
		}
		return template, nil
	}

	own, extra, err := inline.ProduceTemplate()
	if err != nil {
		return "", fmt.Errorf("inline template for %q: %w", stepName, err)
	}
	if own == nil {
		return "", &SchemaError{Path: stepName, Msg: "inline producer yielded no template"}
	}
	if template != "" && template != own.Name {
		return "", &SchemaError{Path: stepName, Msg: fmt.Sprintf("template %q does not match inline template %q", template, own.Name)}
	}

	for _, t := range append([]argo.Template{*own}, extra...) {
		if err := a.add(t); err != nil {
			return "", err
		}
	}
	return own.Name, nil
}

func (a *auxiliary) add(t argo.Template) error {
	if a.seen == nil {
		a.seen = make(map[string]int)
	}
	if i, ok := a.seen[t.Name]; ok {
		if !reflect.DeepEqual(a.templates[i], t) {
			return &SchemaError{Path: t.Name, Msg: "conflicting templates share a name"}
		}
		return nil
	}
	a.seen[t.Name] = len(a.templates)
	a.templates = append(a.templates, t)
	return nil
}
