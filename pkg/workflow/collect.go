package workflow

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/cameronsjo/argonaut/pkg/argo"
)

// Collect invokes every template-producing member of decl once, in declaration
// order, and returns the templates they yield. A producer's own template comes
// first, followed by its auxiliary templates. Members without a producer are
// skipped.
//
// Collection is all or nothing: a failing producer aborts it with a
// *ProducerError and no templates are returned. A template without a name, or
// two different templates sharing a name, is a *SchemaError. A template equal to
// one already collected under the same name is dropped.
func Collect(decl *Declaration) ([]argo.Template, error) {
	return collect(decl, discardLogger)
}

func collect(decl *Declaration, logger *slog.Logger) ([]argo.Template, error) {
	templates := []argo.Template{}
	seen := make(map[string]int)

	add := func(member string, t argo.Template) error {
		if t.Name == "" {
			return &SchemaError{
				Path: fmt.Sprintf("spec.templates[%d].name", len(templates)),
				Msg:  fmt.Sprintf("template from member %q has no name", member),
			}
		}
		if i, ok := seen[t.Name]; ok {
			if reflect.DeepEqual(templates[i], t) {
				logger.Debug("dropping repeated template", "member", member, "template", t.Name)
				return nil
			}
			return &SchemaError{
				Path: fmt.Sprintf("spec.templates[%d].name", len(templates)),
				Msg:  fmt.Sprintf("template %q from member %q conflicts with an earlier template", t.Name, member),
			}
		}
		seen[t.Name] = len(templates)
		templates = append(templates, t)
		return nil
	}

	for _, member := range decl.members {
		producer, ok := member.Producer()
		if !ok {
			logger.Debug("skipping member without template", "member", member.Name)
			continue
		}

		own, extra, err := produce(producer)
		if err != nil {
			return nil, &ProducerError{Member: member.Name, Err: err}
		}

		if own != nil {
			if err := add(member.Name, *own); err != nil {
				return nil, err
			}
		}
		for _, t := range extra {
			if err := add(member.Name, t); err != nil {
				return nil, err
			}
		}
		logger.Debug("collected member", "member", member.Name, "auxiliary", len(extra))
	}

	return templates, nil
}

// produce invokes p, reporting a panic as an error.
func produce(p TemplateProducer) (own *argo.Template, extra []argo.Template, err error) {
	defer func() {
		if r := recover(); r != nil {
			own, extra, err = nil, nil, fmt.Errorf("producer panicked: %v", r)
		}
	}()
	return p.ProduceTemplate()
}
