// Package structure turns grouped layout sections into the question/answer document
// consumed downstream, normalizing every key through a schema mapper.
package structure

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document is the structured form: an ordered list of named sections.
type Document struct {
	Sections []SectionOutput `json:"sections" yaml:"sections"`
}

// SectionOutput is one named section and its question/answer pairs.
type SectionOutput struct {
	Name   string `json:"name" yaml:"name"`
	Fields []QA   `json:"fields" yaml:"fields"`
}

// QA is a single question with either a text answer or a set of choices.
type QA struct {
	Question string `json:"question" yaml:"question"`
	Answer   Answer `json:"answer" yaml:"answer"`
}

// Choice is one option of a multiple-choice answer.
type Choice struct {
	Option string
	Value  string
}

// Answer is either a plain string or an ordered option-to-value mapping.
type Answer struct {
	text    string
	choices []Choice
	multi   bool
}

// TextAnswer returns a plain string answer.
func TextAnswer(s string) Answer { return Answer{text: s} }

// ChoiceAnswer returns a multiple-choice answer. Options keep their order; a repeated
// option keeps its first position and takes the latest value.
func ChoiceAnswer(choices []Choice) Answer {
	a := Answer{multi: true, choices: make([]Choice, 0, len(choices))}
	for _, c := range choices {
		a.setChoice(c.Option, c.Value)
	}
	return a
}

func (a *Answer) setChoice(option, value string) {
	for i := range a.choices {
		if a.choices[i].Option == option {
			a.choices[i].Value = value
			return
		}
	}
	a.choices = append(a.choices, Choice{Option: option, Value: value})
}

// IsChoice reports whether the answer is a multiple-choice mapping.
func (a Answer) IsChoice() bool { return a.multi }

// Text returns the plain answer; empty for multiple-choice answers.
func (a Answer) Text() string { return a.text }

// Choices returns a copy of the options in order.
func (a Answer) Choices() []Choice { return append([]Choice(nil), a.choices...) }

// Lookup returns the value recorded for option.
func (a Answer) Lookup(option string) (string, bool) {
	for _, c := range a.choices {
		if c.Option == option {
			return c.Value, true
		}
	}
	return "", false
}

// MarshalJSON emits a string or an object whose keys keep option order.
func (a Answer) MarshalJSON() ([]byte, error) {
	if !a.multi {
		return json.Marshal(a.text)
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range a.choices {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c.Option)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(c.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts a string or a flat object of strings, preserving key order.
func (a *Answer) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*a = TextAnswer(s)
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("answer must be a string or an object, got %s", trimmed)
	}
	out := Answer{multi: true}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := kt.(string)
		if !ok {
			return errors.New("answer object key is not a string")
		}
		var val string
		if err := dec.Decode(&val); err != nil {
			return fmt.Errorf("answer option %q: %w", key, err)
		}
		out.setChoice(key, val)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*a = out
	return nil
}

// MarshalYAML emits a scalar or an ordered mapping node.
func (a Answer) MarshalYAML() (interface{}, error) {
	if !a.multi {
		return a.text, nil
	}
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, c := range a.choices {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: c.Option},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: c.Value},
		)
	}
	return node, nil
}

// FieldCount returns the number of emitted question/answer pairs.
func (d Document) FieldCount() int {
	n := 0
	for _, s := range d.Sections {
		n += len(s.Fields)
	}
	return n
}
