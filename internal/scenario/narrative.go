package scenario

import (
	"fmt"
	"strings"
)

// Placeholder names a value slot inside narrative or hint text.
type Placeholder string

const (
	PlaceholderPin     Placeholder = "pin"
	PlaceholderSensor  Placeholder = "sensor"
	PlaceholderLow     Placeholder = "low"
	PlaceholderHigh    Placeholder = "high"
	PlaceholderVoltage Placeholder = "voltage"
	PlaceholderCurrent Placeholder = "current"
)

func knownPlaceholder(name string) (Placeholder, bool) {
	switch p := Placeholder(name); p {
	case PlaceholderPin, PlaceholderSensor, PlaceholderLow, PlaceholderHigh, PlaceholderVoltage, PlaceholderCurrent:
		return p, true
	}
	return "", false
}

// Substitutions maps each placeholder to its resolved text.
type Substitutions map[Placeholder]string

// Segment is either literal text or a placeholder slot.
type Segment struct {
	Literal     string
	Placeholder Placeholder
}

// Narrative is text pre-split into literal and placeholder segments.
type Narrative []Segment

// ParseNarrative splits text written with {name} tokens into segments.
// A '{' without a closing '}' is kept as literal text; an unknown name
// is an error.
func ParseNarrative(text string) (Narrative, error) {
	var n Narrative
	var lit strings.Builder
	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			lit.WriteByte(text[i])
			continue
		}
		end := strings.IndexByte(text[i+1:], '}')
		if end < 0 {
			lit.WriteString(text[i:])
			break
		}
		name := text[i+1 : i+1+end]
		p, ok := knownPlaceholder(name)
		if !ok {
			return nil, fmt.Errorf("unknown placeholder {%s}", name)
		}
		if lit.Len() > 0 {
			n = append(n, Segment{Literal: lit.String()})
			lit.Reset()
		}
		n = append(n, Segment{Placeholder: p})
		i += end + 1
	}
	if lit.Len() > 0 {
		n = append(n, Segment{Literal: lit.String()})
	}
	return n, nil
}

// Placeholders returns the distinct placeholders used, in order of appearance.
func (n Narrative) Placeholders() []Placeholder {
	var out []Placeholder
	seen := make(map[Placeholder]bool)
	for _, s := range n {
		if s.Placeholder != "" && !seen[s.Placeholder] {
			seen[s.Placeholder] = true
			out = append(out, s.Placeholder)
		}
	}
	return out
}

// Render substitutes every placeholder. Slots without a substitution are
// rendered back in their {name} form.
func (n Narrative) Render(subs Substitutions) string {
	var b strings.Builder
	for _, s := range n {
		if s.Placeholder == "" {
			b.WriteString(s.Literal)
			continue
		}
		if v, ok := subs[s.Placeholder]; ok {
			b.WriteString(v)
		} else {
			b.WriteString("{" + string(s.Placeholder) + "}")
		}
	}
	return b.String()
}

// String returns the unrendered source form.
func (n Narrative) String() string {
	return n.Render(nil)
}
