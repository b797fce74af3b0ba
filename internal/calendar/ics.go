// Package calendar renders RFC-5545-flavored calendar objects (ICS payloads)
// for event invitations, updates and cancellations.
//
// Payloads are assembled through a small structured builder (ordered property
// list serialized per component) so field ordering and text escaping are
// enforced in one place instead of by string interpolation discipline.
package calendar

import (
	"strings"
	"time"
)

// crlf is the RFC 5545 content line terminator.
const crlf = "\r\n"

// FormatDateTime renders a time in the iCalendar UTC basic format,
// e.g. 20240509T120000Z.
func FormatDateTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// StripNewlines removes every \r and \n from text. Calendar text fields are
// single-line; descriptions are passed through this before rendering.
func StripNewlines(text string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(text)
}

// escapeText escapes the characters RFC 5545 reserves in TEXT values.
func escapeText(text string) string {
	return strings.NewReplacer(
		`\`, `\\`,
		";", `\;`,
		",", `\,`,
	).Replace(text)
}

// param is a single property parameter, e.g. CN=Ada Lovelace.
type param struct {
	key   string
	value string
}

// property is one content line: NAME;PARAM=V;...:VALUE.
type property struct {
	name   string
	params []param
	value  string
	// raw disables TEXT escaping for values that are not TEXT typed
	// (date-times, mailto URIs, integers).
	raw bool
}

// component is a BEGIN:NAME ... END:NAME block with ordered properties and
// nested sub-components.
type component struct {
	name     string
	props    []property
	children []component
}

func (c *component) add(name, value string) {
	c.props = append(c.props, property{name: name, value: value, raw: true})
}

func (c *component) addText(name, value string) {
	c.props = append(c.props, property{name: name, value: value})
}

func (c *component) addWithParams(name string, params []param, value string) {
	c.props = append(c.props, property{name: name, params: params, value: value, raw: true})
}

func (c *component) addChild(child component) {
	c.children = append(c.children, child)
}

// serialize writes the component and its children as iCalendar content lines.
func (c *component) serialize(b *strings.Builder) {
	b.WriteString("BEGIN:" + c.name + crlf)
	for _, p := range c.props {
		b.WriteString(p.name)
		for _, pa := range p.params {
			b.WriteString(";" + pa.key + "=" + pa.value)
		}
		b.WriteString(":")
		if p.raw {
			b.WriteString(p.value)
		} else {
			b.WriteString(escapeText(p.value))
		}
		b.WriteString(crlf)
	}
	for i := range c.children {
		c.children[i].serialize(b)
	}
	b.WriteString("END:" + c.name + crlf)
}

func (c *component) String() string {
	var b strings.Builder
	c.serialize(&b)
	return b.String()
}
