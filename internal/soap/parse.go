package soap

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/standardbeagle/usersoap/internal/debug"
	"github.com/standardbeagle/usersoap/internal/types"
)

const requestSuffix = "Request"

// Parse interprets a request payload.
//
// The operation is the first element whose local name is some non-empty
// word followed by "Request"; the namespace prefix is ignored. The fields
// id, name, email and age are taken from the first leaf element of that
// name anywhere in the payload, whatever its nesting. An id or age that is
// not a run of decimal digits is skipped, as is an empty element, so a later
// well-formed occurrence can still supply the field.
//
// Parse never fails. After a markup error the scan resumes with the text
// following it, so stray markup anywhere in the payload does not hide the
// operation or fields. A payload naming no operation yields an
// UnknownRequest with an empty name.
func Parse(text string) Request {
	rest := stripDeclaration(text)
	d := newDecoder(rest)

	type frame struct {
		name     string
		text     strings.Builder
		hasChild bool
	}

	var (
		opName string
		found  bool
		params Params
		stack  []*frame
	)

	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			consumed := int(d.InputOffset())
			if consumed <= 0 {
				consumed = 1
			}
			if consumed >= len(rest) {
				break
			}
			debug.LogDispatch("resuming after markup error at byte %d: %v", len(text)-len(rest)+consumed, err)
			rest = rest[consumed:]
			d = newDecoder(rest)
			continue
		}

		switch t := tok.(type) {
		case xml.StartElement:
			local := t.Name.Local
			if !found && len(local) > len(requestSuffix) && strings.HasSuffix(local, requestSuffix) {
				opName = strings.TrimSuffix(local, requestSuffix)
				found = true
			}
			if len(stack) > 0 {
				stack[len(stack)-1].hasChild = true
			}
			stack = append(stack, &frame{name: local})
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !f.hasChild {
				assignField(&params, f.name, f.text.String())
			}
		}
	}

	if !found {
		debug.LogDispatch("no operation element in %d byte payload", len(text))
		return UnknownRequest{}
	}
	return NewRequest(types.Operation(opName), params)
}

func newDecoder(text string) *xml.Decoder {
	d := xml.NewDecoder(strings.NewReader(text))
	d.Strict = false
	d.Entity = xml.HTMLEntity
	return d
}

func assignField(p *Params, name, value string) {
	if value == "" {
		return
	}
	switch name {
	case "id":
		if p.ID == nil {
			p.ID = parseDigits(value)
		}
	case "age":
		if p.Age == nil {
			p.Age = parseDigits(value)
		}
	case "name":
		if p.Name == nil {
			p.Name = String(value)
		}
	case "email":
		if p.Email == nil {
			p.Email = String(value)
		}
	}
}

// parseDigits accepts only an unsigned run of ASCII digits that fits an int
func parseDigits(s string) *int {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return nil
		}
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

// stripDeclaration drops a leading <?xml ...?> declaration, which the
// decoder rejects for any version other than 1.0 or an unknown charset
func stripDeclaration(text string) string {
	trimmed := strings.TrimLeft(text, " \t\r\n\ufeff")
	if !strings.HasPrefix(trimmed, "<?xml") {
		return text
	}
	end := strings.Index(trimmed, "?>")
	if end < 0 {
		return text
	}
	return trimmed[end+2:]
}
