package soap

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/standardbeagle/usersoap/internal/types"
)

// EnvelopeNamespace is the SOAP 1.1 envelope namespace
const EnvelopeNamespace = "http://schemas.xmlsoap.org/soap/envelope/"

// ContentType is the media type of every envelope the service writes
const ContentType = "text/xml; charset=utf-8"

// Envelope text surrounding every fragment
const (
	Header = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="` + EnvelopeNamespace + `">
  <soap:Body>
`
	Footer = `
  </soap:Body>
</soap:Envelope>`
)

// Fault codes
const (
	FaultServer = "soap:Server"
	FaultClient = "soap:Client"
)

// Wrap places a fragment inside the envelope
func Wrap(fragment string) string {
	return Header + fragment + Footer
}

// Fault renders a complete envelope carrying a SOAP fault
func Fault(code, message string) string {
	var b strings.Builder
	b.WriteString("<soap:Fault>\n  <faultcode>")
	_ = xml.EscapeText(&b, []byte(code))
	b.WriteString("</faultcode>\n  <faultstring>")
	_ = xml.EscapeText(&b, []byte(message))
	b.WriteString("</faultstring>\n</soap:Fault>")
	return Wrap(b.String())
}

// RenderRequest builds the request envelope for req, the inverse of Parse.
// An UnknownRequest with an empty name renders an empty body.
func RenderRequest(req Request) (string, error) {
	name := req.Operation().String()
	if name == "" {
		return Wrap(""), nil
	}

	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.EncodeElement(req, xml.StartElement{Name: xml.Name{Local: name + requestSuffix}}); err != nil {
		return "", fmt.Errorf("failed to render %s request: %w", name, err)
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return Wrap(buf.String()), nil
}

// ErrFault is returned by ExtractUsers when the envelope carries a fault
var ErrFault = errors.New("soap fault")

// ExtractUsers decodes every <User> element in a response envelope.
// A fault envelope yields an error wrapping ErrFault with the fault string.
func ExtractUsers(r io.Reader) ([]types.User, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	d := xml.NewDecoder(strings.NewReader(stripDeclaration(string(body))))
	users := []types.User{}
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			return users, nil
		}
		if err != nil {
			return nil, fmt.Errorf("invalid response envelope: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "User":
			var u types.User
			if err := d.DecodeElement(&u, &start); err != nil {
				return nil, fmt.Errorf("invalid User element: %w", err)
			}
			users = append(users, u)
		case "Fault":
			var fault struct {
				Code   string `xml:"faultcode"`
				String string `xml:"faultstring"`
			}
			if err := d.DecodeElement(&fault, &start); err != nil {
				return nil, fmt.Errorf("invalid Fault element: %w", err)
			}
			return nil, fmt.Errorf("%w: %s: %s", ErrFault, fault.Code, fault.String)
		}
	}
}
