package doctree

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// ParseXML decodes a docutils XML document dump into a doctree. Element names
// become type discriminators, the "ids" attribute is split into the node's
// identifier list, and character data becomes Text leaves. The root element
// (normally "document") becomes the tree root.
func ParseXML(r io.Reader) (Node, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader

	var root *Element
	var stack []*Element

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode document xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Name: t.Name.Local}
			for _, a := range t.Attr {
				if a.Name.Local == "ids" {
					el.Ids = strings.Fields(a.Value)
					continue
				}
				if el.Attributes == nil {
					el.Attributes = make(map[string]string)
				}
				el.Attributes[a.Name.Local] = a.Value
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Kids = append(parent.Kids, el)
			} else if root == nil {
				root = el
			} else {
				return nil, fmt.Errorf("multiple roots in document xml")
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unbalanced end element %q", t.Name.Local)
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			// Pretty-print indentation always spans a line break. A plain
			// space between inline siblings is content and must survive.
			if strings.TrimSpace(string(t)) == "" {
				if strings.ContainsAny(string(t), "\n\r") || len(stack) == 0 {
					continue
				}
			}
			if len(stack) == 0 {
				return nil, fmt.Errorf("character data outside document root")
			}
			parent := stack[len(stack)-1]
			parent.Kids = append(parent.Kids, Text(t))
		}
	}

	if root == nil {
		return nil, fmt.Errorf("document xml contains no elements")
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("document xml ended with %d unclosed elements", len(stack))
	}
	return root, nil
}

// charsetReader decodes non-UTF-8 dumps using the WHATWG encoding index.
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported document charset %q: %w", charset, err)
	}
	return enc.NewDecoder().Reader(input), nil
}
