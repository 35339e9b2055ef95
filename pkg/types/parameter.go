package types

import "github.com/cuemby/loadstore/pkg/codec"

const (
	paramElementName  = "name"
	paramElementValue = "value"
)

// Parameter is a single named job or algorithm argument.
type Parameter struct {
	Name  string
	Value string
}

// ParameterValue returns the value of the named parameter, or the default
// when it is absent.
func ParameterValue(params []Parameter, name, defaultValue string) string {
	for _, p := range params {
		if p.Name == name {
			return p.Value
		}
	}
	return defaultValue
}

func encodeParameters(params []Parameter) codec.Element {
	children := make([]codec.Element, len(params))
	for i, p := range params {
		children[i] = codec.Sequence(
			codec.String(paramElementName),
			codec.String(p.Name),
			codec.String(paramElementValue),
			codec.String(p.Value),
		)
	}
	return codec.Sequence(children...)
}

func decodeParameters(e codec.Element) ([]Parameter, error) {
	children, err := e.AsSequence()
	if err != nil {
		return nil, err
	}

	params := make([]Parameter, 0, len(children))
	for _, child := range children {
		elements, err := child.AsSequence()
		if err != nil {
			return nil, err
		}

		var p Parameter
		for i := 0; i+1 < len(elements); i += 2 {
			name, err := elements[i].AsString()
			if err != nil {
				return nil, err
			}
			switch name {
			case paramElementName:
				p.Name, err = elements[i+1].AsString()
			case paramElementValue:
				p.Value, err = elements[i+1].AsString()
			}
			if err != nil {
				return nil, err
			}
		}
		params = append(params, p)
	}
	return params, nil
}
