package replicate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnrecognizedOutput is returned for null, empty or unknown output shapes.
var ErrUnrecognizedOutput = errors.New("unrecognized replicate output")

// OutputKind tags which shape the model output arrived in.
type OutputKind int

const (
	OutputKindURL    OutputKind = iota + 1 // "https://..."
	OutputKindList                         // ["https://...", ...]
	OutputKindObject                       // {"url": "https://..."}
	OutputKindFile                         // {"urls": {"get": "https://..."}}
)

func (k OutputKind) String() string {
	switch k {
	case OutputKindURL:
		return "url"
	case OutputKindList:
		return "list"
	case OutputKindObject:
		return "object"
	case OutputKindFile:
		return "file"
	}
	return fmt.Sprintf("OutputKind(%d)", int(k))
}

// Output is a decoded prediction output. Only the field matching Kind is set.
type Output struct {
	Kind  OutputKind
	url   string
	items []Output
}

type objectShape struct {
	URL  *string `json:"url"`
	URLs *struct {
		Get string `json:"get"`
	} `json:"urls"`
}

// DecodeOutput decodes raw prediction output into one of the known shapes.
func DecodeOutput(raw json.RawMessage) (Output, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Output{}, ErrUnrecognizedOutput
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return Output{}, fmt.Errorf("decode url output: %w", err)
		}
		return Output{Kind: OutputKindURL, url: s}, nil

	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return Output{}, fmt.Errorf("decode list output: %w", err)
		}
		items := make([]Output, 0, len(elems))
		for _, elem := range elems {
			item, err := DecodeOutput(elem)
			if err != nil {
				continue
			}
			items = append(items, item)
		}
		return Output{Kind: OutputKindList, items: items}, nil

	case '{':
		var obj objectShape
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return Output{}, fmt.Errorf("decode object output: %w", err)
		}
		if obj.URL != nil {
			return Output{Kind: OutputKindObject, url: *obj.URL}, nil
		}
		if obj.URLs != nil {
			return Output{Kind: OutputKindFile, url: obj.URLs.Get}, nil
		}
	}

	return Output{}, ErrUnrecognizedOutput
}

// URL extracts the image URL. Lists yield their first element with a URL.
func (o Output) URL() (string, error) {
	switch o.Kind {
	case OutputKindURL, OutputKindObject, OutputKindFile:
		if o.url == "" {
			return "", fmt.Errorf("%w: empty %s", ErrUnrecognizedOutput, o.Kind)
		}
		return o.url, nil
	case OutputKindList:
		for _, item := range o.items {
			if u, err := item.URL(); err == nil {
				return u, nil
			}
		}
		return "", fmt.Errorf("%w: empty list", ErrUnrecognizedOutput)
	}
	return "", ErrUnrecognizedOutput
}

// ExtractURL decodes raw output and returns its URL.
func ExtractURL(raw json.RawMessage) (string, error) {
	out, err := DecodeOutput(raw)
	if err != nil {
		return "", err
	}
	return out.URL()
}
