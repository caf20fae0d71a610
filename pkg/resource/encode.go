package resource

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the extension-less name of the document at the given emission index.
func FileName[T any](index int, resource Resource[T]) string {
	return fmt.Sprintf("%02d-%s-%s", index, strings.ToLower(resource.Kind), resource.Metadata.Name)
}

// EncodeYAML writes the documents as a single "---" separated stream.
// Map keys are sorted by the encoder so identical documents always produce identical bytes.
func EncodeYAML[T any](w io.Writer, resources ...Resource[T]) error {
	objects, err := Unstructured(resources)
	if err != nil {
		return err
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)

	for i, object := range objects {
		if err := encoder.Encode(object.Object); err != nil {
			return fmt.Errorf("failed to encode %s: %w", resources[i].Canonical(), err)
		}
	}

	return encoder.Close()
}
