package internal

import (
	"github.com/go-git/go-billy/v5"
	"gopkg.in/yaml.v3"
)

// WriteYAML encodes value into filename on the given filesystem, replacing any previous content.
func WriteYAML(fs billy.Filesystem, filename string, value any) (err error) {
	file, err := fs.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)

	if err := encoder.Encode(value); err != nil {
		return err
	}

	return encoder.Close()
}
