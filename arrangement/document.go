package arrangement

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/jsphweid/backingband/model"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Load reads an arrangement document. Files ending in .yaml or .yml are
// decoded as YAML, everything else as JSON.
func Load(path string) (model.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Document{}, errors.Wrapf(err, "could not read arrangement %s", path)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return Decode(data, ext == ".yaml" || ext == ".yml")
}

func Decode(data []byte, isYAML bool) (model.Document, error) {
	var doc model.Document
	var err error
	if isYAML {
		err = yaml.Unmarshal(data, &doc)
	} else {
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return doc, errors.Wrap(err, "could not decode arrangement")
	}
	return doc, nil
}
