package witness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// #region format
// Format names a witness file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the encoding from a file extension; anything that is not
// .yaml/.yml is read as JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// #endregion format

// #region decode
// envelope is the object form of a witness file.
type envelope struct {
	Witnesses []Witness `json:"witnesses" yaml:"witnesses"`
}

// Decode reads either a bare list of witnesses or an object with a
// "witnesses" key.
func Decode(r io.Reader, format Format) ([]Witness, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read witnesses: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	switch format {
	case FormatYAML:
		return decodeYAML(data)
	default:
		return decodeJSON(data)
	}
}

func decodeJSON(data []byte) ([]Witness, error) {
	trimmed := bytes.TrimSpace(data)
	if trimmed[0] == '[' {
		var list []Witness
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("parse witness list: %w", err)
		}
		return list, nil
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("parse witness object: %w", err)
	}
	return env.Witnesses, nil
}

func decodeYAML(data []byte) ([]Witness, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parse witness yaml: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	if node.Content[0].Kind == yaml.SequenceNode {
		var list []Witness
		if err := node.Content[0].Decode(&list); err != nil {
			return nil, fmt.Errorf("parse witness list: %w", err)
		}
		return list, nil
	}
	var env envelope
	if err := node.Content[0].Decode(&env); err != nil {
		return nil, fmt.Errorf("parse witness object: %w", err)
	}
	return env.Witnesses, nil
}

// LoadFile reads witnesses from a JSON or YAML file.
func LoadFile(path string) ([]Witness, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open witnesses %s: %w", path, err)
	}
	defer f.Close()

	ws, err := Decode(f, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return ws, nil
}

// #endregion decode
