package block

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_blocks.yaml
var defaultBlocksYAML []byte

type registryFile struct {
	Types []typeEntry `yaml:"types"`
}

type typeEntry struct {
	Name       string          `yaml:"name"`
	Properties []propertyEntry `yaml:"properties"`
}

type propertyEntry struct {
	Name   string   `yaml:"name"`
	Kind   string   `yaml:"kind"`
	Values []string `yaml:"values"`
}

func parseKind(s string) (PropertyKind, error) {
	switch strings.ToLower(s) {
	case "", "enum":
		return KindEnum, nil
	case "bool":
		return KindBool, nil
	case "int":
		return KindInt, nil
	case "direction":
		return KindDirection, nil
	}
	return 0, fmt.Errorf("kind %q: %w", s, ErrInvalidProperty)
}

// ParseRegistry строит реестр из YAML-описания типов.
func ParseRegistry(data []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("ошибка разбора описания блоков: %w", err)
	}

	b := NewRegistryBuilder()
	for _, te := range file.Types {
		defs := make([]PropertyDef, 0, len(te.Properties))
		for _, pe := range te.Properties {
			kind, err := parseKind(pe.Kind)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", te.Name, pe.Name, err)
			}
			values := pe.Values
			if kind == KindBool && len(values) == 0 {
				values = []string{"false", "true"}
			}
			defs = append(defs, PropertyDef{Name: pe.Name, Kind: kind, Values: values})
		}
		b.Add(te.Name, defs...)
	}
	return b.Build()
}

// LoadRegistry читает YAML-файл с описанием типов блоков.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseRegistry(data)
}

// Default возвращает встроенный реестр типов.
func Default() *Registry {
	r, err := ParseRegistry(defaultBlocksYAML)
	if err != nil {
		panic(fmt.Sprintf("block: встроенное описание блоков повреждено: %v", err))
	}
	return r
}
