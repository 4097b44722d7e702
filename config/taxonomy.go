package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"fashion-ai/internal/domain/entity"
)

// LoadTaxonomy возвращает таксономию из TAXONOMY_PATH или встроенную по умолчанию.
// Встроенной таксономии назначается порог ATTRIBUTE_THRESHOLD.
func (c *Config) LoadTaxonomy() (*entity.Taxonomy, error) {
	if c.Attributes.TaxonomyPath == "" {
		tax := entity.DefaultTaxonomy().WithThreshold(c.Attributes.Threshold)
		return tax, tax.Validate()
	}
	return LoadTaxonomyFile(c.Attributes.TaxonomyPath)
}

// LoadTaxonomyFile читает таксономию из YAML-файла
func LoadTaxonomyFile(path string) (*entity.Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy: %w", err)
	}
	return ParseTaxonomy(data)
}

// ParseTaxonomy разбирает YAML. Неизвестные поля считаются ошибкой.
func ParseTaxonomy(data []byte) (*entity.Taxonomy, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var tax entity.Taxonomy
	if err := dec.Decode(&tax); err != nil {
		return nil, fmt.Errorf("decode taxonomy: %w", err)
	}
	if err := tax.Validate(); err != nil {
		return nil, err
	}
	return &tax, nil
}
