package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// SeedFile is the on-disk layout of the initial catalog.
type SeedFile struct {
	Courses []NewCourseInput `yaml:"courses"`
}

// LoadSeedFile reads the initial catalog from a YAML file
func LoadSeedFile(filename string) ([]NewCourseInput, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file %s: %w", filename, err)
	}
	defer file.Close()

	var seed SeedFile
	decoder := yaml.NewDecoder(file)
	decoder.SetStrict(true)
	if err := decoder.Decode(&seed); err != nil {
		return nil, fmt.Errorf("failed to decode seed file %s: %w", filename, err)
	}

	return seed.Courses, nil
}
