package recognize

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var profilesYAML []byte

// Profile describes one embedding space the matcher can operate in. Embeddings
// from different profiles must never be mixed inside one gallery: the metric
// and threshold are only meaningful within the extractor that produced them.
type Profile struct {
	Name      string  `yaml:"-"`
	Metric    string  `yaml:"metric"` // euclidean or cosine
	Threshold float64 `yaml:"threshold"`
	Dim       int     `yaml:"dim"`
}

type profilesFile struct {
	Profiles map[string]Profile `yaml:"profiles"`
}

// DistanceFunc returns the metric implementation for the profile.
func (p Profile) DistanceFunc() (func(a, b []float32) float64, error) {
	switch p.Metric {
	case "euclidean":
		return EuclideanDistance, nil
	case "cosine":
		return CosineDistance, nil
	default:
		return nil, fmt.Errorf("unknown distance metric %q", p.Metric)
	}
}

// LoadProfile resolves a named profile from the embedded profiles.yaml.
// A non-zero threshold override replaces the profile default.
func LoadProfile(name string, thresholdOverride float64) (Profile, error) {
	var file profilesFile
	if err := yaml.Unmarshal(profilesYAML, &file); err != nil {
		// Embedded file, should never happen in practice.
		panic("failed to unmarshal embedded profiles.yaml: " + err.Error())
	}

	p, ok := file.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown matcher profile %q", name)
	}
	p.Name = name
	if thresholdOverride > 0 {
		p.Threshold = thresholdOverride
	}
	return p, nil
}
