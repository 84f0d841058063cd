package prefabs

import (
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, eris.Wrapf(err, "prefabs: load %s", filename)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, eris.Wrapf(err, "prefabs: unmarshal %s", filename)
	}

	return spec, nil
}

// BodySpec describes the circle body of a spawned entity kind.
type BodySpec struct {
	Radius      float64 `yaml:"radius"`
	Density     float64 `yaml:"density"`
	Friction    float64 `yaml:"friction"`
	Restitution float64 `yaml:"restitution"`
}

type Bodies struct {
	Player BodySpec `yaml:"player"`
	Marble BodySpec `yaml:"marble"`
	Emote  BodySpec `yaml:"emote"`
}

// LoadBodies reads bodies.yaml and rejects non-positive radii.
func LoadBodies() (Bodies, error) {
	spec, err := LoadSpec[Bodies]("bodies.yaml")
	if err != nil {
		return Bodies{}, err
	}
	if err := spec.Validate(); err != nil {
		return Bodies{}, err
	}
	return spec, nil
}

func (b Bodies) Validate() error {
	for _, s := range []struct {
		name string
		spec BodySpec
	}{{"player", b.Player}, {"marble", b.Marble}, {"emote", b.Emote}} {
		if s.spec.Radius <= 0 {
			return eris.Errorf("prefabs: %s radius must be positive", s.name)
		}
	}
	return nil
}
