package config

// WorldSettings configures the demo terrain the tools generate.
type WorldSettings struct {
	Seed     int64 `yaml:"seed"`
	SeaLevel int   `yaml:"sea_level"`
	Radius   int   `yaml:"radius"` // chunks generated around the origin on X and Z
	Height   int   `yaml:"height"` // chunk layers generated from Y=-1 upwards
}

func defaultWorldSettings() WorldSettings {
	return WorldSettings{
		Seed:     1,
		SeaLevel: 4,
		Radius:   8,
		Height:   3,
	}
}
