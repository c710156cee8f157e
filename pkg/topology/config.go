package topology

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"gridtwin/pkg/validation"
)

// Reference corridor bus identifiers.
const (
	BusNorth   = "substation-north"
	BusCentral = "substation-central"
	BusSouth   = "substation-south"
)

// Overhead-line parameters typical for a 380 kV circuit.
const (
	DefaultROhmPerKM    = 0.03
	DefaultXOhmPerKM    = 0.32
	DefaultShuntNFPerKM = 11.5
	DefaultRatedKA      = 2.0
)

var structValidator = validator.New()

// LineConfig describes one AC line of the corridor.
type LineConfig struct {
	ID           string  `yaml:"id" validate:"required"`
	From         string  `yaml:"from" validate:"required"`
	To           string  `yaml:"to" validate:"required"`
	LengthKM     float64 `yaml:"length_km" validate:"gt=0"`
	ROhmPerKM    float64 `yaml:"r_ohm_per_km" validate:"gte=0"`
	XOhmPerKM    float64 `yaml:"x_ohm_per_km" validate:"gte=0"`
	ShuntNFPerKM float64 `yaml:"shunt_nf_per_km" validate:"gte=0"`
	RatedKA      float64 `yaml:"rated_ka" validate:"gt=0"`
	OutOfService bool    `yaml:"out_of_service"`
}

// HVDCConfig describes the long-distance DC corridor.
type HVDCConfig struct {
	Enabled bool    `yaml:"enabled"`
	RatedMW float64 `yaml:"rated_mw" validate:"gte=0"`
	LossMW  float64 `yaml:"loss_mw" validate:"gte=0"`
}

// Config parameterises the reference "Wind North / Industry South" corridor.
// The zero value is not usable; start from DefaultConfig.
type Config struct {
	WindMW   float64 `yaml:"wind_mw" validate:"gte=0,lte=10000"`
	LoadMW   float64 `yaml:"load_mw" validate:"gte=0,lte=10000"`
	LoadMvar float64 `yaml:"load_mvar"`

	HVDC HVDCConfig `yaml:"hvdc"`

	// Lines overrides the default corridor line set. Lines may only
	// reference the three reference substations.
	Lines []LineConfig `yaml:"lines,omitempty" validate:"omitempty,min=1,dive"`
}

// DefaultConfig reproduces the reference corridor: 2000 MW offshore wind in
// the north, a 2300 MW / 400 Mvar industry cluster in the south, two
// parallel 150 km lines North-Central, one 200 km line Central-South and a
// 1000 MW DC corridor with 20 MW converter loss.
func DefaultConfig() Config {
	return Config{
		WindMW:   2000,
		LoadMW:   2300,
		LoadMvar: 400,
		HVDC: HVDCConfig{
			Enabled: true,
			RatedMW: 1000,
			LossMW:  20,
		},
		Lines: DefaultLines(),
	}
}

// DefaultLines returns the reference corridor AC line set.
func DefaultLines() []LineConfig {
	return []LineConfig{
		{
			ID: "ac-north-central-a", From: BusNorth, To: BusCentral,
			LengthKM: 150, ROhmPerKM: DefaultROhmPerKM, XOhmPerKM: DefaultXOhmPerKM,
			ShuntNFPerKM: DefaultShuntNFPerKM, RatedKA: DefaultRatedKA,
		},
		{
			ID: "ac-north-central-b", From: BusNorth, To: BusCentral,
			LengthKM: 150, ROhmPerKM: DefaultROhmPerKM, XOhmPerKM: DefaultXOhmPerKM,
			ShuntNFPerKM: DefaultShuntNFPerKM, RatedKA: DefaultRatedKA,
		},
		{
			ID: "ac-central-south", From: BusCentral, To: BusSouth,
			LengthKM: 200, ROhmPerKM: DefaultROhmPerKM, XOhmPerKM: DefaultXOhmPerKM,
			ShuntNFPerKM: DefaultShuntNFPerKM, RatedKA: DefaultRatedKA,
		},
	}
}

// Validate checks the config before any construction is attempted.
func (c Config) Validate() error {
	if err := structValidator.Struct(c); err != nil {
		return fmt.Errorf("corridor config: %w", err)
	}

	cv := validation.NewConfigValidator("CorridorConfig")
	cv.NonNegativeFloat("LoadMvar", c.LoadMvar)
	cv.When(c.HVDC.Enabled, func(v *validation.ConfigValidator) {
		v.PositiveFloat("HVDC.RatedMW", c.HVDC.RatedMW)
		v.Custom("HVDC.LossMW", func() error {
			if c.HVDC.LossMW >= c.HVDC.RatedMW {
				return fmt.Errorf("converter loss %.1f MW must be below rated %.1f MW", c.HVDC.LossMW, c.HVDC.RatedMW)
			}
			return nil
		})
	})
	for _, l := range c.Lines {
		l := l
		cv.Custom("Lines", func() error {
			if !knownBus(l.From) || !knownBus(l.To) {
				return fmt.Errorf("line %q references a bus outside the reference corridor", l.ID)
			}
			return nil
		})
	}
	return cv.Validate()
}

func knownBus(id string) bool {
	return id == BusNorth || id == BusCentral || id == BusSouth
}

// LoadConfig reads a YAML corridor config from disk.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read corridor config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse corridor config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
