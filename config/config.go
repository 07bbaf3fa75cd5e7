// Package config holds the settings of the mental-santa binary.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/luca-patrignani/mental-santa/domain/elgamal"
	"github.com/luca-patrignani/mental-santa/domain/santa"
)

const (
	DefaultParticipants = 10
	DefaultTimeout      = 30 * time.Second
)

// Config is read from a YAML file and then overridden by command-line flags.
// A non-empty Peers list selects networked mode.
type Config struct {
	Participants int           `yaml:"participants"`
	Suite        string        `yaml:"suite"`
	Reveal       bool          `yaml:"reveal"`
	Debug        bool          `yaml:"debug"`
	Timeout      time.Duration `yaml:"timeout"`
	Peers        []string      `yaml:"peers"`
	Rank         int           `yaml:"rank"`
}

func Default() Config {
	return Config{
		Participants: DefaultParticipants,
		Suite:        elgamal.DefaultSuite,
		Timeout:      DefaultTimeout,
	}
}

// Load reads path on top of the defaults. Keys missing from the file keep
// their default value.
func Load(path string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("%w: %s: %w", santa.ErrInvalidConfig, path, err)
	}
	return c, nil
}

func (c Config) Networked() bool {
	return len(c.Peers) > 0
}

// ParticipantCount is the number of peers in networked mode and
// Participants otherwise.
func (c Config) ParticipantCount() int {
	if c.Networked() {
		return len(c.Peers)
	}
	return c.Participants
}

// Addresses maps every rank to its peer address, as expected by network.NewPeer.
func (c Config) Addresses() map[int]string {
	addresses := make(map[int]string, len(c.Peers))
	for i, addr := range c.Peers {
		addresses[i] = addr
	}
	return addresses
}

func (c Config) Validate() error {
	var errs []error
	if n := c.ParticipantCount(); n < 2 {
		errs = append(errs, fmt.Errorf("at least 2 participants are required, got %d", n))
	}
	if _, err := elgamal.GenerateGroupParameters(c.Suite); err != nil {
		errs = append(errs, fmt.Errorf("suite %q: %w", c.Suite, err))
	}
	if c.Networked() {
		if c.Rank < 0 || c.Rank >= len(c.Peers) {
			errs = append(errs, fmt.Errorf("rank %d outside of the %d peers", c.Rank, len(c.Peers)))
		}
		if c.Timeout <= 0 {
			errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
		}
		seen := make(map[string]bool, len(c.Peers))
		for _, addr := range c.Peers {
			if seen[addr] {
				errs = append(errs, fmt.Errorf("peer %s listed twice", addr))
			}
			seen[addr] = true
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", santa.ErrInvalidConfig, err)
	}
	return nil
}
