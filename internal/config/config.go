// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	DriverSerial = "serial"
	DriverGnss   = "gnss"
	DriverStdin  = "stdin"
)

type Config struct {
	Socket     string     `toml:"socket" yaml:"socket"`
	OwnerGroup string     `toml:"group" yaml:"group"`
	Driver     string     `toml:"device_driver" yaml:"device_driver"`
	DevicePath string     `toml:"device_path" yaml:"device_path"`
	BaudRate   int        `toml:"device_baud_rate" yaml:"device_baud_rate"`
	LogLevel   string     `toml:"log_level" yaml:"log_level"`
	MQTT       MQTTConfig `toml:"mqtt" yaml:"mqtt"`
}

// MQTTConfig enables publishing of decoded fixes when Broker is set.
type MQTTConfig struct {
	Broker   string `toml:"broker" yaml:"broker"`
	Topic    string `toml:"topic" yaml:"topic"`
	ClientID string `toml:"client_id" yaml:"client_id"`
	QoS      int    `toml:"qos" yaml:"qos"`
	Retained bool   `toml:"retained" yaml:"retained"`
}

func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Parse reads a TOML config file, or YAML when the file name ends in .yaml or
// .yml. Missing keys get their defaults.
func Parse(file string) (c *Config, err error) {
	contents, err := os.ReadFile(file)
	if err != nil {
		err = fmt.Errorf("config.Parse(): %w", err)
		return
	}

	c = &Config{}

	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(contents, c)
	default:
		err = toml.Unmarshal(contents, c)
	}
	if err != nil {
		err = fmt.Errorf("config.Parse(): %w", err)
		return
	}

	c.applyDefaults()
	if err = c.Validate(); err != nil {
		err = fmt.Errorf("config.Parse(): %w", err)
	}
	return
}

func (c *Config) applyDefaults() {
	if c.Socket == "" {
		c.Socket = "/var/run/gnss_fix.sock"
	}
	if c.Driver == "" {
		c.Driver = DriverGnss
	}
	if c.DevicePath == "" && c.Driver != DriverStdin {
		c.DevicePath = "/dev/gnss0"
	}
	if c.BaudRate == 0 {
		c.BaudRate = 9600
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.MQTT.Topic == "" {
		c.MQTT.Topic = "gnss/fix"
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "gnss_fix"
	}
}

func (c *Config) Validate() error {
	switch c.Driver {
	case DriverSerial, DriverGnss, DriverStdin:
	default:
		return fmt.Errorf("unknown device_driver %q", c.Driver)
	}
	if c.BaudRate < 0 {
		return fmt.Errorf("invalid device_baud_rate %d", c.BaudRate)
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("invalid mqtt qos %d", c.MQTT.QoS)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	return nil
}

// Logger builds the process logger at the configured level.
func (c *Config) Logger() *logrus.Logger {
	log := logrus.New()
	if lvl, err := logrus.ParseLevel(c.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	return log
}
