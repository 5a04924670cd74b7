// SPDX-FileCopyrightText: 2024-Present gp-auth-okta authors
//
// SPDX-License-Identifier: MPL-2.0
//
// Copyright 2024-Present gp-auth-okta authors
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package login

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
)

var cfgDefaultPaths = [3]string{
	"", // ~/.config/gp-auth-okta/config.ini, resolved at runtime
	"/etc/gp-auth-okta/config.ini",
	"gp-auth-okta.ini",
}

// Config is the merged CLI/file configuration of one login run.
// File keys live in the [common] section; factor ranks in
// [FactorPriority] as `factorType = rank` pairs.
type Config struct {
	Gateway     string `ini:"gateway" validate:"required"`
	Username    string `ini:"username"`
	Password    string `ini:"password"`
	PasswordCmd string `ini:"password-cmd"`
	TOTPKey     string `ini:"totp-key"`
	TOTPKeyCmd  string `ini:"totp-key-cmd"`

	// Interface selects the prelogin endpoint and the usergroup the VPN
	// client later authenticates under
	Interface string `ini:"interface" validate:"oneof=gateway portal"`

	// ClientOS is the OS tag reported to the gateway during prelogin
	ClientOS string `ini:"clientos" validate:"oneof=Windows Linux Mac"`

	// OpenconnectArgs are extra arguments appended to the openconnect
	// command line, shell-quoted
	OpenconnectArgs string `ini:"openconnect-args"`

	// ExtraArgs set on the command line replace OpenconnectArgs entirely
	ExtraArgs []string `ini:"-"`

	Sudo      bool `ini:"sudo"`
	LegacyTLS bool `ini:"legacy-tls"`

	MFAPushMaxRetries   int `ini:"mfa-push-max-retries"`   // default = 20
	MFAPushDelaySeconds int `ini:"mfa-push-delay-seconds"` // default = 3

	FactorPriorities map[string]int `ini:"-"`
}

// NewConfig returns a Config holding the defaults a missing file or
// flag falls back to.
func NewConfig() *Config {
	return &Config{
		Interface:           "gateway",
		ClientOS:            "Windows",
		MFAPushMaxRetries:   20,
		MFAPushDelaySeconds: 3,
		FactorPriorities:    map[string]int{},
	}
}

// LoadFile merges the first readable config file into cfg. An explicit
// path is required to exist; with an empty path the default locations
// are probed and a missing file is not an error.
func (cfg *Config) LoadFile(path string) error {
	var cfgPaths []string
	if path == "" {
		for _, v := range cfgDefaultPaths {
			if v == "" {
				if home, err := os.UserHomeDir(); err == nil {
					v = filepath.Join(home, ".config", "gp-auth-okta", "config.ini")
				} else {
					continue
				}
			}
			cfgPaths = append(cfgPaths, v)
		}
	} else {
		cfgPaths = append(cfgPaths, path)
	}

	for _, cfgFile := range cfgPaths {
		if info, err := os.Stat(cfgFile); err != nil || info.IsDir() {
			continue
		}
		file, err := ini.LoadSources(ini.LoadOptions{KeyValueDelimiters: "="}, cfgFile)
		if err != nil {
			log.Errorf("Error loading ini file \"%s\": %s", cfgFile, err)
			return err
		}
		if err := checkSectionKeys(file.Section("common"), cfg); err != nil {
			log.Errorf("Error parsing ini file \"%s\": %s", cfgFile, err)
			return err
		}
		if err := file.Section("common").MapTo(cfg); err != nil {
			log.Errorf("Error parsing ini file \"%s\": %s", cfgFile, err)
			return err
		}
		if file.HasSection("FactorPriority") {
			for _, key := range file.Section("FactorPriority").Keys() {
				rank, err := key.Int()
				if err != nil {
					log.Errorf("Invalid FactorPriority rank for \"%s\": %s", key.Name(), err)
					return err
				}
				cfg.FactorPriorities[key.Name()] = rank
			}
		}
		log.Debugf("loaded config from %s", cfgFile)
		return nil
	}

	if path != "" {
		log.Errorf("No ini file found in %v", cfgPaths)
		return errors.New("No ini file found")
	}
	return nil
}

// checkSectionKeys rejects section keys that map to no `ini` tagged
// field of cfg, a mistyped option should fail loudly instead of being
// silently ignored.
func checkSectionKeys(section *ini.Section, cfg any) error {
	known := map[string]bool{}
	t := reflect.TypeOf(cfg).Elem()
	for i := 0; i < t.NumField(); i++ {
		if tag := t.Field(i).Tag.Get("ini"); tag != "" && tag != "-" {
			known[tag] = true
		}
	}
	for _, key := range section.Keys() {
		if !known[key.Name()] {
			return fmt.Errorf("unknown option \"%s\" in section [%s]", key.Name(), section.Name())
		}
	}
	return nil
}

// Validate checks the merged configuration before the pipeline starts.
func (cfg *Config) Validate() error {
	return validator.New().Struct(cfg)
}
