// SPDX-FileCopyrightText: 2024-Present gp-auth-okta authors
//
// SPDX-License-Identifier: MPL-2.0
//
// Copyright 2024-Present gp-auth-okta authors
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package fido drives a locally attached FIDO hardware key through a
// WebAuthn assertion over the U2F HID transport.
package fido

import (
	"errors"
	"fmt"
	"time"

	u2fhost "github.com/marshallbrekka/go-u2fhost"
	log "github.com/sirupsen/logrus"
)

const (
	maxOpenRetries = 10
	openRetryDelay = 200 * time.Millisecond
	assertTimeout  = 25 * time.Second
	pollInterval   = 250 * time.Millisecond
)

var (
	// ErrNoDevice: no suitable authenticator is plugged in. The caller may
	// ask the user to insert one and retry, or fall back to another factor.
	ErrNoDevice = errors.New("no FIDO device found")

	// ErrAssertTimeout: the user did not touch the key in time.
	ErrAssertTimeout = errors.New("no response from FIDO device")
)

// Interaction is the capability interface through which the assertion
// loop talks to the user. U2F-compatible credentials have no PIN or
// on-device verification, so user presence (touch) is the only
// interaction a challenge needs; Confirm covers the insert-and-retry
// question when no device is attached.
type Interaction interface {
	// PromptPresence is called once when the key starts blinking.
	PromptPresence()

	// Confirm asks a yes/no question, used to wait for a device.
	Confirm(question string) bool
}

// Request describes one WebAuthn assertion: the server challenge
// (websafe base64), the relying party, and the registered credential
// ids eligible for this user.
type Request struct {
	Challenge  string
	RPID       string
	Origin     string
	KeyHandles []string
}

// Assertion carries the three signed fields of a WebAuthn response,
// still in the websafe encoding produced by the authenticator.
type Assertion struct {
	AuthenticatorData string
	ClientData        string
	SignatureData     string
}

// FindDevice returns the first attached HID authenticator that can be
// opened, or ErrNoDevice.
func FindDevice() (u2fhost.Device, error) {
	allDevices := u2fhost.Devices()
	if len(allDevices) == 0 {
		return nil, ErrNoDevice
	}

	for i, device := range allDevices {
		if err := device.Open(); err != nil {
			log.Debugf("failed to open FIDO device: %s", err)
			device.Close()
			continue
		}
		device.Close()
		return allDevices[i], nil
	}
	return nil, ErrNoDevice
}

// Assert performs the WebAuthn assertion against device, trying every
// eligible key handle until the device recognizes one and the user
// confirms presence. Blocks on physical user action, bounded by
// assertTimeout.
func Assert(device u2fhost.Device, req *Request, interaction Interaction) (*Assertion, error) {
	if len(req.KeyHandles) == 0 {
		return nil, errors.New("no eligible credential for this device")
	}

	var err error
	for retry := 0; retry < maxOpenRetries; retry++ {
		if err = device.Open(); err == nil {
			break
		}
		time.Sleep(openRetryDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("can not open FIDO device: %w", err)
	}
	defer device.Close()

	prompted := false
	timeout := time.After(assertTimeout)
	interval := time.NewTicker(pollInterval)
	defer interval.Stop()

	for {
		select {
		case <-timeout:
			return nil, ErrAssertTimeout
		case <-interval.C:
			for _, handle := range req.KeyHandles {
				authReq := &u2fhost.AuthenticateRequest{
					Challenge: req.Challenge,
					AppId:     req.RPID,
					Facet:     req.Origin,
					KeyHandle: handle,
					WebAuthn:  true,
				}
				resp, err := device.Authenticate(authReq)
				if err == nil {
					return &Assertion{
						AuthenticatorData: resp.AuthenticatorData,
						ClientData:        resp.ClientData,
						SignatureData:     resp.SignatureData,
					}, nil
				}
				switch err.(type) {
				case *u2fhost.TestOfUserPresenceRequiredError:
					if !prompted {
						interaction.PromptPresence()
						prompted = true
					}
				case *u2fhost.BadKeyHandleError:
					// registered on another device, try the next handle
					log.Debugf("key handle not recognized by device, skipping")
				default:
					return nil, fmt.Errorf("FIDO device error: %w", err)
				}
			}
		}
	}
}
