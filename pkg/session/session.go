// SPDX-FileCopyrightText: 2024-Present gp-auth-okta authors
//
// SPDX-License-Identifier: MPL-2.0
//
// Copyright 2024-Present gp-auth-okta authors
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package session provides the http transport shared by the prelogin,
// Okta authentication and SAML relay steps of one login attempt.
//
// A Session owns a cookie jar that every response mutates and every
// subsequent request reads: the gateway's tracking cookies and Okta's
// session cookies both live there. It is scoped to a single login
// attempt and must not be reused across attempts.
package session

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/publicsuffix"
)

const userAgent string = "Mozilla/5.0 (Linux; x86_64) gp-auth-okta/1.0"

// ErrHTTPStatus is wrapped by every non-2xx response. Transport errors
// are always fatal for the current attempt, there is no retry.
var ErrHTTPStatus = errors.New("unexpected HTTP status")

// Config controls the TLS policy of a Session.
type Config struct {
	// LegacyTLS relaxes the TLS config for gateway appliances that still
	// run outdated stacks: minimum version drops to TLS 1.0 and client
	// initiated renegotiation is accepted once per connection.
	LegacyTLS bool

	// Timeout for each request, default 30s
	Timeout time.Duration
}

// Reply is the decoded outcome of one request: status, headers and the
// fully read body. The underlying connection is already released.
type Reply struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

type Session struct {
	client   *http.Client
	validate *validator.Validate
}

// New prepares a Session with a fresh cookie jar and the TLS policy
// described by cfg. A nil cfg selects the strict defaults.
func New(cfg *Config) (*Session, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}

	tlsCfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		CipherSuites: []uint16{
			// TLS 1.2 safe cipher suites
			tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
			tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
			// TLS 1.3 cipher suites
			tls.TLS_AES_128_GCM_SHA256,
			tls.TLS_AES_256_GCM_SHA384,
			tls.TLS_CHACHA20_POLY1305_SHA256,
		},
	}
	if cfg.LegacyTLS {
		tlsCfg = &tls.Config{
			MinVersion:    tls.VersionTLS10,
			Renegotiation: tls.RenegotiateOnceAsClient,
		}
		log.Debugf("legacy TLS mode enabled")
	}

	t := &http.Transport{
		MaxIdleConns:        5,
		MaxConnsPerHost:     5,
		MaxIdleConnsPerHost: 5,
		TLSClientConfig:     tlsCfg,
	}
	return &Session{
		client: &http.Client{
			Timeout:   timeout,
			Transport: t,
			Jar:       jar,
		},
		validate: validator.New(),
	}, nil
}

// HTTPClient exposes the underlying client so tests can intercept it
func (s *Session) HTTPClient() *http.Client {
	return s.client
}

// logSafeURL drops userinfo and the query string before a URL reaches
// a log line or an error message. Query strings carry one-time tokens
// (sessionCookieRedirect) that must never be logged.
func logSafeURL(u *url.URL) string {
	safe := *u
	safe.User = nil
	safe.RawQuery = ""
	safe.Fragment = ""
	return safe.String()
}

func (s *Session) do(req *http.Request) (*Reply, error) {
	req.Header.Set("User-Agent", userAgent)
	log.Debugf("%s %s", req.Method, logSafeURL(req.URL))
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	reply := &Reply{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return reply, fmt.Errorf("%s %s returned %d: %w",
			req.Method,
			logSafeURL(req.URL),
			resp.StatusCode,
			ErrHTTPStatus)
	}
	return reply, nil
}

// Get performs a status checked GET, following redirects.
func (s *Session) Get(rawURL string) (*Reply, error) {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return s.do(req)
}

// PostForm performs a status checked form-encoded POST.
func (s *Session) PostForm(rawURL string, data url.Values) (*Reply, error) {
	req, err := http.NewRequest(http.MethodPost, rawURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req)
}

// PostJSON marshals payload, performs a status checked POST and decodes
// the response body into out, validating its `validate` tags.
//
// Okta replies to rejected requests with a JSON error document; its
// errorSummary is folded into the returned error to keep the fatal
// message readable.
func (s *Session) PostJSON(rawURL string, payload any, out any) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, rawURL, bytes.NewReader(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	reply, err := s.do(req)
	if err != nil {
		if reply != nil {
			if summary := apiErrorSummary(reply.Body); summary != "" {
				return fmt.Errorf("%s: %w", summary, err)
			}
		}
		return err
	}
	if err = json.Unmarshal(reply.Body, out); err != nil {
		return err
	}
	return s.validate.Struct(out)
}

// apiErrorSummary extracts errorSummary from an Okta error body, the
// most specific cause wins.
func apiErrorSummary(body []byte) string {
	var apiErr struct {
		Summary string `json:"errorSummary"`
		Causes  []struct {
			Summary string `json:"errorSummary"`
		} `json:"errorCauses"`
	}
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return ""
	}
	if len(apiErr.Causes) > 0 && apiErr.Causes[0].Summary != "" {
		return apiErr.Causes[0].Summary
	}
	return apiErr.Summary
}
