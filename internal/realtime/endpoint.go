// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package realtime

import (
	"fmt"
	"net/url"
	"strings"
)

// EndpointPath is where the server upgrades connections.
const EndpointPath = "/ws"

// EndpointURL returns the socket endpoint for a page served from pageURL.
//
//	https://mix.example.com/app  ->  wss://mix.example.com/ws
//	http://localhost:5000/       ->  ws://localhost:5000/ws
func EndpointURL(pageURL string) (string, error) {
	u, host, err := parsePage(pageURL)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if secure(u.Scheme) {
		scheme = "wss"
	}
	return (&url.URL{Scheme: scheme, Host: host, Path: EndpointPath}).String(), nil
}

// originOf returns the http(s) origin of pageURL, which the server compares
// against its own host during the upgrade.
func originOf(pageURL string) (string, error) {
	u, host, err := parsePage(pageURL)
	if err != nil {
		return "", err
	}
	scheme := "http"
	if secure(u.Scheme) {
		scheme = "https"
	}
	return scheme + "://" + host, nil
}

func parsePage(pageURL string) (*url.URL, string, error) {
	u, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil {
		return nil, "", fmt.Errorf("parse page url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "ws", "wss":
	default:
		return nil, "", fmt.Errorf("page url %q: unsupported scheme %q", pageURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, "", fmt.Errorf("page url %q has no host", pageURL)
	}
	return u, u.Host, nil
}

func secure(scheme string) bool {
	s := strings.ToLower(scheme)
	return s == "https" || s == "wss"
}
