// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package utils

import "strings"

// VocalisEnvironment is the deployment environment the service runs in.
type VocalisEnvironment string

const (
	PRODUCTION  VocalisEnvironment = "production"
	DEVELOPMENT VocalisEnvironment = "development"
)

func (e VocalisEnvironment) Get() string {
	return string(e)
}

// FromEnvironmentStr parses an environment name, defaulting to DEVELOPMENT
// for anything unrecognized.
func FromEnvironmentStr(s string) VocalisEnvironment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "production":
		return PRODUCTION
	default:
		return DEVELOPMENT
	}
}
