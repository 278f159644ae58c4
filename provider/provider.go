// Package provider implements translation backends for the batch scheduler.
package provider

import "github.com/ZaguanLabs/hankey"

// Backend is an alias to the root package interface for convenience.
type Backend = hankey.Backend

// TranslateRequest is an alias to the root package type.
type TranslateRequest = hankey.TranslateRequest
