package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrProvider wraps any other failure talking to the provider.
var ErrProvider = errors.New("ai provider error")

// ErrEmptyResponse means the provider answered without any text.
var ErrEmptyResponse = errors.New("ai provider returned no content")

// ErrMalformedResponse means the completion could not be decoded into a report.
var ErrMalformedResponse = errors.New("ai response is not valid report JSON")
