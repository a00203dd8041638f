package api

import (
	"strconv"

	"github.com/danielgtaylor/huma/v2"
)

// envelopeVersion is bumped when the envelope shape changes so clients can
// detect incompatible servers.
const envelopeVersion = 1

// Envelope is the uniform JSON wrapper around every response body.
type Envelope struct {
	V       int  `json:"v" doc:"Envelope version"`
	Success bool `json:"success" doc:"Whether the request succeeded"`
	Data    any  `json:"data,omitempty" doc:"Response payload"`
	Error   any  `json:"error,omitempty" doc:"Error payload when success is false"`
}

// EnvelopeTransformer wraps every huma response body in the envelope.
// Registered on the huma config so handlers return bare payloads.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	code, err := strconv.Atoi(status)
	if err != nil {
		code = 200
	}

	if code >= 400 {
		return Envelope{V: envelopeVersion, Success: false, Error: v}, nil
	}
	return Envelope{V: envelopeVersion, Success: true, Data: v}, nil
}
