package api

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/inkwellapp/inkwell-server/internal/http/response"
)

// EnvelopeTransformer wraps every JSON response body in the versioned
// envelope. Errors become {"success":false,"error":...,"code":...}; raw
// byte bodies such as images pass through untouched.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	switch body := v.(type) {
	case []byte, response.Envelope, *response.Envelope:
		return v, nil
	case *APIError:
		return response.Envelope{
			Version: response.Version,
			Error:   body.Message,
			Code:    body.Code,
			Details: body.Details,
		}, nil
	}

	return response.Envelope{
		Version: response.Version,
		Success: true,
		Data:    v,
	}, nil
}
