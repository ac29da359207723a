package genai

import (
	"errors"
	"net/http"

	"github.com/google/generative-ai-go/genai"

	"github.com/vietddude/adsim/internal/simulation/retry"
)

// mapError converts SDK errors that are not self-describing into
// retry.StatusError. Transport, gRPC and googleapi errors pass through
// untouched since retry.Classify understands them.
func mapError(err error) error {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return &retry.StatusError{
			Code:    http.StatusUnprocessableEntity,
			Status:  "blocked",
			Message: blocked.Error(),
		}
	}
	return err
}
