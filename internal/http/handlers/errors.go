package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/aaradio/internal/observability"
	"github.com/jmylchreest/aaradio/pkg/audioaddict"
)

// upstreamError maps an error from the radio service to an HTTP error.
// Upstream failures are logged with full detail but only summarised in the
// response, since their messages can carry the listen key.
func upstreamError(ctx context.Context, err error) error {
	var (
		netErr       *audioaddict.NetworkError
		malformedErr *audioaddict.MalformedResponseError
	)

	switch {
	case errors.Is(err, audioaddict.ErrInvalidService):
		return huma.Error404NotFound("unknown service", err)
	case errors.Is(err, audioaddict.ErrChannelNotFound):
		return huma.Error404NotFound("channel not found", err)
	case errors.Is(err, context.Canceled):
		return huma.Error503ServiceUnavailable("request canceled")
	case errors.As(err, &malformedErr):
		logUpstream(ctx, "malformed upstream response", err)
		return huma.Error502BadGateway("upstream returned an invalid response")
	case errors.As(err, &netErr):
		logUpstream(ctx, "upstream request failed", err)
		if errors.Is(err, context.DeadlineExceeded) {
			return huma.Error504GatewayTimeout("upstream request timed out")
		}
		return huma.Error502BadGateway("upstream request failed")
	case errors.Is(err, audioaddict.ErrNoSources):
		return huma.Error502BadGateway("no stream sources available")
	default:
		logUpstream(ctx, "unexpected error", err)
		return huma.Error500InternalServerError("internal error")
	}
}

func logUpstream(ctx context.Context, msg string, err error) {
	observability.LoggerFromContext(ctx).WarnContext(ctx, msg, slog.String("error", err.Error()))
}
