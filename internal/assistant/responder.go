package assistant

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Canned replies stored when the completion cannot be used.
const (
	ReplyNotConfigured = "Sorry, I'm not configured properly. Please check the API key."
	ReplyUpstreamDown  = "Sorry, I'm having trouble connecting to my AI service right now."
	ReplyFailed        = "Sorry, I encountered an error while processing your request."
	ReplyEmpty         = "I'm not sure how to respond to that."
)

// Outcome classifies how a reply was produced.
type Outcome string

const (
	OutcomeOK             Outcome = "ok"
	OutcomeNotConfigured  Outcome = "not_configured"
	OutcomeUpstreamStatus Outcome = "upstream_status"
	OutcomeUpstreamError  Outcome = "upstream_error"
	OutcomeEmpty          Outcome = "empty"
)

// Responder turns a transcript into reply text. It never returns an error:
// upstream failures become one of the canned replies.
type Responder struct {
	Completer Completer
}

// Reply returns the text to store as the assistant's message.
func (r *Responder) Reply(ctx context.Context, transcript []ChatMessage) (string, Outcome) {
	if r == nil || r.Completer == nil {
		replyOutcomes.WithLabelValues(string(OutcomeNotConfigured)).Inc()
		return ReplyNotConfigured, OutcomeNotConfigured
	}

	text, err := r.Completer.Complete(ctx, transcript)
	reply, outcome := classify(text, err)
	replyOutcomes.WithLabelValues(string(outcome)).Inc()

	if outcome != OutcomeOK {
		ev := loggerFrom(ctx).Warn().Err(err).Str("outcome", string(outcome))
		var se *StatusError
		if errors.As(err, &se) {
			ev = ev.Int("upstream_status", se.StatusCode)
		}
		ev.Msg("assistant reply degraded")
	}
	return reply, outcome
}

func classify(text string, err error) (string, Outcome) {
	var se *StatusError
	switch {
	case err == nil:
		return text, OutcomeOK
	case errors.Is(err, ErrNotConfigured):
		return ReplyNotConfigured, OutcomeNotConfigured
	case errors.Is(err, ErrEmptyCompletion):
		return ReplyEmpty, OutcomeEmpty
	case errors.As(err, &se):
		return ReplyUpstreamDown, OutcomeUpstreamStatus
	default:
		return ReplyFailed, OutcomeUpstreamError
	}
}

// loggerFrom returns the logger attached to ctx, or the global logger.
func loggerFrom(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
