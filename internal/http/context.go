package http

import (
	"context"

	"github.com/example/session-scheduler/internal/application"
)

type contextKey string

const (
	principalContextKey  contextKey = "principal"
	campaignIDContextKey contextKey = "campaign_id"
	scheduleIDContextKey contextKey = "schedule_id"
	responseIDContextKey contextKey = "response_id"
	pollTokenContextKey  contextKey = "poll_token"
)

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithCampaignID injects the campaign identifier resolved from the request path.
func ContextWithCampaignID(ctx context.Context, campaignID string) context.Context {
	return context.WithValue(ctx, campaignIDContextKey, campaignID)
}

// CampaignIDFromContext extracts a campaign identifier previously associated with the context.
func CampaignIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(campaignIDContextKey).(string)
	return id, ok
}

// ContextWithScheduleID injects the schedule identifier resolved from the request path.
func ContextWithScheduleID(ctx context.Context, scheduleID string) context.Context {
	return context.WithValue(ctx, scheduleIDContextKey, scheduleID)
}

// ScheduleIDFromContext extracts a schedule identifier previously associated with the context.
func ScheduleIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(scheduleIDContextKey).(string)
	return id, ok
}

// ContextWithResponseID injects the availability response identifier resolved from the request path.
func ContextWithResponseID(ctx context.Context, responseID string) context.Context {
	return context.WithValue(ctx, responseIDContextKey, responseID)
}

// ResponseIDFromContext extracts a response identifier previously associated with the context.
func ResponseIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(responseIDContextKey).(string)
	return id, ok
}

// ContextWithPollToken injects the public share token resolved from the request path.
func ContextWithPollToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, pollTokenContextKey, token)
}

// PollTokenFromContext extracts a share token previously associated with the context.
func PollTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(pollTokenContextKey).(string)
	return token, ok
}
