// Package http provides HTTP handlers and middleware for the session
// scheduler API.
//
// The router exposes the following endpoints:
//   - POST /organizers: creates an organizer account and signs it in. Body:
//     {"email","display_name","password"}. Response: {"token","expires_at",
//     "organizer"} with the token also surfaced via a `session_token` cookie.
//   - POST /sessions: issues a session token for an existing organizer.
//     DELETE /sessions/current revokes the presented token and clears the
//     cookie.
//   - GET /campaigns, POST /campaigns, GET/PUT/DELETE /campaigns/{id}:
//     campaign management endpoints exchanging the `campaignDTO` payload
//     defined in campaign_handler.go.
//   - GET /schedules?campaign_id=..., POST /schedules, GET/PUT/DELETE
//     /schedules/{id}: availability poll management exchanging the
//     `scheduleDTO` payload defined in schedule_handler.go.
//   - POST /schedules/{id}/close: moves a collecting poll to its terminal
//     closed state.
//   - GET /schedules/{id}/overview: aggregated responses, the per-date grid,
//     and the ranked popular slots for the organizer's decision.
//   - POST /schedules/{id}/commit: locks in a date and slot, records the
//     scheduled session with its attendees, and notifies respondents.
//   - GET /schedules/{id}/session: returns the committed session.
//   - DELETE /schedules/{id}/responses/{responseID}: removes one
//     respondent's record while the poll is still collecting.
//   - GET /polls/{token}: public poll view reached via share token; an
//     optional `email` query parameter preloads that respondent's current
//     selections.
//   - POST /polls/{token}/responses: public full-form availability
//     submission.
//   - POST /polls/{token}/toggle: public single-slot toggle returning the
//     resulting selection state.
//
// All endpoints other than organizer signup, login, and the /polls/ routes
// require a session token via the Authorization Bearer header or the
// `session_token` cookie. Request/response DTOs live alongside their
// respective handlers so tests and documentation share the same ground
// truth.
package http
