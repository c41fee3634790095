// Package eventsub implements Twitch EventSub webhook ingestion.
//
// Receiver authenticates inbound notifications (HMAC over raw bytes), answers
// verification challenges, suppresses replays, and appends accepted
// notifications to a broadcast log. Registration exposes the log as a typed
// event stream filtered to one subscription. Manager ties registrations to
// the REST subscription endpoints.
package eventsub
