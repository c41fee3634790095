// Package twitch is a client for the Twitch Helix REST API.
//
// Client issues authenticated requests using an app access token obtained via
// the client-credentials flow. Services cover the endpoints the library needs:
// user lookup and EventSub subscription management. Webhook ingestion lives in
// the eventsub package.
package twitch
