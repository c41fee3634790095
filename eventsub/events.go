package eventsub

import (
	"encoding/json"
	"fmt"
	"time"
)

// Subscription types this library ships typed payloads for.
const (
	TypeStreamOnline     = "stream.online"
	TypeStreamOffline    = "stream.offline"
	TypeChannelUpdate    = "channel.update"
	TypeChannelFollow    = "channel.follow"
	TypeChannelSubscribe = "channel.subscribe"
	TypeChannelCheer     = "channel.cheer"
	TypeChannelRaid      = "channel.raid"
)

// StreamOnlineEvent is the payload for stream.online notifications.
type StreamOnlineEvent struct {
	ID                   string    `json:"id"`
	BroadcasterUserID    string    `json:"broadcaster_user_id"`
	BroadcasterUserLogin string    `json:"broadcaster_user_login"`
	BroadcasterUserName  string    `json:"broadcaster_user_name"`
	Type                 string    `json:"type"`
	StartedAt            time.Time `json:"started_at"`
}

// StreamOfflineEvent is the payload for stream.offline notifications.
type StreamOfflineEvent struct {
	BroadcasterUserID    string `json:"broadcaster_user_id"`
	BroadcasterUserLogin string `json:"broadcaster_user_login"`
	BroadcasterUserName  string `json:"broadcaster_user_name"`
}

// ChannelUpdateEvent is the payload for channel.update notifications.
type ChannelUpdateEvent struct {
	BroadcasterUserID    string   `json:"broadcaster_user_id"`
	BroadcasterUserLogin string   `json:"broadcaster_user_login"`
	BroadcasterUserName  string   `json:"broadcaster_user_name"`
	Title                string   `json:"title"`
	Language             string   `json:"language"`
	CategoryID           string   `json:"category_id"`
	CategoryName         string   `json:"category_name"`
	ContentLabels        []string `json:"content_classification_labels"`
}

// ChannelFollowEvent is the payload for channel.follow notifications.
type ChannelFollowEvent struct {
	UserID               string    `json:"user_id"`
	UserLogin            string    `json:"user_login"`
	UserName             string    `json:"user_name"`
	BroadcasterUserID    string    `json:"broadcaster_user_id"`
	BroadcasterUserLogin string    `json:"broadcaster_user_login"`
	BroadcasterUserName  string    `json:"broadcaster_user_name"`
	FollowedAt           time.Time `json:"followed_at"`
}

// ChannelSubscribeEvent is the payload for channel.subscribe notifications.
type ChannelSubscribeEvent struct {
	UserID               string `json:"user_id"`
	UserLogin            string `json:"user_login"`
	UserName             string `json:"user_name"`
	BroadcasterUserID    string `json:"broadcaster_user_id"`
	BroadcasterUserLogin string `json:"broadcaster_user_login"`
	BroadcasterUserName  string `json:"broadcaster_user_name"`
	Tier                 string `json:"tier"`
	IsGift               bool   `json:"is_gift"`
}

// ChannelCheerEvent is the payload for channel.cheer notifications.
type ChannelCheerEvent struct {
	IsAnonymous          bool   `json:"is_anonymous"`
	UserID               string `json:"user_id"`
	UserLogin            string `json:"user_login"`
	UserName             string `json:"user_name"`
	BroadcasterUserID    string `json:"broadcaster_user_id"`
	BroadcasterUserLogin string `json:"broadcaster_user_login"`
	BroadcasterUserName  string `json:"broadcaster_user_name"`
	Message              string `json:"message"`
	Bits                 int    `json:"bits"`
}

// ChannelRaidEvent is the payload for channel.raid notifications.
type ChannelRaidEvent struct {
	FromBroadcasterUserID    string `json:"from_broadcaster_user_id"`
	FromBroadcasterUserLogin string `json:"from_broadcaster_user_login"`
	FromBroadcasterUserName  string `json:"from_broadcaster_user_name"`
	ToBroadcasterUserID      string `json:"to_broadcaster_user_id"`
	ToBroadcasterUserLogin   string `json:"to_broadcaster_user_login"`
	ToBroadcasterUserName    string `json:"to_broadcaster_user_name"`
	Viewers                  int    `json:"viewers"`
}

// RawEvent carries the payload of a subscription type the library has no
// struct for. Consumers decode Payload themselves.
type RawEvent struct {
	Type    string
	Payload json.RawMessage
}

// decodeEvent turns a raw notification payload into the typed struct for its
// subscription type. Unknown types come back as RawEvent so new topics keep
// flowing without a library upgrade.
func decodeEvent(subType string, raw json.RawMessage) (any, error) {
	var target any
	switch subType {
	case TypeStreamOnline:
		target = &StreamOnlineEvent{}
	case TypeStreamOffline:
		target = &StreamOfflineEvent{}
	case TypeChannelUpdate:
		target = &ChannelUpdateEvent{}
	case TypeChannelFollow:
		target = &ChannelFollowEvent{}
	case TypeChannelSubscribe:
		target = &ChannelSubscribeEvent{}
	case TypeChannelCheer:
		target = &ChannelCheerEvent{}
	case TypeChannelRaid:
		target = &ChannelRaidEvent{}
	default:
		return RawEvent{Type: subType, Payload: raw}, nil
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return nil, fmt.Errorf("failed to decode %s event: %w", subType, err)
	}
	return target, nil
}
