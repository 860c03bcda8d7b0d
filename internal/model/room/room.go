// Package room holds the request and response shapes of the real-time room API.
package room

import "time"

// Info describes a provider room.
type Info struct {
	SID              string    `json:"sid"`
	Name             string    `json:"name"`
	Metadata         string    `json:"metadata"`
	NumParticipants  uint32    `json:"numParticipants"`
	MaxParticipants  uint32    `json:"maxParticipants"`
	EmptyTimeout     uint32    `json:"emptyTimeout"`
	DepartureTimeout uint32    `json:"departureTimeout"`
	CreationTime     time.Time `json:"creationTime"`
}

// Participant describes a connected participant.
type Participant struct {
	SID      string    `json:"sid"`
	Identity string    `json:"identity"`
	Name     string    `json:"name"`
	State    string    `json:"state"`
	Metadata string    `json:"metadata"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Stats aggregates a room with its participants.
type Stats struct {
	Room              Info          `json:"room"`
	Participants      []Participant `json:"participants"`
	TotalParticipants int           `json:"totalParticipants"`
}

// CreateRequest creates a room. Timeouts are in seconds, zero keeps the provider default.
type CreateRequest struct {
	Name             string `json:"name" validate:"required"`
	Metadata         string `json:"metadata"`
	EmptyTimeout     uint32 `json:"emptyTimeout"`
	DepartureTimeout uint32 `json:"departureTimeout"`
	MaxParticipants  uint32 `json:"maxParticipants"`
}

// Grants are the permissions embedded in a join token.
type Grants struct {
	CanPublish     bool `json:"canPublish"`
	CanSubscribe   bool `json:"canSubscribe"`
	CanPublishData bool `json:"canPublishData"`
}

// DefaultGrants allows publishing, subscribing and data messages.
func DefaultGrants() Grants {
	return Grants{CanPublish: true, CanSubscribe: true, CanPublishData: true}
}

// TokenRequest asks for a signed join token.
type TokenRequest struct {
	RoomName        string  `json:"roomName" validate:"required"`
	ParticipantName string  `json:"participantName" validate:"required"`
	Identity        string  `json:"identity"`
	Metadata        string  `json:"metadata"`
	Grants          *Grants `json:"grants,omitempty"`
}

// JoinRequest joins a room, creating it when missing.
type JoinRequest struct {
	RoomName        string `json:"roomName" validate:"required"`
	ParticipantName string `json:"participantName" validate:"required"`
	Identity        string `json:"identity"`
	Metadata        string `json:"metadata"`
}

// JoinResult carries what a client needs to connect.
type JoinResult struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

// ConnectionInfo reports the provider endpoint and whether the integration is usable.
type ConnectionInfo struct {
	URL        string `json:"url"`
	Configured bool   `json:"configured"`
}
