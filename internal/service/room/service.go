// Package room wraps the LiveKit room service API and token signing.
package room

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/livekit/protocol/auth"
	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"

	"github.com/learnhub/backend/internal/apperr"
	model "github.com/learnhub/backend/internal/model/room"
	"github.com/learnhub/backend/internal/validation"
)

const defaultTokenTTL = 6 * time.Hour

// RoomAPI is the subset of the LiveKit room service used here.
// *lksdk.RoomServiceClient satisfies it.
type RoomAPI interface {
	CreateRoom(ctx context.Context, req *livekit.CreateRoomRequest) (*livekit.Room, error)
	ListRooms(ctx context.Context, req *livekit.ListRoomsRequest) (*livekit.ListRoomsResponse, error)
	DeleteRoom(ctx context.Context, req *livekit.DeleteRoomRequest) (*livekit.DeleteRoomResponse, error)
	ListParticipants(ctx context.Context, req *livekit.ListParticipantsRequest) (*livekit.ListParticipantsResponse, error)
	RemoveParticipant(ctx context.Context, req *livekit.RoomParticipantIdentity) (*livekit.RemoveParticipantResponse, error)
	UpdateRoomMetadata(ctx context.Context, req *livekit.UpdateRoomMetadataRequest) (*livekit.Room, error)
	SendData(ctx context.Context, req *livekit.SendDataRequest) (*livekit.SendDataResponse, error)
}

// Config holds the LiveKit endpoint and credentials.
type Config struct {
	URL       string
	APIKey    string
	APISecret string
	TokenTTL  time.Duration
}

// NewClient builds the LiveKit room service client.
func NewClient(cfg Config) *lksdk.RoomServiceClient {
	return lksdk.NewRoomServiceClient(cfg.URL, cfg.APIKey, cfg.APISecret)
}

// Service exposes room lifecycle, participants and join tokens.
type Service struct {
	api RoomAPI
	cfg Config
}

// NewService wraps api. A nil api leaves room operations unconfigured;
// token signing only needs the key pair.
func NewService(api RoomAPI, cfg Config) *Service {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	return &Service{api: api, cfg: cfg}
}

// Configured reports whether room operations can reach the provider.
func (s *Service) Configured() bool {
	return s.api != nil && s.cfg.URL != "" && s.cfg.APIKey != "" && s.cfg.APISecret != ""
}

func (s *Service) ConnectionInfo() model.ConnectionInfo {
	return model.ConnectionInfo{URL: s.cfg.URL, Configured: s.Configured()}
}

// URL returns the client-facing LiveKit endpoint.
func (s *Service) URL() string { return s.cfg.URL }

func (s *Service) ready() error {
	if !s.Configured() {
		return apperr.NotConfigured("LiveKit is not configured. Please add LiveKit environment variables.")
	}
	return nil
}

func (s *Service) CreateRoom(ctx context.Context, req model.CreateRequest) (model.Info, error) {
	if err := s.ready(); err != nil {
		return model.Info{}, err
	}
	if err := validation.Struct(req); err != nil {
		return model.Info{}, err
	}

	room, err := s.api.CreateRoom(ctx, &livekit.CreateRoomRequest{
		Name:             req.Name,
		Metadata:         req.Metadata,
		EmptyTimeout:     req.EmptyTimeout,
		DepartureTimeout: req.DepartureTimeout,
		MaxParticipants:  req.MaxParticipants,
	})
	if err != nil {
		return model.Info{}, apperr.Provider("Failed to create room: %v", err)
	}
	log.Printf("[room] created room=%s sid=%s", room.Name, room.Sid)
	return toInfo(room), nil
}

func (s *Service) ListRooms(ctx context.Context) ([]model.Info, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	resp, err := s.api.ListRooms(ctx, &livekit.ListRoomsRequest{})
	if err != nil {
		return nil, apperr.Provider("Failed to list rooms: %v", err)
	}

	rooms := make([]model.Info, 0, len(resp.GetRooms()))
	for _, r := range resp.GetRooms() {
		rooms = append(rooms, toInfo(r))
	}
	return rooms, nil
}

// GetRoom looks name up in the room listing.
func (s *Service) GetRoom(ctx context.Context, name string) (model.Info, error) {
	rooms, err := s.ListRooms(ctx)
	if err != nil {
		return model.Info{}, err
	}
	for _, r := range rooms {
		if r.Name == name {
			return r, nil
		}
	}
	return model.Info{}, apperr.NotFound("Room %s not found", name)
}

func (s *Service) DeleteRoom(ctx context.Context, name string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.api.DeleteRoom(ctx, &livekit.DeleteRoomRequest{Room: name}); err != nil {
		return apperr.Provider("Failed to delete room: %v", err)
	}
	log.Printf("[room] deleted room=%s", name)
	return nil
}

func (s *Service) ListParticipants(ctx context.Context, name string) ([]model.Participant, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	resp, err := s.api.ListParticipants(ctx, &livekit.ListParticipantsRequest{Room: name})
	if err != nil {
		return nil, apperr.Provider("Failed to list participants: %v", err)
	}

	participants := make([]model.Participant, 0, len(resp.GetParticipants()))
	for _, p := range resp.GetParticipants() {
		participants = append(participants, model.Participant{
			SID:      p.Sid,
			Identity: p.Identity,
			Name:     p.Name,
			State:    p.State.String(),
			Metadata: p.Metadata,
			JoinedAt: time.Unix(p.JoinedAt, 0).UTC(),
		})
	}
	return participants, nil
}

func (s *Service) RemoveParticipant(ctx context.Context, name, identity string) error {
	if err := s.ready(); err != nil {
		return err
	}
	_, err := s.api.RemoveParticipant(ctx, &livekit.RoomParticipantIdentity{Room: name, Identity: identity})
	if err != nil {
		return apperr.Provider("Failed to remove participant: %v", err)
	}
	return nil
}

func (s *Service) UpdateRoomMetadata(ctx context.Context, name, metadata string) (model.Info, error) {
	if err := s.ready(); err != nil {
		return model.Info{}, err
	}
	room, err := s.api.UpdateRoomMetadata(ctx, &livekit.UpdateRoomMetadataRequest{Room: name, Metadata: metadata})
	if err != nil {
		return model.Info{}, apperr.Provider("Failed to update room metadata: %v", err)
	}
	return toInfo(room), nil
}

// SendData publishes payload to every participant of a room over the reliable data channel.
func (s *Service) SendData(ctx context.Context, name, topic string, payload []byte) error {
	if err := s.ready(); err != nil {
		return err
	}
	req := &livekit.SendDataRequest{
		Room: name,
		Data: payload,
		Kind: livekit.DataPacket_RELIABLE,
	}
	if topic != "" {
		req.Topic = &topic
	}
	if _, err := s.api.SendData(ctx, req); err != nil {
		return apperr.Provider("Failed to send data to room: %v", err)
	}
	return nil
}

func (s *Service) RoomStats(ctx context.Context, name string) (model.Stats, error) {
	room, err := s.GetRoom(ctx, name)
	if err != nil {
		return model.Stats{}, err
	}
	participants, err := s.ListParticipants(ctx, name)
	if err != nil {
		return model.Stats{}, err
	}
	return model.Stats{Room: room, Participants: participants, TotalParticipants: len(participants)}, nil
}

// IssueJoinToken signs a room-join token. Identity defaults to the participant name.
func (s *Service) IssueJoinToken(req model.TokenRequest) (string, error) {
	if s.cfg.APIKey == "" || s.cfg.APISecret == "" {
		return "", apperr.NotConfigured("LiveKit API credentials are not configured.")
	}
	if err := validation.Struct(req); err != nil {
		return "", err
	}

	grants := model.DefaultGrants()
	if req.Grants != nil {
		grants = *req.Grants
	}
	identity := req.Identity
	if identity == "" {
		identity = req.ParticipantName
	}

	grant := &auth.VideoGrant{RoomJoin: true, Room: req.RoomName}
	grant.SetCanPublish(grants.CanPublish)
	grant.SetCanSubscribe(grants.CanSubscribe)
	grant.SetCanPublishData(grants.CanPublishData)

	token, err := auth.NewAccessToken(s.cfg.APIKey, s.cfg.APISecret).
		SetIdentity(identity).
		SetName(req.ParticipantName).
		SetMetadata(req.Metadata).
		SetValidFor(s.cfg.TokenTTL).
		SetVideoGrant(grant).
		ToJWT()
	if err != nil {
		return "", apperr.Provider("Failed to create access token: %v", err)
	}
	return token, nil
}

// JoinRoom ensures the room exists and issues a token for it. When creation
// fails the room is read once more so a concurrent creator's room is used.
func (s *Service) JoinRoom(ctx context.Context, req model.JoinRequest) (model.JoinResult, error) {
	if err := validation.Struct(req); err != nil {
		return model.JoinResult{}, err
	}

	if _, err := s.GetRoom(ctx, req.RoomName); err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			return model.JoinResult{}, err
		}
		if _, createErr := s.CreateRoom(ctx, model.CreateRequest{Name: req.RoomName, Metadata: req.Metadata}); createErr != nil {
			if _, err := s.GetRoom(ctx, req.RoomName); err != nil {
				return model.JoinResult{}, createErr
			}
			log.Printf("[room] room=%s created concurrently, joining existing", req.RoomName)
		}
	}

	token, err := s.IssueJoinToken(model.TokenRequest{
		RoomName:        req.RoomName,
		ParticipantName: req.ParticipantName,
		Identity:        req.Identity,
		Metadata:        req.Metadata,
	})
	if err != nil {
		return model.JoinResult{}, err
	}
	return model.JoinResult{Token: token, URL: s.cfg.URL}, nil
}

// HandleEvent logs a provider webhook event.
func (s *Service) HandleEvent(_ context.Context, event *livekit.WebhookEvent) {
	roomName := event.GetRoom().GetName()
	identity := event.GetParticipant().GetIdentity()

	switch event.GetEvent() {
	case "room_started":
		log.Printf("[room] room %s started", roomName)
	case "room_finished":
		log.Printf("[room] room %s finished", roomName)
	case "participant_joined":
		log.Printf("[room] participant %s joined room %s", identity, roomName)
	case "participant_left":
		log.Printf("[room] participant %s left room %s", identity, roomName)
	case "track_published":
		log.Printf("[room] track published in room %s by %s", roomName, identity)
	case "track_unpublished":
		log.Printf("[room] track unpublished in room %s by %s", roomName, identity)
	default:
		log.Printf("[room] unknown webhook event %q", event.GetEvent())
	}
}

func toInfo(r *livekit.Room) model.Info {
	if r == nil {
		return model.Info{}
	}
	return model.Info{
		SID:              r.Sid,
		Name:             r.Name,
		Metadata:         r.Metadata,
		NumParticipants:  r.NumParticipants,
		MaxParticipants:  r.MaxParticipants,
		EmptyTimeout:     r.EmptyTimeout,
		DepartureTimeout: r.DepartureTimeout,
		CreationTime:     time.Unix(r.CreationTime, 0).UTC(),
	}
}
