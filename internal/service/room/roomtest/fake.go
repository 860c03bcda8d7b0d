// Package roomtest provides an in-memory LiveKit room API for tests.
package roomtest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/livekit/protocol/livekit"
)

// FakeAPI keeps rooms in memory. FailCreate makes CreateRoom fail after
// optionally registering the room, mimicking a concurrent creator.
type FakeAPI struct {
	mu           sync.Mutex
	rooms        map[string]*livekit.Room
	participants map[string][]*livekit.ParticipantInfo

	FailCreate    error
	CreateAnyway  bool
	CreateCalls   int
	Sent          []*livekit.SendDataRequest
	RemovedPeople []string
}

func NewFakeAPI() *FakeAPI {
	return &FakeAPI{
		rooms:        map[string]*livekit.Room{},
		participants: map[string][]*livekit.ParticipantInfo{},
	}
}

// AddParticipant registers a participant in room.
func (f *FakeAPI) AddParticipant(room, identity string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.participants[room] = append(f.participants[room], &livekit.ParticipantInfo{
		Sid:      "PA_" + identity,
		Identity: identity,
		Name:     identity,
		State:    livekit.ParticipantInfo_ACTIVE,
		JoinedAt: time.Now().Unix(),
	})
	if r, ok := f.rooms[room]; ok {
		r.NumParticipants++
	}
}

func (f *FakeAPI) CreateRoom(_ context.Context, req *livekit.CreateRoomRequest) (*livekit.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreateCalls++
	if f.FailCreate != nil {
		if f.CreateAnyway {
			f.rooms[req.Name] = &livekit.Room{Sid: "RM_" + req.Name, Name: req.Name, Metadata: req.Metadata}
		}
		return nil, f.FailCreate
	}
	if existing, ok := f.rooms[req.Name]; ok {
		return existing, nil
	}
	room := &livekit.Room{
		Sid:              "RM_" + req.Name,
		Name:             req.Name,
		Metadata:         req.Metadata,
		EmptyTimeout:     req.EmptyTimeout,
		DepartureTimeout: req.DepartureTimeout,
		MaxParticipants:  req.MaxParticipants,
		CreationTime:     time.Now().Unix(),
	}
	f.rooms[req.Name] = room
	return room, nil
}

func (f *FakeAPI) ListRooms(_ context.Context, req *livekit.ListRoomsRequest) (*livekit.ListRoomsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	resp := &livekit.ListRoomsResponse{}
	for _, r := range f.rooms {
		resp.Rooms = append(resp.Rooms, r)
	}
	return resp, nil
}

func (f *FakeAPI) DeleteRoom(_ context.Context, req *livekit.DeleteRoomRequest) (*livekit.DeleteRoomResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rooms[req.Room]; !ok {
		return nil, errors.New("twirp error not_found: requested room does not exist")
	}
	delete(f.rooms, req.Room)
	delete(f.participants, req.Room)
	return &livekit.DeleteRoomResponse{}, nil
}

func (f *FakeAPI) ListParticipants(_ context.Context, req *livekit.ListParticipantsRequest) (*livekit.ListParticipantsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &livekit.ListParticipantsResponse{Participants: f.participants[req.Room]}, nil
}

func (f *FakeAPI) RemoveParticipant(_ context.Context, req *livekit.RoomParticipantIdentity) (*livekit.RemoveParticipantResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.participants[req.Room][:0]
	found := false
	for _, p := range f.participants[req.Room] {
		if p.Identity == req.Identity {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return nil, errors.New("twirp error not_found: participant not found")
	}
	f.participants[req.Room] = kept
	f.RemovedPeople = append(f.RemovedPeople, req.Identity)
	return &livekit.RemoveParticipantResponse{}, nil
}

func (f *FakeAPI) UpdateRoomMetadata(_ context.Context, req *livekit.UpdateRoomMetadataRequest) (*livekit.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rooms[req.Room]
	if !ok {
		return nil, errors.New("twirp error not_found: requested room does not exist")
	}
	r.Metadata = req.Metadata
	return r, nil
}

func (f *FakeAPI) SendData(_ context.Context, req *livekit.SendDataRequest) (*livekit.SendDataResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sent = append(f.Sent, req)
	return &livekit.SendDataResponse{}, nil
}

// SentCount returns how many data packets were published.
func (f *FakeAPI) SentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Sent)
}
