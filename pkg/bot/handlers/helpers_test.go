package handlers

import (
	"context"
	"errors"
	"time"

	"karmabot/pkg/event"
	"karmabot/pkg/store"
	"karmabot/pkg/telegram"
)

var botUser = event.User{ID: 999, FirstName: "Karma", Username: "karma_bot", IsBot: true}

// stubSender records outbound traffic and serves canned chat members.
type stubSender struct {
	sent    []telegram.Outgoing
	nextID  int
	deleted []int
	members map[int64]telegram.Member
}

func newStubSender() *stubSender {
	return &stubSender{members: make(map[int64]telegram.Member)}
}

func (s *stubSender) SendMessage(_ context.Context, out telegram.Outgoing) (int, error) {
	s.sent = append(s.sent, out)
	s.nextID++
	return 1000 + s.nextID, nil
}

func (s *stubSender) PinMessage(context.Context, int64, int) error   { return nil }
func (s *stubSender) UnpinMessage(context.Context, int64, int) error { return nil }

func (s *stubSender) DeleteMessage(_ context.Context, _ int64, messageID int) error {
	s.deleted = append(s.deleted, messageID)
	return nil
}

func (s *stubSender) ChatMember(_ context.Context, _ int64, userID int64) (telegram.Member, error) {
	member, ok := s.members[userID]
	if !ok {
		return telegram.Member{}, errors.New("unknown member")
	}
	return member, nil
}

func (s *stubSender) lastText() string {
	if len(s.sent) == 0 {
		return ""
	}
	return s.sent[len(s.sent)-1].Text
}

// memRecords is an in-memory rating store.
type memRecords struct {
	records map[int64]store.Rating
}

func newMemRecords() *memRecords {
	return &memRecords{records: make(map[int64]store.Rating)}
}

func (m *memRecords) FindRating(_ context.Context, userID int64) (store.Rating, bool, error) {
	record, ok := m.records[userID]
	return record, ok, nil
}

func (m *memRecords) InsertRating(_ context.Context, record store.Rating) error {
	m.records[record.UserID] = record
	return nil
}

func (m *memRecords) ApplyRating(_ context.Context, userID int64, delta int64, achieved bool) error {
	record := m.records[userID]
	record.Score += delta
	if achieved {
		record.Achieved100 = true
	}
	m.records[userID] = record
	return nil
}

// memCache is an in-memory TTL cache with inspectable expiries.
type memCache struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newMemCache() *memCache {
	return &memCache{values: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (c *memCache) Get(_ context.Context, key string) (string, bool, error) {
	value, ok := c.values[key]
	return value, ok, nil
}

func (c *memCache) Set(_ context.Context, key, value string, expiry time.Duration) error {
	c.values[key] = value
	c.ttls[key] = expiry
	return nil
}

func (c *memCache) Del(_ context.Context, key string) error {
	delete(c.values, key)
	delete(c.ttls, key)
	return nil
}

func (c *memCache) TTL(_ context.Context, key string) (time.Duration, error) {
	return c.ttls[key], nil
}

func groupMessage(from event.User, text string) *event.ChatEvent {
	return &event.ChatEvent{
		MessageID: 100,
		ChatID:    10,
		Kind:      event.ChatGroup,
		From:      from,
		Text:      text,
		Time:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func replyMessage(from event.User, text string, target *event.ChatEvent) *event.ChatEvent {
	ev := groupMessage(from, text)
	ev.ReplyTo = target
	return ev
}

func groupCommand(from event.User, command string) *event.ChatEvent {
	text := "/" + command + "@" + botUser.Username
	ev := groupMessage(from, text)
	ev.Entities = []event.Entity{{Type: event.EntityBotCommand, Offset: 0, Length: len(text)}}
	return ev
}

func directCommand(from event.User, command string) *event.ChatEvent {
	ev := groupMessage(from, "/"+command)
	ev.Kind = event.ChatDirect
	ev.Entities = nil
	return ev
}
