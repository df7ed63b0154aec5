package relay

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestDispatch(t *testing.T) {
	tests := []struct {
		name    string
		event   string
		data    string
		want    any
		wantErr error
	}{
		{
			name:  "message with username",
			event: EventMessage,
			data:  `{"message":"hi","username":"Ann"}`,
			want:  &MessageAck{Status: "sent", Timestamp: fixedStamp},
		},
		{
			name:  "set-username takes a bare string",
			event: EventSetUsername,
			data:  `"Bob"`,
			want:  SetUsernameAck{Success: true, Username: strPtr("Bob")},
		},
		{
			name:  "get-users ignores its payload",
			event: EventGetUsers,
			data:  `"whatever"`,
			want:  UsersAck{Users: []UserInfo{{ID: "c1", Username: "c1"}}, Count: 1},
		},
		{
			name:  "get-users without payload",
			event: EventGetUsers,
			want:  UsersAck{Users: []UserInfo{{ID: "c1", Username: "c1"}}, Count: 1},
		},
		{
			name:    "unknown event",
			event:   "join-room",
			data:    `{}`,
			wantErr: ErrUnknownEvent,
		},
		{
			name:    "message payload of the wrong type",
			event:   EventMessage,
			data:    `"just a string"`,
			wantErr: ErrBadPayload,
		},
		{
			name:    "message without payload",
			event:   EventMessage,
			wantErr: ErrBadPayload,
		},
		{
			name:    "set-username with an object",
			event:   EventSetUsername,
			data:    `{"username":"Bob"}`,
			wantErr: ErrBadPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			relay, reg, transport := newMockedRelay(t)
			req.NoError(reg.Insert("c1", nil))
			transport.EXPECT().BroadcastExcept(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
			transport.EXPECT().BroadcastAll(gomock.Any(), gomock.Any()).AnyTimes()

			var raw json.RawMessage
			if tt.data != "" {
				raw = json.RawMessage(tt.data)
			}

			got, err := relay.Dispatch("c1", tt.event, raw)

			if tt.wantErr != nil {
				req.ErrorIs(err, tt.wantErr)
				req.Nil(got)
				return
			}
			req.NoError(err)
			req.Equal(tt.want, got)
		})
	}
}

func TestDispatch_Unknown_Sender_Message_Has_No_Reply(t *testing.T) {
	req := require.New(t)
	relay, _, _ := newMockedRelay(t)

	got, err := relay.Dispatch("ghost", EventMessage, json.RawMessage(`{"message":"hi"}`))

	req.ErrorIs(err, ErrUnknownSender)
	req.Nil(got)
}

func TestDispatch_Unknown_Sender_Rename_Replies_Failure(t *testing.T) {
	req := require.New(t)
	relay, _, _ := newMockedRelay(t)

	got, err := relay.Dispatch("ghost", EventSetUsername, json.RawMessage(`"Bob"`))
	req.NoError(err)

	encoded, err := json.Marshal(got)
	req.NoError(err)
	req.JSONEq(`{"success":false,"error":"Client not found"}`, string(encoded))
}

func TestReplies_Wire_Shape(t *testing.T) {
	req := require.New(t)

	encoded, err := json.Marshal(SetUsernameAck{Success: true, Username: strPtr("")})
	req.NoError(err)
	req.JSONEq(`{"success":true,"username":""}`, string(encoded))

	encoded, err = json.Marshal(UsersAck{Users: []UserInfo{}, Count: 0})
	req.NoError(err)
	req.JSONEq(`{"users":[],"count":0}`, string(encoded))
}

func TestBroadcastDeliveredExactlyOnceProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("a message reaches every other client once and never its sender", prop.ForAll(
		func(numClients int, senderIdx int, text string) bool {
			relay, _, transport := newRecordedRelay()
			ids := make([]string, numClients)
			for i := range ids {
				ids[i] = fmt.Sprintf("client-%d", i)
				if err := relay.OnConnect(ids[i], nil); err != nil {
					return false
				}
			}
			transport.reset()

			sender := ids[senderIdx%numClients]
			ack, err := relay.OnMessage(sender, MessageIn{Message: text})
			if err != nil || ack.Status != "sent" {
				return false
			}

			for _, id := range ids {
				got := lo.Filter(transport.received(id), func(d delivery, _ int) bool {
					return d.Event == EventMessage
				})
				if id == sender {
					if len(got) != 0 {
						return false
					}
					continue
				}
				if len(got) != 1 {
					return false
				}
				msg, ok := got[0].Payload.(ChatMessage)
				if !ok || msg.ID != sender || msg.Username != sender || msg.Message != text {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 10),
		gen.IntRange(0, 9),
		gen.AnyString(),
	))

	properties.Property("get-users count equals registry size without duplicates", prop.ForAll(
		func(connects int, disconnects int) bool {
			relay, reg, _ := newRecordedRelay()
			for i := 0; i < connects; i++ {
				_ = relay.OnConnect(fmt.Sprintf("c%d", i), nil)
			}
			for i := 0; i < disconnects; i++ {
				relay.OnDisconnect(fmt.Sprintf("c%d", i))
			}

			users := relay.OnGetUsers("c0")
			ids := lo.Map(users.Users, func(u UserInfo, _ int) string { return u.ID })
			return users.Count == reg.Size() &&
				len(lo.Uniq(ids)) == len(ids) &&
				reg.Size() == max(connects-disconnects, 0)
		},
		gen.IntRange(0, 15),
		gen.IntRange(0, 20),
	))

	properties.TestingRun(t)
}
