package realtime

import "encoding/json"

// Server to client event names.
const (
	EventOnlineUsers = "getOnlineUsers"
	EventNewMessage  = "newMessage"
)

// Event is the envelope written to every live connection.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

func encodeEvent(name string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Event{Name: name, Data: raw})
}
