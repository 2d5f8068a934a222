package models

// Snapshot is one JPEG frame fetched from GET /jpeg/{group}/{mid}/s.jpg.
type Snapshot struct {
	MonitorID string
	Data      []byte
}

// Size returns the number of bytes in the image.
func (s Snapshot) Size() int {
	return len(s.Data)
}

// Photo converts the snapshot into a named upload for the chat sink.
func (s Snapshot) Photo() Photo {
	return Photo{Name: s.MonitorID + ".jpg", Data: s.Data}
}
