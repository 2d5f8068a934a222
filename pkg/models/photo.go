package models

import "strconv"

// Photo is a named image handed to the chat sink.
type Photo struct {
	Name string
	Data []byte
}

// Destination identifies a Telegram conversation (the chat ID).
type Destination int64

func (d Destination) String() string {
	return strconv.FormatInt(int64(d), 10)
}
