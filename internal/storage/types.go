package storage

import (
	"encoding"
	"encoding/binary"

	"github.com/vmihailenco/msgpack/v5"
)

type Storeable interface {
	Key() []byte
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

type DBMessage struct {
	ID         int64  `msgpack:"id"`
	RoomKey    string `msgpack:"roomKey"`
	StreamID   string `msgpack:"streamId"`
	AuthorID   string `msgpack:"authorId"`
	AuthorName string `msgpack:"authorName"`
	Content    string `msgpack:"content"`
	CreatedAt  int64  `msgpack:"createdAt"`
	EditedAt   int64  `msgpack:"editedAt"`
}

// Key is the message id big-endian encoded, so a bucket cursor walks
// messages in creation order.
func (m *DBMessage) Key() []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(m.ID))
	return key
}

func (m *DBMessage) MarshalBinary() (data []byte, err error) {
	type alias DBMessage
	return msgpack.Marshal((*alias)(m))
}

func (m *DBMessage) UnmarshalBinary(data []byte) error {
	type alias DBMessage
	return msgpack.Unmarshal(data, (*alias)(m))
}
