// Package protocol implements the rangectl WebSocket message format.
//
// Every message is a single JSON object sent as a WebSocket text frame:
//
//	{"type":"command","id":"6f1c...","device":"lounge","value":60}
//
// # Message Types
//
//   - subscribe: client asks for state updates of a device. The backend
//     answers with an immediate state message.
//   - command: client sets a device value. Always carries a value.
//   - state: backend reports a device value. A missing value means the
//     backend does not know it yet.
//   - ack: backend accepted the command whose id it repeats.
//   - error: backend rejected the request whose id it repeats.
//
// IDs are random UUIDs generated by the sender of a request. Replies reuse
// the request ID so the client can match them.
//
// # Usage Example
//
//	msg := protocol.NewCommand("lounge", 60)
//	data, err := protocol.Encode(msg)
//	if err != nil {
//	    return err
//	}
//	conn.WriteMessage(websocket.TextMessage, data)
//
//	reply, err := protocol.Decode(frame)
//	if err != nil {
//	    return err
//	}
//	if reply.Type == protocol.TypeAck && reply.ID == msg.ID {
//	    // committed
//	}
package protocol
