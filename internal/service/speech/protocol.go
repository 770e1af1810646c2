package speech

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
)

// 火山引擎语音 websocket 二进制帧：4 字节头 + 可选 sequence / event 元数据 + payload。

const protocolVersion uint8 = 0b0001

// MessageType 帧类型
type MessageType uint8

const (
	FullClientRequest       MessageType = 0b0001
	AudioOnlyRequest        MessageType = 0b0010
	FullServerResponse      MessageType = 0b1001
	AudioOnlyServerResponse MessageType = 0b1011
	ErrorMessage            MessageType = 0b1111
)

// MessageFlags 帧标志位
type MessageFlags uint8

const (
	NoSequenceNumber       MessageFlags = 0b0000
	PositiveSequenceNumber MessageFlags = 0b0001
	LastPacketNoSequence   MessageFlags = 0b0010
	NegativeSequenceNumber MessageFlags = 0b0011
	WithEvent              MessageFlags = 0b0100

	sequenceMask MessageFlags = 0b0011
)

// EventType 服务端事件
type EventType int32

const (
	EventTypeNone               EventType = 0
	EventTypeStartConnection    EventType = 1
	EventTypeFinishConnection   EventType = 2
	EventTypeConnectionStarted  EventType = 50
	EventTypeConnectionFailed   EventType = 51
	EventTypeConnectionFinished EventType = 52
	EventTypeSessionStarted     EventType = 150
	EventTypeSessionFinished    EventType = 152
	EventTypeSessionFailed      EventType = 153
)

// SerializationMethod payload 序列化方式
type SerializationMethod uint8

const (
	NoSerialization   SerializationMethod = 0b0000
	JSONSerialization SerializationMethod = 0b0001
)

// CompressionMethod payload 压缩方式
type CompressionMethod uint8

const (
	NoCompression   CompressionMethod = 0b0000
	GzipCompression CompressionMethod = 0b0001
)

// Header 帧头
type Header struct {
	HeaderSize    uint8 // in 4-byte words
	MessageType   MessageType
	MessageFlags  MessageFlags
	Serialization SerializationMethod
	Compression   CompressionMethod
}

// Frame 一个完整的二进制帧
type Frame struct {
	Header    Header
	Sequence  int32
	EventType EventType
	SessionID string
	ConnectID string
	ErrorCode uint32
	Payload   []byte
}

// NewClientRequest 构造携带 JSON 参数的客户端请求帧。
func NewClientRequest(payload []byte, compression CompressionMethod) *Frame {
	return &Frame{
		Header: Header{
			HeaderSize:    1,
			MessageType:   FullClientRequest,
			MessageFlags:  NoSequenceNumber,
			Serialization: JSONSerialization,
			Compression:   compression,
		},
		Payload: payload,
	}
}

func (f *Frame) hasSequence() bool {
	switch f.Header.MessageFlags & sequenceMask {
	case PositiveSequenceNumber, NegativeSequenceNumber:
		return true
	}
	return false
}

func (f *Frame) hasEvent() bool {
	return f.Header.MessageFlags&WithEvent == WithEvent
}

// IsLast 表示服务端已发送最后一包。
func (f *Frame) IsLast() bool {
	switch f.Header.MessageFlags & sequenceMask {
	case LastPacketNoSequence, NegativeSequenceNumber:
		return true
	}
	return false
}

// Encode 将帧序列化为二进制。
func (f *Frame) Encode() []byte {
	var buf bytes.Buffer
	size := f.Header.HeaderSize
	if size == 0 {
		size = 1
	}

	buf.WriteByte(protocolVersion<<4 | size)
	buf.WriteByte(uint8(f.Header.MessageType)<<4 | uint8(f.Header.MessageFlags))
	buf.WriteByte(uint8(f.Header.Serialization)<<4 | uint8(f.Header.Compression))
	buf.WriteByte(0)
	buf.Write(make([]byte, int(size-1)*4))

	if f.hasSequence() {
		_ = binary.Write(&buf, binary.BigEndian, f.Sequence)
	}
	if f.hasEvent() {
		_ = binary.Write(&buf, binary.BigEndian, int32(f.EventType))
		if !eventSkipsSessionID(f.EventType) {
			writeSized(&buf, []byte(f.SessionID))
		}
		if eventHasConnectID(f.EventType) {
			writeSized(&buf, []byte(f.ConnectID))
		}
	}
	if f.Header.MessageType == ErrorMessage {
		_ = binary.Write(&buf, binary.BigEndian, f.ErrorCode)
	}
	writeSized(&buf, f.Payload)

	return buf.Bytes()
}

// DecodeFrame 从二进制数据解析帧。
func DecodeFrame(data []byte) (*Frame, error) {
	r := bytes.NewReader(data)

	head := make([]byte, 4)
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if version := head[0] >> 4; version != protocolVersion {
		return nil, fmt.Errorf("unsupported protocol version: %d", version)
	}

	f := &Frame{Header: Header{
		HeaderSize:    head[0] & 0x0F,
		MessageType:   MessageType(head[1] >> 4),
		MessageFlags:  MessageFlags(head[1] & 0x0F),
		Serialization: SerializationMethod(head[2] >> 4),
		Compression:   CompressionMethod(head[2] & 0x0F),
	}}

	if extra := int(f.Header.HeaderSize)*4 - 4; extra > 0 {
		if _, err := io.CopyN(io.Discard, r, int64(extra)); err != nil {
			return nil, fmt.Errorf("failed to read extended header: %w", err)
		}
	}

	if f.hasSequence() {
		if err := binary.Read(r, binary.BigEndian, &f.Sequence); err != nil {
			return nil, fmt.Errorf("failed to read sequence: %w", err)
		}
	}

	if f.hasEvent() {
		var event int32
		if err := binary.Read(r, binary.BigEndian, &event); err != nil {
			return nil, fmt.Errorf("failed to read event type: %w", err)
		}
		f.EventType = EventType(event)

		if !eventSkipsSessionID(f.EventType) {
			session, err := readSized(r)
			if err != nil {
				return nil, fmt.Errorf("failed to read session id: %w", err)
			}
			f.SessionID = string(session)
		}
		if eventHasConnectID(f.EventType) {
			connect, err := readSized(r)
			if err != nil {
				return nil, fmt.Errorf("failed to read connect id: %w", err)
			}
			f.ConnectID = string(connect)
		}
	}

	if f.Header.MessageType == ErrorMessage {
		if err := binary.Read(r, binary.BigEndian, &f.ErrorCode); err != nil {
			return nil, fmt.Errorf("failed to read error code: %w", err)
		}
	}

	payload, err := readSized(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	f.Payload = payload

	return f, nil
}

// PlainPayload 返回解压后的 payload。
func (f *Frame) PlainPayload() ([]byte, error) {
	switch f.Header.Compression {
	case NoCompression:
		return f.Payload, nil
	case GzipCompression:
		reader, err := gzip.NewReader(bytes.NewReader(f.Payload))
		if err != nil {
			return nil, fmt.Errorf("gzip reader creation failed: %w", err)
		}
		defer reader.Close()
		return io.ReadAll(reader)
	default:
		return nil, fmt.Errorf("unsupported compression method: %d", f.Header.Compression)
	}
}

// gzipBytes 用于构造压缩请求。
func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := gzip.NewWriter(&buf)
	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return nil, fmt.Errorf("gzip write failed: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("gzip close failed: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSized(buf *bytes.Buffer, data []byte) {
	_ = binary.Write(buf, binary.BigEndian, uint32(len(data)))
	buf.Write(data)
}

func readSized(r io.Reader) ([]byte, error) {
	var size uint32
	if err := binary.Read(r, binary.BigEndian, &size); err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, nil
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}

func eventSkipsSessionID(event EventType) bool {
	switch event {
	case EventTypeStartConnection, EventTypeFinishConnection,
		EventTypeConnectionStarted, EventTypeConnectionFailed, EventTypeConnectionFinished:
		return true
	}
	return false
}

func eventHasConnectID(event EventType) bool {
	switch event {
	case EventTypeConnectionStarted, EventTypeConnectionFailed, EventTypeConnectionFinished:
		return true
	}
	return false
}
