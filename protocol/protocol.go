package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/mid0o/minesweeper/mines"
	"github.com/mid0o/minesweeper/players"
)

type MessageType byte

const (
	MoveCommand  MessageType = 0x01
	TextMessage  MessageType = 0x02
	Board        MessageType = 0x03
	StartGame    MessageType = 0x04
	CellUpdate   MessageType = 0x05
	RequestReset MessageType = 0x06
	GameEnd      MessageType = 0x07
	HintRequest  MessageType = 0x08
	HintResponse MessageType = 0x09
	TimeSync     MessageType = 0x0A

	RegisterPlayerRequest  MessageType = 0xC0
	RegisterPlayerResponse MessageType = 0xC1
	AuthRequest            MessageType = 0xC2
	AuthResponseMessage    MessageType = 0xC3

	HighScoresRequest  MessageType = 0xD0
	HighScoresResponse MessageType = 0xD1
)

type GameEndType byte

const (
	Win     GameEndType = 0x01
	Loss    GameEndType = 0x02
	Aborted GameEndType = 0x03
)

const (
	HeaderLength         = 6
	UpdateCellByteLength = 9
	SnapshotCellLength   = 10
)

var ErrInvalidPayloadSize = errors.New("invalid payload size")

type AuthPlayerParams struct {
	Name     string
	Password string
}

type AuthResponse struct {
	Success bool
	Player  *players.PlayerInfo
}

// ScoreEntry is one row of a high-score table as it travels on the wire.
type ScoreEntry struct {
	Player  string
	Seconds uint32
	Date    string
}

func checkAndDecodeLength(data []byte, message MessageType) (int, error) {
	if len(data) < HeaderLength {
		return 0, fmt.Errorf("Data too short to decode")
	}
	if MessageType(data[0]) != message {
		return 0, fmt.Errorf("Invalid message type E:%d R:%d", message, data[0])
	}
	payloadLength := int(binary.BigEndian.Uint32(data[2:6]))
	if payloadLength != len(data)-HeaderLength {
		return payloadLength, ErrInvalidPayloadSize
	}
	return payloadLength, nil
}

func intToBytes(i int) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(i))
	return buf
}

func bytesToInt(data []byte) int {
	return int(binary.BigEndian.Uint32(data))
}

func writeHeader(buf *bytes.Buffer, tp MessageType, payloadLength int) error {
	buf.WriteByte(byte(tp))
	// Reserved flags byte
	buf.WriteByte(0x00)
	if err := binary.Write(buf, binary.BigEndian, uint32(payloadLength)); err != nil {
		return fmt.Errorf("Failed to write length (%d)", payloadLength)
	}
	return nil
}

func writeStringWithLength(buf *bytes.Buffer, str string) error {
	if err := binary.Write(buf, binary.BigEndian, uint32(len(str))); err != nil {
		return err
	}
	_, err := buf.WriteString(str)
	return err
}

func readStringWithLength(r io.Reader) (string, error) {
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return "", err
	}
	strBytes := make([]byte, length)
	if _, err := io.ReadFull(r, strBytes); err != nil {
		return "", err
	}
	return string(strBytes), nil
}

// ReadFramedMessage reads one header-prefixed message, header included, so
// the result can be passed straight to a Decode function.
func ReadFramedMessage(r io.Reader) ([]byte, error) {
	header := make([]byte, HeaderLength)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	payloadLength := int(binary.BigEndian.Uint32(header[2:HeaderLength]))
	message := make([]byte, HeaderLength+payloadLength)
	copy(message[0:HeaderLength], header)
	if _, err := io.ReadFull(r, message[HeaderLength:]); err != nil {
		return nil, err
	}
	return message, nil
}

func EncodeMove(move mines.Move) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeHeader(&buf, MoveCommand, 9); err != nil {
		return nil, err
	}
	buf.WriteByte(byte(move.Type))
	buf.Write(intToBytes(move.X))
	buf.Write(intToBytes(move.Y))
	return buf.Bytes(), nil
}

func DecodeMove(data []byte) (*mines.Move, error) {
	length, err := checkAndDecodeLength(data, MoveCommand)
	if err != nil {
		return nil, err
	}
	if length != 9 {
		return nil, ErrInvalidPayloadSize
	}
	payload := data[HeaderLength:]
	return &mines.Move{
		Type: mines.MoveType(payload[0]),
		X:    bytesToInt(payload[1:5]),
		Y:    bytesToInt(payload[5:9]),
	}, nil
}

func EncodeTextMessage(message string) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeHeader(&buf, TextMessage, len(message)); err != nil {
		return nil, err
	}
	buf.WriteString(message)
	return buf.Bytes(), nil
}

func DecodeTextMessage(data []byte) (string, error) {
	if _, err := checkAndDecodeLength(data, TextMessage); err != nil {
		return "", err
	}
	return string(data[HeaderLength:]), nil
}

func EncodeGameStart(difficulty mines.Difficulty) ([]byte, error) {
	var buf bytes.Buffer
	payloadLength := 4 + len(difficulty.Name) + 4 + 4
	if err := writeHeader(&buf, StartGame, payloadLength); err != nil {
		return nil, err
	}
	if err := writeStringWithLength(&buf, difficulty.Name); err != nil {
		return nil, err
	}
	buf.Write(intToBytes(difficulty.Size))
	buf.Write(intToBytes(difficulty.Mines))
	return buf.Bytes(), nil
}

func DecodeGameStart(data []byte) (*mines.Difficulty, error) {
	if _, err := checkAndDecodeLength(data, StartGame); err != nil {
		return nil, err
	}
	buf := bytes.NewReader(data[HeaderLength:])
	name, err := readStringWithLength(buf)
	if err != nil {
		return nil, err
	}
	var size, mineCount uint32
	if err := binary.Read(buf, binary.BigEndian, &size); err != nil {
		return nil, err
	}
	if err := binary.Read(buf, binary.BigEndian, &mineCount); err != nil {
		return nil, err
	}
	return &mines.Difficulty{Name: name, Size: int(size), Mines: int(mineCount)}, nil
}

func EncodeRequestReset(keepLayout bool) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeHeader(&buf, RequestReset, 1); err != nil {
		return nil, err
	}
	var b byte
	if keepLayout {
		b = 1
	}
	buf.WriteByte(b)
	return buf.Bytes(), nil
}

func DecodeRequestReset(data []byte) (bool, error) {
	length, err := checkAndDecodeLength(data, RequestReset)
	if err != nil {
		return false, err
	}
	if length != 1 {
		return false, ErrInvalidPayloadSize
	}
	return data[HeaderLength] == 1, nil
}

func EncodeGameEnd(endType GameEndType, elapsed int) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeHeader(&buf, GameEnd, 5); err != nil {
		return nil, err
	}
	buf.WriteByte(byte(endType))
	buf.Write(intToBytes(elapsed))
	return buf.Bytes(), nil
}

func DecodeGameEnd(data []byte) (GameEndType, int, error) {
	length, err := checkAndDecodeLength(data, GameEnd)
	if err != nil {
		return 0, 0, err
	}
	if length != 5 {
		return 0, 0, ErrInvalidPayloadSize
	}
	payload := data[HeaderLength:]
	return GameEndType(payload[0]), bytesToInt(payload[1:5]), nil
}

func EncodeHintRequest() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeHeader(&buf, HintRequest, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeHintRequest(data []byte) error {
	_, err := checkAndDecodeLength(data, HintRequest)
	return err
}

func EncodeHintResponse(hint mines.Hint) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeHeader(&buf, HintResponse, 9); err != nil {
		return nil, err
	}
	buf.WriteByte(byte(hint.Kind))
	buf.Write(intToBytes(hint.X))
	buf.Write(intToBytes(hint.Y))
	return buf.Bytes(), nil
}

func DecodeHintResponse(data []byte) (*mines.Hint, error) {
	length, err := checkAndDecodeLength(data, HintResponse)
	if err != nil {
		return nil, err
	}
	if length != 9 {
		return nil, ErrInvalidPayloadSize
	}
	payload := data[HeaderLength:]
	return &mines.Hint{
		Kind: mines.HintKind(payload[0]),
		X:    bytesToInt(payload[1:5]),
		Y:    bytesToInt(payload[5:9]),
	}, nil
}

func EncodeTimeSync(elapsed int) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeHeader(&buf, TimeSync, 4); err != nil {
		return nil, err
	}
	buf.Write(intToBytes(elapsed))
	return buf.Bytes(), nil
}

func DecodeTimeSync(data []byte) (int, error) {
	length, err := checkAndDecodeLength(data, TimeSync)
	if err != nil {
		return 0, err
	}
	if length != 4 {
		return 0, ErrInvalidPayloadSize
	}
	return bytesToInt(data[HeaderLength:]), nil
}

func encodeCellUpdate(cell mines.UpdatedCell) []byte {
	data := make([]byte, UpdateCellByteLength)
	copy(data[0:4], intToBytes(cell.X))
	copy(data[4:8], intToBytes(cell.Y))
	data[8] = cell.Value
	return data
}

func EncodeCellUpdates(cells []mines.UpdatedCell) ([]byte, error) {
	var buf bytes.Buffer
	payloadLength := len(cells) * UpdateCellByteLength
	if err := writeHeader(&buf, CellUpdate, payloadLength); err != nil {
		return nil, err
	}
	for _, cell := range cells {
		buf.Write(encodeCellUpdate(cell))
	}
	return buf.Bytes(), nil
}

func DecodeCellUpdates(data []byte) ([]mines.UpdatedCell, error) {
	payloadLength, err := checkAndDecodeLength(data, CellUpdate)
	if err != nil {
		return nil, err
	}
	if payloadLength%UpdateCellByteLength != 0 {
		return nil, ErrInvalidPayloadSize
	}
	payload := data[HeaderLength:]
	cells := make([]mines.UpdatedCell, payloadLength/UpdateCellByteLength)
	for i := range cells {
		chunk := payload[i*UpdateCellByteLength : (i+1)*UpdateCellByteLength]
		cells[i] = mines.UpdatedCell{
			X:     bytesToInt(chunk[0:4]),
			Y:     bytesToInt(chunk[4:8]),
			Value: chunk[8],
		}
	}
	return cells, nil
}

const (
	mineFlag     byte = 0b0001
	revealedFlag byte = 0b0010
	flaggedFlag  byte = 0b0100
)

func encodeSnapshotCell(view mines.CellView) []byte {
	data := make([]byte, SnapshotCellLength)
	copy(data[0:4], intToBytes(view.X))
	copy(data[4:8], intToBytes(view.Y))
	var flags byte
	if view.Mine {
		flags |= mineFlag
	}
	if view.Revealed {
		flags |= revealedFlag
	}
	if view.Flagged {
		flags |= flaggedFlag
	}
	data[8] = flags
	data[9] = byte(view.Adjacent)
	return data
}

func decodeSnapshotCell(data []byte) (mines.CellView, error) {
	if len(data) != SnapshotCellLength {
		return mines.CellView{}, ErrInvalidPayloadSize
	}
	flags := data[8]
	return mines.CellView{
		X:        bytesToInt(data[0:4]),
		Y:        bytesToInt(data[4:8]),
		Mine:     flags&mineFlag != 0,
		Revealed: flags&revealedFlag != 0,
		Flagged:  flags&flaggedFlag != 0,
		Adjacent: int(data[9]),
	}, nil
}

// EncodeBoard serialises a full snapshot: counters first, then one fixed
// width record per cell.
func EncodeBoard(snapshot mines.Snapshot) ([]byte, error) {
	var boardBuf bytes.Buffer
	boardBuf.Write(intToBytes(snapshot.Size))
	boardBuf.Write(intToBytes(snapshot.Mines))
	boardBuf.WriteByte(byte(snapshot.Phase))
	boardBuf.Write(intToBytes(snapshot.Elapsed))
	boardBuf.Write(intToBytes(snapshot.Flags))
	boardBuf.Write(intToBytes(snapshot.HintsRemaining))
	for _, view := range snapshot.Cells {
		boardBuf.Write(encodeSnapshotCell(view))
	}
	var buf bytes.Buffer
	if err := writeHeader(&buf, Board, boardBuf.Len()); err != nil {
		return nil, err
	}
	buf.Write(boardBuf.Bytes())
	return buf.Bytes(), nil
}

func DecodeBoard(data []byte) (*mines.Snapshot, error) {
	if _, err := checkAndDecodeLength(data, Board); err != nil {
		return nil, err
	}
	payload := data[HeaderLength:]
	if len(payload) < 21 {
		return nil, fmt.Errorf("payload too short to contain board counters")
	}
	snapshot := &mines.Snapshot{
		Size:           bytesToInt(payload[0:4]),
		Mines:          bytesToInt(payload[4:8]),
		Phase:          mines.Phase(payload[8]),
		Elapsed:        bytesToInt(payload[9:13]),
		Flags:          bytesToInt(payload[13:17]),
		HintsRemaining: bytesToInt(payload[17:21]),
	}
	snapshot.RemainingMines = snapshot.Mines - snapshot.Flags
	cells := payload[21:]
	if len(cells)%SnapshotCellLength != 0 {
		return nil, ErrInvalidPayloadSize
	}
	if len(cells)/SnapshotCellLength != snapshot.Size*snapshot.Size {
		return nil, fmt.Errorf("Number of cells doesnt match board size")
	}
	snapshot.Cells = make([]mines.CellView, 0, snapshot.Size*snapshot.Size)
	for i := 0; i < len(cells); i += SnapshotCellLength {
		view, err := decodeSnapshotCell(cells[i : i+SnapshotCellLength])
		if err != nil {
			return nil, err
		}
		if view.X < 0 || view.X >= snapshot.Size || view.Y < 0 || view.Y >= snapshot.Size {
			return nil, fmt.Errorf("Cell position out of bounds: (%d, %d)", view.X, view.Y)
		}
		snapshot.Cells = append(snapshot.Cells, view)
	}
	return snapshot, nil
}

func encodeAuthPlayerParamsMessage(params AuthPlayerParams, tp MessageType) ([]byte, error) {
	payloadLength := 4 + len(params.Name) + len(params.Password)
	var buf bytes.Buffer
	if err := writeHeader(&buf, tp, payloadLength); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, uint32(len(params.Name))); err != nil {
		return nil, err
	}
	buf.WriteString(params.Name + params.Password)
	return buf.Bytes(), nil
}

func decodeAuthPlayerParams(data []byte, tp MessageType) (*AuthPlayerParams, error) {
	length, err := checkAndDecodeLength(data, tp)
	if err != nil {
		return nil, err
	}
	if length < 4 {
		return nil, ErrInvalidPayloadSize
	}
	payload := data[HeaderLength:]
	nameLen := bytesToInt(payload[0:4])
	if nameLen < 0 || 4+nameLen > len(payload) {
		return nil, ErrInvalidPayloadSize
	}
	return &AuthPlayerParams{
		Name:     string(payload[4 : 4+nameLen]),
		Password: string(payload[4+nameLen:]),
	}, nil
}

func EncodeRegisterPlayerRequest(params AuthPlayerParams) ([]byte, error) {
	return encodeAuthPlayerParamsMessage(params, RegisterPlayerRequest)
}

func DecodeRegisterPlayerRequest(data []byte) (*AuthPlayerParams, error) {
	return decodeAuthPlayerParams(data, RegisterPlayerRequest)
}

func EncodeAuthRequest(params AuthPlayerParams) ([]byte, error) {
	return encodeAuthPlayerParamsMessage(params, AuthRequest)
}

func DecodeAuthRequest(data []byte) (*AuthPlayerParams, error) {
	return decodeAuthPlayerParams(data, AuthRequest)
}

func EncodeRegisterPlayerResponse(success bool) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeHeader(&buf, RegisterPlayerResponse, 1); err != nil {
		return nil, err
	}
	var b byte
	if success {
		b = 1
	}
	buf.WriteByte(b)
	return buf.Bytes(), nil
}

func DecodeRegisterPlayerResponse(data []byte) (bool, error) {
	length, err := checkAndDecodeLength(data, RegisterPlayerResponse)
	if err != nil {
		return false, err
	}
	if length != 1 {
		return false, ErrInvalidPayloadSize
	}
	return data[HeaderLength] == 1, nil
}

func EncodeAuthResponse(response AuthResponse) ([]byte, error) {
	var buf bytes.Buffer
	if !response.Success {
		if err := writeHeader(&buf, AuthResponseMessage, 1); err != nil {
			return nil, err
		}
		buf.WriteByte(0)
		return buf.Bytes(), nil
	}
	if response.Player == nil {
		return nil, fmt.Errorf("player cannot be nil when success is true")
	}
	// Success + playerID + nameLen + name
	payloadLength := 1 + 4 + 4 + len(response.Player.Name)
	if err := writeHeader(&buf, AuthResponseMessage, payloadLength); err != nil {
		return nil, err
	}
	buf.WriteByte(1)
	if err := binary.Write(&buf, binary.BigEndian, response.Player.ID); err != nil {
		return nil, err
	}
	if err := writeStringWithLength(&buf, response.Player.Name); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeAuthResponse(data []byte) (*AuthResponse, error) {
	length, err := checkAndDecodeLength(data, AuthResponseMessage)
	if err != nil {
		return nil, err
	}
	if length == 0 {
		return nil, ErrInvalidPayloadSize
	}
	payload := data[HeaderLength:]
	if payload[0] != 1 {
		if length != 1 {
			return nil, ErrInvalidPayloadSize
		}
		return &AuthResponse{Success: false}, nil
	}
	// Success + id + nameLen + name (at least 1 char)
	if length < 1+4+4+1 {
		return nil, ErrInvalidPayloadSize
	}
	id := binary.BigEndian.Uint32(payload[1:5])
	nameLen := binary.BigEndian.Uint32(payload[5:9])
	if int(9+nameLen) > len(payload) {
		return nil, ErrInvalidPayloadSize
	}
	return &AuthResponse{
		Success: true,
		Player:  &players.PlayerInfo{ID: id, Name: string(payload[9 : 9+nameLen])},
	}, nil
}

func EncodeHighScoresRequest(difficulty string) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeHeader(&buf, HighScoresRequest, 4+len(difficulty)); err != nil {
		return nil, err
	}
	if err := writeStringWithLength(&buf, difficulty); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeHighScoresRequest(data []byte) (string, error) {
	if _, err := checkAndDecodeLength(data, HighScoresRequest); err != nil {
		return "", err
	}
	return readStringWithLength(bytes.NewReader(data[HeaderLength:]))
}

func EncodeHighScoresResponse(scores []ScoreEntry) ([]byte, error) {
	var payload bytes.Buffer
	if err := binary.Write(&payload, binary.BigEndian, uint32(len(scores))); err != nil {
		return nil, err
	}
	for _, score := range scores {
		if err := writeStringWithLength(&payload, score.Player); err != nil {
			return nil, err
		}
		if err := binary.Write(&payload, binary.BigEndian, score.Seconds); err != nil {
			return nil, err
		}
		if err := writeStringWithLength(&payload, score.Date); err != nil {
			return nil, err
		}
	}
	var buf bytes.Buffer
	if err := writeHeader(&buf, HighScoresResponse, payload.Len()); err != nil {
		return nil, err
	}
	buf.Write(payload.Bytes())
	return buf.Bytes(), nil
}

func DecodeHighScoresResponse(data []byte) ([]ScoreEntry, error) {
	if _, err := checkAndDecodeLength(data, HighScoresResponse); err != nil {
		return nil, err
	}
	buf := bytes.NewReader(data[HeaderLength:])
	var count uint32
	if err := binary.Read(buf, binary.BigEndian, &count); err != nil {
		return nil, err
	}
	scores := make([]ScoreEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		player, err := readStringWithLength(buf)
		if err != nil {
			return nil, err
		}
		var seconds uint32
		if err := binary.Read(buf, binary.BigEndian, &seconds); err != nil {
			return nil, err
		}
		date, err := readStringWithLength(buf)
		if err != nil {
			return nil, err
		}
		scores = append(scores, ScoreEntry{Player: player, Seconds: seconds, Date: date})
	}
	return scores, nil
}
