package storage

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/annel0/brawl-replay/internal/logging"
)

const (
	MagicHeader string = `BRPL` // 4 байта
	Version1    uint32 = 1
)

// ArchiveHeader заголовок закодированного архива
type ArchiveHeader struct {
	Magic       [4]byte // 4 байта
	Version     uint32  // 4 байта
	Seed        int64   // 8 байт
	CreatedAt   int64   // 8 байт, unix nano
	RecordCount int32   // 4 байта
}

// Codec кодирует архив: бинарный заголовок + zstd(JSON).
// Экземпляр безопасен для конкурентного использования.
type Codec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewCodec создаёт кодек с уровнем сжатия по умолчанию
func NewCodec() (*Codec, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("ошибка создания zstd decoder: %w", err)
	}
	return &Codec{encoder: encoder, decoder: decoder}, nil
}

// MustNewCodec как NewCodec, но паникует при ошибке
func MustNewCodec() *Codec {
	c, err := NewCodec()
	if err != nil {
		panic(err)
	}
	return c
}

// Encode сериализует архив
func (c *Codec) Encode(a *Archive) ([]byte, error) {
	body, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации архива %s: %w", a.ID, err)
	}

	header := ArchiveHeader{
		Version:     Version1,
		Seed:        a.Seed,
		CreatedAt:   a.CreatedAt.UnixNano(),
		RecordCount: int32(len(a.Records)),
	}
	copy(header.Magic[:], MagicHeader)

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	buf.Write(c.encoder.EncodeAll(body, nil))
	return buf.Bytes(), nil
}

// Decode разбирает архив и сверяет заголовок с телом
func (c *Codec) Decode(data []byte) (*Archive, error) {
	r := bytes.NewReader(data)
	header, err := readHeader(r)
	if err != nil {
		logging.GetStorageLogger().Debug("Отклонён заголовок архива (%d байт):\n%s", len(data), logging.HexDump(data))
		return nil, err
	}

	compressed, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	body, err := c.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: ошибка распаковки: %v", ErrInvalidArchive, err)
	}

	var a Archive
	if err := json.Unmarshal(body, &a); err != nil {
		return nil, fmt.Errorf("%w: ошибка разбора: %v", ErrInvalidArchive, err)
	}
	if a.Seed != header.Seed || int32(len(a.Records)) != header.RecordCount {
		return nil, fmt.Errorf("%w: заголовок не совпадает с содержимым", ErrInvalidArchive)
	}
	return &a, nil
}

// PeekHeader читает только заголовок (для списков без распаковки)
func PeekHeader(data []byte) (ArchiveHeader, error) {
	return readHeader(bytes.NewReader(data))
}

func readHeader(r io.Reader) (ArchiveHeader, error) {
	var header ArchiveHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return header, fmt.Errorf("%w: ошибка чтения заголовка: %v", ErrInvalidArchive, err)
	}
	if string(header.Magic[:]) != MagicHeader {
		return header, fmt.Errorf("%w: неверная сигнатура %q", ErrInvalidArchive, header.Magic[:])
	}
	if header.Version != Version1 {
		return header, fmt.Errorf("%w: неподдерживаемая версия %d", ErrInvalidArchive, header.Version)
	}
	return header, nil
}
