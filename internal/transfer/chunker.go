package transfer

import (
	"encoding/binary"
	"fmt"

	"go.uber.org/zap"

	"github.com/openpanel/panellink/internal/logging"
	"github.com/openpanel/panellink/internal/protocol"
	"github.com/openpanel/panellink/internal/transport"
)

// File-transfer sub-protocol constants. This channel is structurally simpler
// than the command protocol: one-shot reports, no escaping, no checksum.
// Reliability is delegated to the transport.
const (
	// BlockMarker opens every file-transfer report after the report id
	BlockMarker = 0x5C

	// MaxBlockSize is the largest payload one block may carry
	MaxBlockSize = 1000

	// MaxBlocks is the largest block count the 2-byte count field can hold
	MaxBlocks = 65535

	// MaxTransferID is the highest valid transfer identifier
	MaxTransferID = 59

	// headerSize is the fixed metadata header:
	// id(1) + count(2) + index(2) + type(1) + reserved(14)
	headerSize = 20
)

// MediaType tags the content of a transfer so the firmware routes it to the
// right destination
type MediaType byte

const (
	MediaBackground  MediaType = 0x00 // real-time background image/video
	MediaOsd         MediaType = 0x01 // on-screen display overlay
	MediaPowerupLogo MediaType = 0x02 // logo shown at power-on
	MediaFirmware    MediaType = 0x03 // firmware upgrade image
	MediaSuspendSlot MediaType = 0x04 // suspend-mode media slot
)

// String returns a human-readable media type name
func (m MediaType) String() string {
	switch m {
	case MediaBackground:
		return "background"
	case MediaOsd:
		return "osd"
	case MediaPowerupLogo:
		return "powerup-logo"
	case MediaFirmware:
		return "firmware"
	case MediaSuspendSlot:
		return "suspend-slot"
	default:
		return fmt.Sprintf("unknown(0x%02x)", byte(m))
	}
}

// ProgressFunc is called after each block is written
type ProgressFunc func(blockIndex, totalBlocks int)

// BuildBlock constructs a single file-transfer report:
//
//	[0]      0x1F          Report ID (file-transfer channel)
//	[1]      0x5C          Block marker
//	[2-3]    length        headerSize + payload length, big-endian
//	[4]      transferID    Transfer identifier (0-59)
//	[5-6]    totalBlocks   Big-endian block count
//	[7-8]    blockIndex    Big-endian block index
//	[9]      mediaType
//	[10-23]  reserved      Zero-filled checksum area
//	[24+]    payload       Up to MaxBlockSize bytes
//
// Arguments are assumed validated by the caller; SendFile performs the range
// checks once per transfer.
func BuildBlock(transferID int, totalBlocks, blockIndex uint16, mediaType MediaType, payload []byte) []byte {
	block := make([]byte, 4+headerSize+len(payload))
	block[0] = protocol.ReportIDFileTransfer
	block[1] = BlockMarker
	binary.BigEndian.PutUint16(block[2:4], uint16(headerSize+len(payload)))
	block[4] = byte(transferID)
	binary.BigEndian.PutUint16(block[5:7], totalBlocks)
	binary.BigEndian.PutUint16(block[7:9], blockIndex)
	block[9] = byte(mediaType)
	// bytes 10-23 stay zero (reserved checksum area)
	copy(block[4+headerSize:], payload)
	return block
}

// SendFile splits data into blocks of at most blockSize bytes and writes one
// report per block, strictly in index order. Each write is synchronous; no
// per-block acknowledgement exists on this channel.
//
// transferID must be within [0, MaxTransferID] and blockSize within
// [1, MaxBlockSize]. Transfers that would exceed MaxBlocks blocks are
// rejected before anything is written.
func SendFile(t transport.Transport, data []byte, mediaType MediaType, transferID, blockSize int, onProgress ProgressFunc) error {
	if transferID < 0 || transferID > MaxTransferID {
		return protocol.NewValidationError(fmt.Sprintf("transfer id %d out of range [0, %d]", transferID, MaxTransferID))
	}
	if blockSize < 1 || blockSize > MaxBlockSize {
		return protocol.NewValidationError(fmt.Sprintf("block size %d out of range [1, %d]", blockSize, MaxBlockSize))
	}
	if len(data) == 0 {
		return protocol.NewValidationError("empty transfer")
	}

	totalBlocks := (len(data) + blockSize - 1) / blockSize
	if totalBlocks > MaxBlocks {
		return protocol.NewValidationError(fmt.Sprintf("file needs %d blocks, limit is %d", totalBlocks, MaxBlocks))
	}

	logging.Debug("File transfer started",
		zap.String("device", t.Path()),
		zap.Int("transfer_id", transferID),
		zap.String("media_type", mediaType.String()),
		zap.Int("size", len(data)),
		zap.Int("blocks", totalBlocks),
	)

	for index := 0; index < totalBlocks; index++ {
		start := index * blockSize
		end := start + blockSize
		if end > len(data) {
			end = len(data)
		}

		block := BuildBlock(transferID, uint16(totalBlocks), uint16(index), mediaType, data[start:end])
		if _, err := t.Write(block); err != nil {
			return fmt.Errorf("failed to write block %d/%d: %w", index, totalBlocks, err)
		}
		if onProgress != nil {
			onProgress(index, totalBlocks)
		}
	}

	logging.Debug("File transfer finished",
		zap.String("device", t.Path()),
		zap.Int("transfer_id", transferID),
		zap.Int("blocks", totalBlocks),
	)
	return nil
}
