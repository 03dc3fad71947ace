// Package transfer implements the chunked file-transfer sub-protocol.
//
// Media files (background images, OSD overlays, powerup logos, firmware
// images, suspend-slot media) are pushed to the panel as a sequence of
// bounded blocks on a dedicated report channel. Each block carries a 20-byte
// metadata header (transfer id, total block count, block index, media type,
// reserved checksum area) behind a 0x5C marker and a big-endian length.
//
// Unlike the command channel, this sub-protocol uses no byte escaping and no
// checksum, and blocks are not individually acknowledged; the device
// confirms the whole file through the "transported" command that the session
// workflow sends after the final block.
//
// Blocks are written strictly in index order, one HID report per block.
package transfer
