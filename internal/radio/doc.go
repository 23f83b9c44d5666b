// Package radio talks to the RFM69 transceiver.
//
// The transceiver is an RFM69 module behind a small co-processor, reached
// over USB serial or a WebSocket. Host and co-processor exchange framed
// packets:
//
//	START(0x7E) | stuff(len | type | CBOR payload | CRC16) | END(0x7F)
//
// Bytes 0x7E, 0x7F and 0x7D inside a packet are sent as 0x7D followed by
// the byte XOR 0x20. The CRC is CRC-16-CCITT (poly 0x1021, init 0xFFFF)
// over the unstuffed body, big-endian.
//
// Link implements the operations the bridge needs (ReceiveReady, Read,
// SendWithRetry, SendAck, Reinitialize) on top of any io.ReadWriteCloser.
// Sim implements the same operations in memory.
//
//	port, err := radio.OpenSerial("/dev/ttyUSB0", 115200)
//	if err != nil {
//	    return err
//	}
//	link := radio.NewLink(port, radio.LinkOptions{Logger: log})
//	defer link.Close()
package radio
