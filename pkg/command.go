package pkg

// Command and response bytes shared by hosts and devices.
const (
	CmdResend    byte = 0xFE // Retransmit the last byte
	CmdReset     byte = 0xFF // Reset and run the self test
	CmdEcho      byte = 0xEE // Reply with ResponseEcho
	ResponseAck  byte = 0xFA // Command accepted
	ResponseEcho byte = 0xEE
	ResponseBAT  byte = 0xAA // Self test passed
)
