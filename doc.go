// Package serial opens a Linux serial device for an interactive terminal
// session and hands it out as two independently owned halves.
//
// The port is configured raw, 8 data bits, no parity, one stop bit, and no
// hardware or software flow control. By default it is opened non-exclusive
// so another program may share the tty.
//
// Features:
//   - Raw syscall-based serial I/O on Linux, no buffering delays
//   - Killable reads: Close wakes a blocked Read through a self-pipe
//   - Split into a ReadHalf and a WriteHalf with one owner each
//   - PTY-based tests for reliability
//
// Framing is not done here; see the codec package for newline framing and
// the session package for the event loop that drives both halves.
//
// This package does **not** support Windows.
//
// Example usage:
//
//	port, err := serial.Open(serial.Config{
//	    Device:   "/dev/ttyUSB0",
//	    BaudRate: 115200,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	rx, tx := port.Split()
//	go io.Copy(os.Stdout, rx)
//	tx.Write([]byte("print(\"hello\")\r\n"))
package serial
