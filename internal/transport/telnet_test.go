package transport

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanLineStripsTrailingCR(t *testing.T) {
	require.Equal(t, "look", cleanLine([]byte("look\r")))
}

func TestCleanLinePassesThroughValidUTF8(t *testing.T) {
	require.Equal(t, "héllo", cleanLine([]byte("héllo")))
}

func TestCleanLineDecodesLatin1Fallback(t *testing.T) {
	raw := []byte{0xe9} // é in ISO-8859-1, invalid standalone UTF-8
	require.Equal(t, "é", cleanLine(raw))
}

func TestReadLineStripsIACSequences(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	go func() {
		client.Write([]byte{'h', 'i'})
		client.Write([]byte{iac, will, 1})
		client.Write([]byte(" there\n"))
	}()

	conn := NewConn(server)
	line, err := conn.ReadLine()
	require.NoError(t, err)
	require.Equal(t, "hi there", line)
}

func TestReadLineSkipsSubnegotiationBlock(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	go func() {
		client.Write([]byte{iac, sb, 1, 2, 3, iac, se})
		client.Write([]byte("ok\n"))
	}()

	conn := NewConn(server)
	line, err := conn.ReadLine()
	require.NoError(t, err)
	require.Equal(t, "ok", line)
}

func TestWriteLineAppendsNewline(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	conn := NewConn(server)
	go func() {
		conn.WriteLine("hello")
	}()

	buf := make([]byte, 6)
	_, err := client.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "hello\n", string(buf))
}
