package codec

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, s := range []string{"", "hello", "print(\"hello\")\r", "héllo wörld ✓", "tab\tsep"} {
		var c LineCodec
		c.Feed(Encode(nil, s))

		frame, err := c.Decode()
		require.NoError(t, err)
		require.Equal(t, s+"\n", frame)
		require.Zero(t, c.Pending())

		_, err = c.Decode()
		require.ErrorIs(t, err, ErrIncomplete)
	}
}

func TestDecode_SplitAcrossFeeds(t *testing.T) {
	var c LineCodec
	c.Feed([]byte("ab"))

	_, err := c.Decode()
	require.ErrorIs(t, err, ErrIncomplete)
	require.Equal(t, 2, c.Pending())

	c.Feed([]byte("c\n"))
	frame, err := c.Decode()
	require.NoError(t, err)
	require.Equal(t, "abc\n", frame)
}

func TestDecode_TwoFramesOneFeed(t *testing.T) {
	var c LineCodec
	c.Feed([]byte("a\nb\n"))

	frame, err := c.Decode()
	require.NoError(t, err)
	require.Equal(t, "a\n", frame)

	frame, err = c.Decode()
	require.NoError(t, err)
	require.Equal(t, "b\n", frame)

	_, err = c.Decode()
	require.ErrorIs(t, err, ErrIncomplete)
}

func TestDecode_EmptyLine(t *testing.T) {
	var c LineCodec
	c.Feed([]byte("\n"))

	frame, err := c.Decode()
	require.NoError(t, err)
	require.Equal(t, "\n", frame)
}

func TestDecode_InvalidEncoding(t *testing.T) {
	var c LineCodec
	c.Feed([]byte{'o', 'k', 0xff, 0xfe, '\n', 'n', 'e', 'x', 't', '\n'})

	frame, err := c.Decode()
	require.ErrorIs(t, err, ErrInvalidEncoding)
	require.Empty(t, frame)

	// The bad line is gone; only the following line remains buffered.
	require.Equal(t, 5, c.Pending())
}

func TestDecode_MultiByteRuneSplitAcrossFeeds(t *testing.T) {
	var c LineCodec
	euro := []byte("€\n")
	c.Feed(euro[:1])
	_, err := c.Decode()
	require.ErrorIs(t, err, ErrIncomplete)

	c.Feed(euro[1:])
	frame, err := c.Decode()
	require.NoError(t, err)
	require.Equal(t, "€\n", frame)
}

func TestEncodeCR(t *testing.T) {
	require.Equal(t, []byte("print(\"hello\")\r\n"), EncodeCR(nil, `print("hello")`))
	require.Equal(t, []byte("x:y\r\n"), EncodeCR([]byte("x:"), "y"))
}

func TestReader_FramesInOrder(t *testing.T) {
	src := iotest.OneByteReader(strings.NewReader("first\nsecond\r\n\nthird\n"))
	r := NewReader(src)

	var got []string
	for {
		frame, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, frame)
	}
	require.Equal(t, []string{"first\n", "second\r\n", "\n", "third\n"}, got)
}

func TestReader_TrailingData(t *testing.T) {
	r := NewReader(strings.NewReader("done\npartial"))

	frame, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, "done\n", frame)

	_, err = r.Next()
	require.ErrorIs(t, err, ErrTrailingData)
}

func TestReader_DrainsBeforeError(t *testing.T) {
	r := NewReader(iotest.DataErrReader(strings.NewReader("a\nb\n")))

	frame, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, "a\n", frame)

	frame, err = r.Next()
	require.NoError(t, err)
	require.Equal(t, "b\n", frame)

	_, err = r.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestReader_InvalidEncodingIsSticky(t *testing.T) {
	r := NewReader(strings.NewReader("\xff\nafter\n"))

	_, err := r.Next()
	require.ErrorIs(t, err, ErrInvalidEncoding)

	_, err = r.Next()
	require.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestReader_Resync(t *testing.T) {
	var skipped int
	r := NewReader(strings.NewReader("\xff\nafter\n"))
	r.Resync = true
	r.OnInvalid = func(err error) {
		require.ErrorIs(t, err, ErrInvalidEncoding)
		skipped++
	}

	frame, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, "after\n", frame)
	require.Equal(t, 1, skipped)
}
