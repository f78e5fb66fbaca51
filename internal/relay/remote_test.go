package relay

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/muurk/froeling/internal/protocol"
)

func TestParseResponseLine(t *testing.T) {
	got, err := parseResponseLine("0102")
	if err != nil || !bytes.Equal(got, []byte{0x01, 0x02}) {
		t.Errorf("parseResponseLine(0102) = % x, %v", got, err)
	}

	got, err = parseResponseLine("")
	if err != nil || len(got) != 0 {
		t.Errorf("parseResponseLine(empty) = % x, %v; want empty payload", got, err)
	}

	_, err = parseResponseLine("!WrongChecksum: expected checksum F2, received 03")
	var rerr *RemoteError
	if !errors.As(err, &rerr) {
		t.Fatalf("error = %v, want *RemoteError", err)
	}
	if rerr.ID != "WrongChecksum" || rerr.Message != "expected checksum F2, received 03" {
		t.Errorf("RemoteError = %+v", rerr)
	}

	if _, err := parseResponseLine("zz"); err == nil {
		t.Error("malformed line should fail")
	}
}

func TestRemote_AgainstRelay(t *testing.T) {
	ex := execFunc(func(command byte, params []byte) ([]byte, error) {
		if command == 0x01 {
			return nil, &protocol.Error{Kind: protocol.KindNoResponse}
		}
		return append([]byte{command}, params...), nil
	})
	_, addr := startRelay(t, ex, Config{})

	remote, err := Dial(context.Background(), addr, ioTimeout)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer remote.Close()

	got, err := remote.Execute(0x30, []byte{0x00, 0x5d})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !bytes.Equal(got, []byte{0x30, 0x00, 0x5d}) {
		t.Errorf("Execute() = % x", got)
	}

	_, err = remote.Execute(0x01, nil)
	if err == nil || err.Error() != "NoResponse: no response from boiler" {
		t.Errorf("Execute() error = %v, want the relay's error line", err)
	}
}

func TestDial_Refused(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := Dial(ctx, "127.0.0.1:1", time.Second); err == nil {
		t.Error("Dial() to a closed port should fail")
	}
}
