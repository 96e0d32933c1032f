package piper

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"net"
	"strings"
	"testing"

	"github.com/nadzzz/fotiva/internal/config"
	"github.com/nadzzz/fotiva/internal/tts"
)

func TestEventRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	in := event{Type: "audio-chunk", Data: map[string]any{"rate": 16000}}
	if err := writeEvent(&buf, in, []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("writeEvent: %v", err)
	}
	if header := strings.SplitN(buf.String(), "\n", 2)[0]; !strings.HasSuffix(header, " 4") {
		t.Errorf("header = %q, want payload length 4", header)
	}

	out, payload, err := readEvent(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("readEvent: %v", err)
	}
	if out.Type != "audio-chunk" || intField(out.Data, "rate", 0) != 16000 {
		t.Errorf("event = %+v", out)
	}
	if !bytes.Equal(payload, []byte{1, 2, 3, 4}) {
		t.Errorf("payload = %v", payload)
	}
}

func TestReadEvent_BadHeader(t *testing.T) {
	_, _, err := readEvent(bufio.NewReader(strings.NewReader("garbage\n")))
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestPCMToWAV(t *testing.T) {
	pcm := make([]byte, 100)
	wav := pcmToWAV(pcm, 22050, 1, 2)
	if len(wav) != 144 {
		t.Fatalf("len = %d, want 144", len(wav))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" || string(wav[36:40]) != "data" {
		t.Errorf("bad chunk ids: %q", wav[:44])
	}
	if rate := binary.LittleEndian.Uint32(wav[24:28]); rate != 22050 {
		t.Errorf("sample rate = %d", rate)
	}
	if n := binary.LittleEndian.Uint32(wav[40:44]); n != 100 {
		t.Errorf("data len = %d", n)
	}
}

// fakePiper answers one synthesize request on conn.
func fakePiper(t *testing.T, conn net.Conn, voice *string) {
	t.Helper()
	defer conn.Close()
	r := bufio.NewReader(conn)
	req, _, err := readEvent(r)
	if err != nil {
		t.Errorf("server read: %v", err)
		return
	}
	if v, ok := req.Data["voice"].(map[string]any); ok {
		*voice, _ = v["name"].(string)
	}
	_ = writeEvent(conn, event{Type: "audio-start", Data: map[string]any{"rate": 16000, "width": 2, "channels": 1}}, nil)
	_ = writeEvent(conn, event{Type: "audio-chunk"}, []byte{0, 1, 0, 1})
	_ = writeEvent(conn, event{Type: "audio-stop"}, nil)
}

func TestSynthesize(t *testing.T) {
	client, server := net.Pipe()
	var voice string
	done := make(chan struct{})
	go func() {
		fakePiper(t, server, &voice)
		close(done)
	}()

	s := New(config.PiperConfig{Endpoint: "tcp://piper:10200"})
	s.dial = func(context.Context, string) (net.Conn, error) { return client, nil }

	speech, err := s.Synthesize(context.Background(), "Abrindo a galeria de fotos.", tts.Opts{})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	<-done

	if voice != DefaultVoice {
		t.Errorf("voice = %q", voice)
	}
	if speech.SampleRate != 16000 || speech.ContentType != "audio/wav" {
		t.Errorf("speech = %+v", speech)
	}
	if len(speech.Audio) != 44+4 {
		t.Errorf("audio len = %d", len(speech.Audio))
	}
}

func TestSynthesize_ServerError(t *testing.T) {
	client, server := net.Pipe()
	go func() {
		defer server.Close()
		r := bufio.NewReader(server)
		_, _, _ = readEvent(r)
		_ = writeEvent(server, event{Type: "error", Data: map[string]any{"text": "voice not found"}}, nil)
	}()

	s := New(config.PiperConfig{Endpoint: "piper:10200"})
	s.dial = func(context.Context, string) (net.Conn, error) { return client, nil }

	_, err := s.Synthesize(context.Background(), "oi", tts.Opts{})
	if err == nil || !strings.Contains(err.Error(), "voice not found") {
		t.Fatalf("err = %v", err)
	}
}
