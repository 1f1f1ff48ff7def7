package telegram

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestImageFilePhoto(t *testing.T) {
	msg := &Message{Photo: []PhotoSize{
		{FileID: "small", Width: 90, Height: 90, FileSize: 1000},
		{FileID: "large", Width: 1280, Height: 960, FileSize: 200_000},
	}}
	ref, err := msg.ImageFile()
	if err != nil {
		t.Fatalf("ImageFile returned error: %v", err)
	}
	if ref.FileID != "large" {
		t.Fatalf("ImageFile picked %q, want the largest rendition", ref.FileID)
	}
	if !ref.Compress {
		t.Fatal("photos must be marked for compression")
	}
}

func TestImageFileLimits(t *testing.T) {
	cases := []struct {
		name string
		msg  *Message
		want error
	}{
		{
			name: "photo too many bytes",
			msg:  &Message{Photo: []PhotoSize{{FileID: "p", Width: 100, Height: 100, FileSize: 20_000_000}}},
			want: ErrTooBig,
		},
		{
			name: "photo too wide",
			msg:  &Message{Photo: []PhotoSize{{FileID: "p", Width: 3500, Height: 100, FileSize: 1000}}},
			want: ErrTooBig,
		},
		{
			name: "document wrong mime",
			msg:  &Message{Document: &Document{FileID: "d", MimeType: "application/pdf", FileSize: 1000}},
			want: ErrInvalidFormat,
		},
		{
			name: "document too big",
			msg:  &Message{Document: &Document{FileID: "d", MimeType: "image/png", FileSize: 20_000_000}},
			want: ErrTooBig,
		},
		{
			name: "no payload",
			msg:  &Message{Text: "hello"},
			want: ErrNoFile,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.msg.ImageFile(); !errors.Is(err, tc.want) {
				t.Fatalf("ImageFile error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestImageFileDocument(t *testing.T) {
	msg := &Message{Document: &Document{FileID: "doc", MimeType: "image/jpeg", FileSize: 5_000_000}}
	ref, err := msg.ImageFile()
	if err != nil {
		t.Fatalf("ImageFile returned error: %v", err)
	}
	if ref.Compress {
		t.Fatal("documents must not be marked for compression")
	}
}

func TestKeyboardMarshal(t *testing.T) {
	kb := Keyboard{
		{{Data: "num_iter=6", Label: "+1"}, {Data: "num_iter=4", Label: "-1"}},
		{{Data: "preserve_color=True", Label: "toggle"}},
	}
	raw, err := json.Marshal(kb)
	if err != nil {
		t.Fatalf("marshal keyboard: %v", err)
	}
	want := `{"inline_keyboard":[[{"text":"+1","callback_data":"num_iter=6"},{"text":"-1","callback_data":"num_iter=4"}],[{"text":"toggle","callback_data":"preserve_color=True"}]]}`
	if string(raw) != want {
		t.Fatalf("keyboard JSON mismatch:\n got %s\nwant %s", raw, want)
	}
}

func TestUpdateChatID(t *testing.T) {
	var u Update
	if err := json.Unmarshal([]byte(`{"update_id":1,"callback_query":{"id":"cb1","data":"style_weight=1.5","message":{"message_id":7,"chat":{"id":42,"type":"private"}}}}`), &u); err != nil {
		t.Fatalf("unmarshal update: %v", err)
	}
	id, ok := u.ChatID()
	if !ok || id != 42 {
		t.Fatalf("ChatID = %d, %v; want 42, true", id, ok)
	}
}
