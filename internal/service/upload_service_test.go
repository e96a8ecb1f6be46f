package service

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type storageStub struct {
	name     string
	uploaded bytes.Buffer
}

func (s *storageStub) Store(_ context.Context, name string, reader io.Reader) (string, error) {
	s.name = name
	s.uploaded.Reset()
	if _, err := s.uploaded.ReadFrom(reader); err != nil {
		return "", err
	}
	return "https://cdn.example.com/" + name, nil
}

func buildFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {"form-data; name=\"file\"; filename=\"" + filename + "\""},
		"Content-Type":        {"application/octet-stream"},
	})
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	writer.Close()

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(int64(len(content) + 1024))
	require.NoError(t, err)
	files := form.File["file"]
	require.Len(t, files, 1)
	return files[0]
}

func buildZip(t *testing.T, name, content string) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := zip.NewWriter(buf)
	entry, err := writer.Create(name)
	require.NoError(t, err)
	_, err = entry.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return buf.Bytes()
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	storage := &storageStub{}
	svc := NewUploadService(storage, 1, zerolog.Nop())

	file := buildFileHeader(t, "handout.pdf", bytes.Repeat([]byte("a"), 2*1024*1024))

	_, err := svc.Upload(context.Background(), file)
	require.ErrorIs(t, err, ErrUploadTooLarge)
}

func TestUploadRejectsDisallowedType(t *testing.T) {
	storage := &storageStub{}
	svc := NewUploadService(storage, 5, zerolog.Nop())

	// An MP3 is not challenge handout material.
	audio := append([]byte("ID3"), bytes.Repeat([]byte{0}, 64)...)
	file := buildFileHeader(t, "song.mp3", audio)

	_, err := svc.Upload(context.Background(), file)
	require.ErrorIs(t, err, ErrUploadTypeNotAllowed)
}

func TestUploadRejectsCorruptArchive(t *testing.T) {
	storage := &storageStub{}
	svc := NewUploadService(storage, 5, zerolog.Nop())

	// Zip magic bytes followed by garbage fails the archive scan.
	corrupt := append([]byte{0x50, 0x4B, 0x03, 0x04}, bytes.Repeat([]byte{0xFF}, 64)...)
	file := buildFileHeader(t, "broken.zip", corrupt)

	_, err := svc.Upload(context.Background(), file)
	require.ErrorIs(t, err, ErrUploadScanFailed)
}

func TestUploadStoresArchive(t *testing.T) {
	storage := &storageStub{}
	svc := NewUploadService(storage, 5, zerolog.Nop())

	payload := buildZip(t, "exploit.c", "int main(void) { return 0; }")
	file := buildFileHeader(t, "Pwn Handout v2.zip", payload)

	resp, err := svc.Upload(context.Background(), file)
	require.NoError(t, err)
	require.Equal(t, "pwn-handout-v2.zip", resp.Name)
	require.Equal(t, int64(len(payload)), resp.Size)
	require.Contains(t, resp.URL, "pwn-handout-v2.zip")
	require.Equal(t, payload, storage.uploaded.Bytes())
}

func TestUploadSanitizesFileName(t *testing.T) {
	storage := &storageStub{}
	svc := NewUploadService(storage, 5, zerolog.Nop())

	file := buildFileHeader(t, "../../etc/passwd.txt", []byte("nothing to see here"))

	resp, err := svc.Upload(context.Background(), file)
	require.NoError(t, err)
	require.Equal(t, "passwd.txt", resp.Name)
	require.NotContains(t, storage.name, "/")
	require.NotContains(t, storage.name, "..")
}
