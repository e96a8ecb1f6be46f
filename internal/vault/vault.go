package vault

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrFlagUnavailable indicates the stored ciphertext could not be decrypted,
// typically because of corruption or a key change. Callers must treat the
// flag as unavailable rather than failing the request.
var ErrFlagUnavailable = errors.New("flag unavailable")

const (
	keySize = 32
	ivSize  = aes.BlockSize
)

// Vault performs symmetric encryption of challenge flags at rest using
// AES-256-CBC. Ciphertext and IV are exchanged as hex strings.
type Vault struct {
	key [keySize]byte
}

// New derives the vault key from configured key material. The material is
// read as hex (first 64 hex characters) and the result is truncated or
// zero-padded to exactly 32 bytes, mirroring how existing deployments derive
// the key. Empty material is rejected.
func New(keyMaterial string) (*Vault, error) {
	if keyMaterial == "" {
		return nil, errors.New("encryption key material must not be empty")
	}

	v := &Vault{}
	copy(v.key[:], deriveKeyBytes(keyMaterial))
	return v, nil
}

func deriveKeyBytes(material string) []byte {
	hexPrefix := leadingHex(material)
	if len(hexPrefix) > 2*keySize {
		hexPrefix = hexPrefix[:2*keySize]
	}
	if len(hexPrefix)%2 == 1 {
		hexPrefix = hexPrefix[:len(hexPrefix)-1]
	}

	if decoded, err := hex.DecodeString(hexPrefix); err == nil && len(decoded) > 0 {
		return decoded
	}

	// Non-hex material is used as raw bytes.
	raw := []byte(material)
	if len(raw) > keySize {
		raw = raw[:keySize]
	}
	return raw
}

func leadingHex(s string) string {
	for i := 0; i < len(s); i++ {
		c := s[i]
		isHex := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
		if !isHex {
			return s[:i]
		}
	}
	return s
}

// Encrypt encrypts the plaintext with a fresh random IV and returns the
// ciphertext and IV as hex strings.
func (v *Vault) Encrypt(plaintext string) (ciphertextHex, ivHex string, err error) {
	block, err := aes.NewCipher(v.key[:])
	if err != nil {
		return "", "", fmt.Errorf("failed to initialise cipher: %w", err)
	}

	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return "", "", fmt.Errorf("failed to generate iv: %w", err)
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return hex.EncodeToString(ciphertext), hex.EncodeToString(iv), nil
}

// Decrypt reverses Encrypt. Any malformed input, corrupt ciphertext or key
// mismatch yields ErrFlagUnavailable; the secret is never partially exposed.
func (v *Vault) Decrypt(ciphertextHex, ivHex string) (string, error) {
	ciphertext, err := hex.DecodeString(ciphertextHex)
	if err != nil {
		return "", ErrFlagUnavailable
	}

	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != ivSize {
		return "", ErrFlagUnavailable
	}

	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", ErrFlagUnavailable
	}

	block, err := aes.NewCipher(v.key[:])
	if err != nil {
		return "", ErrFlagUnavailable
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	unpadded, err := pkcs7Unpad(plaintext, aes.BlockSize)
	if err != nil {
		return "", ErrFlagUnavailable
	}

	return string(unpadded), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(padding)}, padding)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("invalid padded length")
	}

	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize {
		return nil, errors.New("invalid padding")
	}

	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, errors.New("invalid padding")
		}
	}

	return data[:len(data)-padding], nil
}
