// ABOUTME: Decryption of enc:-prefixed configuration values
// ABOUTME: AES-256-CBC with an IV-prepended payload and a PBKDF2-stretched key

package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const encPrefix = "enc:"

// pbkdf2Iterations matches the parameters the encryption tooling uses.
const pbkdf2Iterations = 100000

var pbkdf2Salt = []byte("courier-config-v1")

// DecryptValue decrypts an "enc:"-prefixed configuration value. The payload
// is base64-encoded AES-256-CBC ciphertext with the 16-byte IV prepended.
func DecryptValue(value, key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("COURIER_KEY is not set")
	}

	payload, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, encPrefix))
	if err != nil {
		return "", fmt.Errorf("decoding payload: %w", err)
	}
	if len(payload) < aes.BlockSize || len(payload)%aes.BlockSize != 0 {
		return "", fmt.Errorf("payload length %d is not a positive multiple of the block size", len(payload))
	}

	block, err := aes.NewCipher(deriveKey(key))
	if err != nil {
		return "", fmt.Errorf("initializing cipher: %w", err)
	}

	iv, ciphertext := payload[:aes.BlockSize], payload[aes.BlockSize:]
	if len(ciphertext) == 0 {
		return "", fmt.Errorf("payload contains no ciphertext")
	}

	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ciphertext)

	plain, err = pkcs7Unpad(plain)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// deriveKey turns the COURIER_KEY value into a 32-byte AES key. A url-safe
// base64 encoding of exactly 32 bytes is used as-is; anything else is treated
// as a passphrase and stretched with PBKDF2-SHA256.
func deriveKey(key string) []byte {
	if decoded, err := base64.URLEncoding.DecodeString(key); err == nil && len(decoded) == 32 {
		return decoded
	}
	return pbkdf2.Key([]byte(key), pbkdf2Salt, pbkdf2Iterations, 32, sha256.New)
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty plaintext")
	}
	pad := int(data[len(data)-1])
	if pad == 0 || pad > aes.BlockSize || pad > len(data) {
		return nil, fmt.Errorf("invalid padding")
	}
	for _, b := range data[len(data)-pad:] {
		if int(b) != pad {
			return nil, fmt.Errorf("invalid padding")
		}
	}
	return data[:len(data)-pad], nil
}
