package server

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"testing"

	"hlsgate/util"
)

func encrypt(t *testing.T, plaintext []byte) []byte {
	t.Helper()
	block, err := aes.NewCipher([]byte(testKey))
	if err != nil {
		t.Fatalf("failed to create cipher: %v", err)
	}
	padding := aes.BlockSize - len(plaintext)%aes.BlockSize
	padded := append(bytes.Clone(plaintext), bytes.Repeat([]byte{byte(padding)}, padding)...)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, util.GenerateZeroIV()).CryptBlocks(ciphertext, padded)
	return ciphertext
}
