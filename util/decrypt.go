package util

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/pkg/errors"
)

// first byte of every MPEG transport stream packet
const TSSyncByte = 0x47

// reports whether a segment is already cleartext transport stream.
// such segments must never reach DecryptSegment
func IsClearSegment(data []byte) bool {
	return len(data) > 0 && data[0] == TSSyncByte
}

// decrypts a whole segment using AES-128-CBC with an all-zero IV
// and strips the PKCS#7 padding
func DecryptSegment(encryptedData []byte, key []byte) ([]byte, error) {
	if !IsValidAESKey(key) {
		return nil, fmt.Errorf("%w: invalid key: expected 16 bytes, got %d", ErrDecryption, len(key))
	}
	if len(encryptedData) == 0 {
		return nil, fmt.Errorf("%w: no data to decrypt", ErrDecryption)
	}
	if len(encryptedData)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: encrypted data length is not a multiple of block size", ErrDecryption)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create AES cipher: %w", ErrDecryption, err)
	}
	mode := cipher.NewCBCDecrypter(block, GenerateZeroIV())
	decryptedData := make([]byte, len(encryptedData))
	mode.CryptBlocks(decryptedData, encryptedData)
	unpaddedData, err := unpadPKCS7(decryptedData)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to remove padding: %w", ErrDecryption, err)
	}
	return unpaddedData, nil
}

// strips PKCS#7 padding from a block-aligned plaintext
func unpadPKCS7(data []byte) ([]byte, error) {
	n := len(data)
	if n == 0 || n%aes.BlockSize != 0 {
		return nil, errors.New("plaintext is not block aligned")
	}
	pad := data[n-1]
	if pad == 0 || int(pad) > aes.BlockSize {
		return nil, fmt.Errorf("bad padding byte 0x%02x", pad)
	}
	if !bytes.Equal(data[n-int(pad):], bytes.Repeat([]byte{pad}, int(pad))) {
		return nil, errors.New("inconsistent padding bytes")
	}
	return data[:n-int(pad)], nil
}

func IsValidAESKey(key []byte) bool {
	return len(key) == 16
}

func GenerateZeroIV() []byte {
	return make([]byte, aes.BlockSize)
}
