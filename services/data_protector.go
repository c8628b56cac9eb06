package services

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/Erebuzzz/tea-tracker/models"
)

// DataProtector encrypts data at rest, currently only the stored web push
// subscription payloads.
type DataProtector struct {
	config *models.Config
}

// NewDataProtector creates an instance of DataProtector
func NewDataProtector(config *models.Config) *DataProtector {
	return &DataProtector{config: config}
}

func (d *DataProtector) Encrypt(stringToEncrypt string) (string, error) {
	// Since the key is a string, we need to convert it to bytes
	key := []byte(d.config.EncryptionKey)
	plaintext := []byte(stringToEncrypt)

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	// Nonce / Unique IV
	nonce := make([]byte, aesGCM.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	// We add the nonce as a prefix to the encrypted data. The first nonce argument in Seal is the prefix.
	ciphertext := aesGCM.Seal(nonce, nonce, plaintext, nil)
	return fmt.Sprintf("%x", ciphertext), nil
}

func (d *DataProtector) Decrypt(encryptedString string) (string, error) {
	key := []byte(d.config.EncryptionKey)
	enc, err := hex.DecodeString(encryptedString)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonceSize := aesGCM.NonceSize()
	if len(enc) < nonceSize {
		return "", fmt.Errorf("encrypted payload too short")
	}

	// Extract the nonce from the encrypted data
	nonce, ciphertext := enc[:nonceSize], enc[nonceSize:]

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}
