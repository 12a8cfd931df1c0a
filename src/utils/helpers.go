package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/google/uuid"
)

func EncryptMessage(key []byte, message string) (string, error) {
	plaintext := []byte(message)

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	cipherText := gcm.Seal(nonce, nonce, plaintext, nil)
	encodedString := hex.EncodeToString(cipherText)

	return encodedString, nil
}

func DecryptMessage(key []byte, message string) (*string, error) {
	cipherText, err := hex.DecodeString(message)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(cipherText) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	decryptedData, err := gcm.Open(nil, cipherText[:gcm.NonceSize()], cipherText[gcm.NonceSize():], nil)
	if err != nil {
		return nil, err
	}
	decodedString := string(decryptedData)

	return &decodedString, nil
}

func AdmissionSecretKey() ([]byte, error) {
	keyEnv := os.Getenv("API_QRC_SECRET")
	key, err := hex.DecodeString(keyEnv)
	if err != nil {
		return nil, err
	}
	return key, nil
}

type admissionPayload struct {
	PurchaseID  uint      `json:"purchase"`
	ReferenceID uuid.UUID `json:"ref"`
}

// NewAdmissionCode produces the opaque string embedded in a ticket QR code.
func NewAdmissionCode(purchaseID uint, referenceID uuid.UUID) (string, error) {
	key, err := AdmissionSecretKey()
	if err != nil {
		return "", err
	}
	rawBytes, _ := json.Marshal(admissionPayload{PurchaseID: purchaseID, ReferenceID: referenceID})
	return EncryptMessage(key, string(rawBytes))
}

// ParseAdmissionCode reverses NewAdmissionCode.
func ParseAdmissionCode(code string) (uint, uuid.UUID, error) {
	key, err := AdmissionSecretKey()
	if err != nil {
		return 0, uuid.Nil, err
	}
	rawText, err := DecryptMessage(key, code)
	if err != nil {
		return 0, uuid.Nil, err
	}
	var payload admissionPayload
	if err := json.Unmarshal([]byte(*rawText), &payload); err != nil {
		return 0, uuid.Nil, err
	}
	return payload.PurchaseID, payload.ReferenceID, nil
}
